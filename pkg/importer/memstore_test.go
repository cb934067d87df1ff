package importer

import (
	"context"
	"fmt"

	"github.com/plotweave/backend/pkg/narrative"
	"github.com/plotweave/backend/pkg/store"
)

// memStore is an in-memory store.NarrativeStore with real transaction
// semantics: a transaction works on a copy and only Commit publishes it.

type memData struct {
	nextID int64

	themes          map[string]int64
	arcs            map[string]int64
	arcTypes        map[string]string
	locations       map[string]int64
	locationParents map[int64]int64
	orgs            map[string]int64
	characters      map[string]int64
	characterOrgs   map[int64]int64
	characterTypes  map[string]string
	objects         map[string]int64
	objectOwners    map[int64]int64
	series          map[string]int64
	seasons         map[string]int64
	episodes        map[string]int64
	events          map[string]int64
	eventThemes     map[int64][]int64
	eventArcs       map[int64][]int64
	participations  map[string]int64
	objectInvs      map[string]int64
	locationInvs    map[string]int64
	orgInvs         map[string]int64
	connections     map[string]int64
}

func newMemData() *memData {
	return &memData{
		nextID:          1,
		themes:          map[string]int64{},
		arcs:            map[string]int64{},
		arcTypes:        map[string]string{},
		locations:       map[string]int64{},
		locationParents: map[int64]int64{},
		orgs:            map[string]int64{},
		characters:      map[string]int64{},
		characterOrgs:   map[int64]int64{},
		characterTypes:  map[string]string{},
		objects:         map[string]int64{},
		objectOwners:    map[int64]int64{},
		series:          map[string]int64{},
		seasons:         map[string]int64{},
		episodes:        map[string]int64{},
		events:          map[string]int64{},
		eventThemes:     map[int64][]int64{},
		eventArcs:       map[int64][]int64{},
		participations:  map[string]int64{},
		objectInvs:      map[string]int64{},
		locationInvs:    map[string]int64{},
		orgInvs:         map[string]int64{},
		connections:     map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		nextID:          d.nextID,
		themes:          cloneMap(d.themes),
		arcs:            cloneMap(d.arcs),
		arcTypes:        cloneMap(d.arcTypes),
		locations:       cloneMap(d.locations),
		locationParents: cloneMap(d.locationParents),
		orgs:            cloneMap(d.orgs),
		characters:      cloneMap(d.characters),
		characterOrgs:   cloneMap(d.characterOrgs),
		characterTypes:  cloneMap(d.characterTypes),
		objects:         cloneMap(d.objects),
		objectOwners:    cloneMap(d.objectOwners),
		series:          cloneMap(d.series),
		seasons:         cloneMap(d.seasons),
		episodes:        cloneMap(d.episodes),
		events:          cloneMap(d.events),
		eventThemes:     cloneMap(d.eventThemes),
		eventArcs:       cloneMap(d.eventArcs),
		participations:  cloneMap(d.participations),
		objectInvs:      cloneMap(d.objectInvs),
		locationInvs:    cloneMap(d.locationInvs),
		orgInvs:         cloneMap(d.orgInvs),
		connections:     cloneMap(d.connections),
	}
}

func (d *memData) upsert(table map[string]int64, uuid string) store.UpsertResult {
	if id, ok := table[uuid]; ok {
		return store.UpsertResult{ID: id, Created: false}
	}
	id := d.nextID
	d.nextID++
	table[uuid] = id
	return store.UpsertResult{ID: id, Created: true}
}

type memStore struct {
	committed *memData
}

func newMemStore() *memStore {
	return &memStore{committed: newMemData()}
}

func (s *memStore) Begin(ctx context.Context) (store.NarrativeTx, error) {
	return &memTx{store: s, data: s.committed.clone()}, nil
}

type memTx struct {
	store *memStore
	data  *memData
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.store.committed = t.data
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return nil
}

func (t *memTx) UpsertTheme(ctx context.Context, theme narrative.Theme) (store.UpsertResult, error) {
	return t.data.upsert(t.data.themes, theme.UUID), nil
}

func (t *memTx) UpsertConflictArc(ctx context.Context, arc narrative.ConflictArc) (store.UpsertResult, error) {
	t.data.arcTypes[arc.UUID] = arc.ArcType
	return t.data.upsert(t.data.arcs, arc.UUID), nil
}

func (t *memTx) UpsertLocation(ctx context.Context, location narrative.Location) (store.UpsertResult, error) {
	return t.data.upsert(t.data.locations, location.UUID), nil
}

func (t *memTx) SetLocationParent(ctx context.Context, locationID int64, parentID int64) error {
	t.data.locationParents[locationID] = parentID
	return nil
}

func (t *memTx) UpsertOrganization(ctx context.Context, org narrative.Organization) (store.UpsertResult, error) {
	return t.data.upsert(t.data.orgs, org.UUID), nil
}

func (t *memTx) UpsertCharacter(ctx context.Context, character narrative.Character, slug string, organizationID *int64) (store.UpsertResult, error) {
	res := t.data.upsert(t.data.characters, character.UUID)
	t.data.characterTypes[character.UUID] = character.CharacterType
	if organizationID != nil {
		t.data.characterOrgs[res.ID] = *organizationID
	} else {
		delete(t.data.characterOrgs, res.ID)
	}
	return res, nil
}

func (t *memTx) UpsertObject(ctx context.Context, object narrative.Object, slug string, ownerID *int64) (store.UpsertResult, error) {
	res := t.data.upsert(t.data.objects, object.UUID)
	if ownerID != nil {
		t.data.objectOwners[res.ID] = *ownerID
	} else {
		delete(t.data.objectOwners, res.ID)
	}
	return res, nil
}

func (t *memTx) UpsertSeries(ctx context.Context, series narrative.Series, slug string) (store.UpsertResult, error) {
	return t.data.upsert(t.data.series, series.UUID), nil
}

func (t *memTx) UpsertSeason(ctx context.Context, season narrative.Season, seriesID int64) (store.UpsertResult, error) {
	return t.data.upsert(t.data.seasons, season.UUID), nil
}

func (t *memTx) UpsertEpisode(ctx context.Context, episode narrative.Episode, seasonID int64, slug string) (store.UpsertResult, error) {
	return t.data.upsert(t.data.episodes, episode.UUID), nil
}

func (t *memTx) UpsertEvent(ctx context.Context, event narrative.Event, episodeID int64, locationID *int64, slug string) (store.UpsertResult, error) {
	return t.data.upsert(t.data.events, event.UUID), nil
}

func (t *memTx) SetEventThemes(ctx context.Context, eventID int64, themeIDs []int64) error {
	t.data.eventThemes[eventID] = themeIDs
	return nil
}

func (t *memTx) SetEventArcs(ctx context.Context, eventID int64, arcIDs []int64) error {
	t.data.eventArcs[eventID] = arcIDs
	return nil
}

func (t *memTx) UpsertParticipation(ctx context.Context, participation narrative.Participation, eventID int64, characterID int64) (store.UpsertResult, error) {
	key := fmt.Sprintf("%d:%d", eventID, characterID)
	return t.data.upsert(t.data.participations, key), nil
}

func (t *memTx) UpsertObjectInvolvement(ctx context.Context, involvement narrative.ObjectInvolvement, eventID int64, objectID int64) (store.UpsertResult, error) {
	key := fmt.Sprintf("%d:%d", eventID, objectID)
	return t.data.upsert(t.data.objectInvs, key), nil
}

func (t *memTx) UpsertLocationInvolvement(ctx context.Context, involvement narrative.LocationInvolvement, eventID int64, locationID int64) (store.UpsertResult, error) {
	key := fmt.Sprintf("%d:%d", eventID, locationID)
	return t.data.upsert(t.data.locationInvs, key), nil
}

func (t *memTx) UpsertOrganizationInvolvement(ctx context.Context, involvement narrative.OrganizationInvolvement, eventID int64, organizationID int64) (store.UpsertResult, error) {
	key := fmt.Sprintf("%d:%d", eventID, organizationID)
	return t.data.upsert(t.data.orgInvs, key), nil
}

func (t *memTx) UpsertConnection(ctx context.Context, connection narrative.Connection, fromEventID int64, toEventID int64) (store.UpsertResult, error) {
	return t.data.upsert(t.data.connections, connection.UUID), nil
}

func (t *memTx) CountEntities(ctx context.Context) (store.Counts, error) {
	return store.Counts{
		Seasons:     int64(len(t.data.seasons)),
		Episodes:    int64(len(t.data.episodes)),
		Events:      int64(len(t.data.events)),
		Characters:  int64(len(t.data.characters)),
		Connections: int64(len(t.data.connections)),
	}, nil
}
