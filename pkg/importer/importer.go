// Package importer loads a parsed export bundle into the narrative store.
//
// A run works through the bundle in dependency order: tag vocabularies
// first (themes, arcs, locations), then the character layer, then the
// series hierarchy, then events, participations, and finally connections.
// Every write of a run happens in a single transaction; a dry run executes
// the identical code path and rolls the transaction back at the end.
//
// Failures split into two classes. Anything wrong with the bundle as a
// whole (unreadable files, invalid manifest) never reaches this package;
// bundle.Load rejects it first. Anything wrong with a single record (a
// broken reference, a value outside an enum) skips that record, lands in
// the run report, and never fails the run. Database errors abort the run.
package importer

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/plotweave/backend/internal/util"
	"github.com/plotweave/backend/pkg/bundle"
	"github.com/plotweave/backend/pkg/logger"
	"github.com/plotweave/backend/pkg/narrative"
	"github.com/plotweave/backend/pkg/store"
)

// Importer runs import pipelines against a narrative store.
type Importer struct {
	store  store.NarrativeStore
	dryRun bool
}

// NewImporterParams configures an Importer.
type NewImporterParams struct {
	Store  store.NarrativeStore
	DryRun bool
}

// NewImporter creates an importer. With DryRun set, runs execute fully but
// roll back instead of committing.
func NewImporter(params NewImporterParams) *Importer {
	return &Importer{
		store:  params.Store,
		dryRun: params.DryRun,
	}
}

// run carries the per-run state: the open transaction, the report, and the
// UUID-to-row-ID caches the later phases resolve references against.
type run struct {
	tx     store.NarrativeTx
	report *Report

	themes     map[string]int64
	arcs       map[string]int64
	locations  map[string]int64
	orgs       map[string]int64
	objects    map[string]int64
	characters map[string]int64
	episodes   map[string]int64
	events     map[string]int64
}

// Run imports the bundle. The returned report is non-nil whenever the error
// is nil; record-level problems are inside the report, not the error.
func (imp *Importer) Run(ctx context.Context, b *bundle.Bundle) (*Report, error) {
	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	tx, err := imp.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	r := &run{
		tx:         tx,
		report:     newReport(runID, imp.dryRun),
		themes:     make(map[string]int64),
		arcs:       make(map[string]int64),
		locations:  make(map[string]int64),
		orgs:       make(map[string]int64),
		objects:    make(map[string]int64),
		characters: make(map[string]int64),
		episodes:   make(map[string]int64),
		events:     make(map[string]int64),
	}

	logger.Info("[Importer] Starting run", "run_id", runID, "series", b.Manifest.SeriesTitle, "dry_run", imp.dryRun)

	phases := []struct {
		name string
		fn   func(context.Context, *bundle.Bundle) error
	}{
		{"vocabulary", r.importVocabulary},
		{"characters", r.importCharacterLayer},
		{"hierarchy", r.importHierarchy},
		{"events", r.importEvents},
		{"participations", r.importParticipations},
		{"involvements", r.importInvolvements},
		{"connections", r.importConnections},
	}
	for _, phase := range phases {
		if err := phase.fn(ctx, b); err != nil {
			return nil, fmt.Errorf("import phase %s: %w", phase.name, err)
		}
		logger.Debug("[Importer] Phase done", "run_id", runID, "phase", phase.name)
	}

	if err := r.checkManifestCounts(ctx, b.Manifest); err != nil {
		return nil, err
	}

	if imp.dryRun {
		if err := tx.Rollback(ctx); err != nil {
			return nil, fmt.Errorf("roll back dry run: %w", err)
		}
	} else {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit import: %w", err)
		}
	}

	logger.Info("[Importer] Run finished",
		"run_id", runID,
		"created", r.report.TotalCreated(),
		"record_errors", len(r.report.Errors),
	)

	return r.report, nil
}

// importVocabulary is the first phase: themes, conflict arcs, and locations
// have no dependencies and everything later may reference them. Location
// parents are wired in a second pass so ordering inside locations.yaml
// never matters.
func (r *run) importVocabulary(ctx context.Context, b *bundle.Bundle) error {
	for _, theme := range b.Themes {
		if theme.UUID == "" {
			r.report.skip("theme", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if theme.Name == "" {
			r.report.skip("theme", theme.UUID, "name", "missing name")
			continue
		}
		res, err := r.tx.UpsertTheme(ctx, theme)
		if err != nil {
			return err
		}
		r.themes[theme.UUID] = res.ID
		r.report.upserted("theme", res.Created)
	}

	for _, arc := range b.Arcs {
		if arc.UUID == "" {
			r.report.skip("conflict_arc", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if arc.Title == "" {
			r.report.skip("conflict_arc", arc.UUID, "title", "missing title")
			continue
		}
		arc.ArcType = narrative.NormalizeArcType(arc.ArcType)
		res, err := r.tx.UpsertConflictArc(ctx, arc)
		if err != nil {
			return err
		}
		r.arcs[arc.UUID] = res.ID
		r.report.upserted("conflict_arc", res.Created)
	}

	for _, location := range b.Locations {
		if location.UUID == "" {
			r.report.skip("location", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if location.CanonicalName == "" {
			r.report.skip("location", location.UUID, "canonical_name", "missing canonical_name")
			continue
		}
		res, err := r.tx.UpsertLocation(ctx, location)
		if err != nil {
			return err
		}
		r.locations[location.UUID] = res.ID
		r.report.upserted("location", res.Created)
	}

	for _, location := range b.Locations {
		if location.ParentUUID == "" {
			continue
		}
		locationID, ok := r.locations[location.UUID]
		if !ok {
			continue
		}
		parentID, ok := r.locations[location.ParentUUID]
		if !ok {
			r.report.warn("location %s: dropped unknown parent %s", location.UUID, location.ParentUUID)
			continue
		}
		if parentID == locationID {
			r.report.warn("location %s: dropped self-referential parent", location.UUID)
			continue
		}
		if err := r.tx.SetLocationParent(ctx, locationID, parentID); err != nil {
			return err
		}
	}

	return nil
}

// importCharacterLayer loads organizations, then characters, then objects.
// Characters may be affiliated with an organization and objects may be owned
// by a character; a broken affiliation or ownership does not skip the
// record, the reference is dropped with a warning.
func (r *run) importCharacterLayer(ctx context.Context, b *bundle.Bundle) error {
	for _, org := range b.Organizations {
		if org.UUID == "" {
			r.report.skip("organization", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if org.CanonicalName == "" {
			r.report.skip("organization", org.UUID, "canonical_name", "missing canonical_name")
			continue
		}
		res, err := r.tx.UpsertOrganization(ctx, org)
		if err != nil {
			return err
		}
		r.orgs[org.UUID] = res.ID
		r.report.upserted("organization", res.Created)
	}

	for _, character := range b.Characters {
		if character.UUID == "" {
			r.report.skip("character", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if character.CanonicalName == "" {
			r.report.skip("character", character.UUID, "canonical_name", "missing canonical_name")
			continue
		}
		character.CharacterType = narrative.NormalizeCharacterType(character.CharacterType)

		var organizationID *int64
		if character.OrganizationUUID != "" {
			if id, ok := r.orgs[character.OrganizationUUID]; ok {
				organizationID = &id
			} else {
				r.report.warn("character %s: dropped unknown organization %s",
					character.UUID, character.OrganizationUUID)
			}
		}

		slug := util.UniqueSlug(character.CanonicalName, character.UUID)
		res, err := r.tx.UpsertCharacter(ctx, character, slug, organizationID)
		if err != nil {
			return err
		}
		r.characters[character.UUID] = res.ID
		r.report.upserted("character", res.Created)
	}

	for _, object := range b.Objects {
		if object.UUID == "" {
			r.report.skip("object", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if object.CanonicalName == "" {
			r.report.skip("object", object.UUID, "canonical_name", "missing canonical_name")
			continue
		}

		var ownerID *int64
		if object.OwnerUUID != "" {
			if id, ok := r.characters[object.OwnerUUID]; ok {
				ownerID = &id
			} else {
				r.report.warn("object %s: dropped unknown owner %s", object.UUID, object.OwnerUUID)
			}
		}

		slug := util.UniqueSlug(object.CanonicalName, object.UUID)
		res, err := r.tx.UpsertObject(ctx, object, slug, ownerID)
		if err != nil {
			return err
		}
		r.objects[object.UUID] = res.ID
		r.report.upserted("object", res.Created)
	}

	return nil
}

// importHierarchy loads the series, then its seasons, then their episodes.
// Sequence numbers must be unique within their parent; a record reusing a
// number already taken in this bundle is skipped.
func (r *run) importHierarchy(ctx context.Context, b *bundle.Bundle) error {
	series := b.Series
	if series.UUID == "" {
		r.report.skip("series", "", "curation_uuid", "missing curation_uuid")
		return nil
	}
	if series.Title == "" {
		r.report.skip("series", series.UUID, "title", "missing title")
		return nil
	}

	res, err := r.tx.UpsertSeries(ctx, series, util.UniqueSlug(series.Title, series.UUID))
	if err != nil {
		return err
	}
	seriesID := res.ID
	r.report.upserted("series", res.Created)

	seenSeasonNumbers := make(map[int]string)
	for _, season := range series.Seasons {
		if season.UUID == "" {
			r.report.skip("season", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if takenBy, taken := seenSeasonNumbers[season.Number]; taken {
			r.report.skip("season", season.UUID, "season_number",
				fmt.Sprintf("season_number %d already used by season %s", season.Number, takenBy))
			continue
		}
		seenSeasonNumbers[season.Number] = season.UUID

		seasonRes, err := r.tx.UpsertSeason(ctx, season, seriesID)
		if err != nil {
			return err
		}
		r.report.upserted("season", seasonRes.Created)

		seenEpisodeNumbers := make(map[int]string)
		for _, episode := range season.Episodes {
			if episode.UUID == "" {
				r.report.skip("episode", "", "curation_uuid", "missing curation_uuid")
				continue
			}
			if takenBy, taken := seenEpisodeNumbers[episode.Number]; taken {
				r.report.skip("episode", episode.UUID, "episode_number",
					fmt.Sprintf("episode_number %d already used by episode %s", episode.Number, takenBy))
				continue
			}
			seenEpisodeNumbers[episode.Number] = episode.UUID

			slug := util.UniqueSlug(episode.Title, episode.UUID)
			episodeRes, err := r.tx.UpsertEpisode(ctx, episode, seasonRes.ID, slug)
			if err != nil {
				return err
			}
			r.episodes[episode.UUID] = episodeRes.ID
			r.report.upserted("episode", episodeRes.Created)
		}
	}

	return nil
}

// importEvents loads every per-episode event file. An event needs its
// episode; location, theme, and arc references are optional and broken
// ones are dropped with a warning.
func (r *run) importEvents(ctx context.Context, b *bundle.Bundle) error {
	for _, ef := range b.EventFiles {
		episodeID, episodeOK := r.episodes[ef.EpisodeUUID]

		for _, event := range ef.Events {
			if event.UUID == "" {
				r.report.skip("event", "", "curation_uuid", "missing curation_uuid")
				continue
			}
			if !episodeOK {
				r.report.skip("event", event.UUID, "episode_uuid",
					fmt.Sprintf("unknown episode %s", ef.EpisodeUUID))
				continue
			}

			var locationID *int64
			if event.LocationUUID != "" {
				if id, ok := r.locations[event.LocationUUID]; ok {
					locationID = &id
				} else {
					r.report.warn("event %s: dropped unknown location %s", event.UUID, event.LocationUUID)
				}
			}

			slug := util.UniqueSlug(event.Title, event.UUID)
			res, err := r.tx.UpsertEvent(ctx, event, episodeID, locationID, slug)
			if err != nil {
				return err
			}
			r.events[event.UUID] = res.ID
			r.report.upserted("event", res.Created)

			themeIDs := r.resolveTagRefs(event.UUID, "theme", event.ThemeUUIDs, r.themes)
			if err := r.tx.SetEventThemes(ctx, res.ID, themeIDs); err != nil {
				return err
			}
			arcIDs := r.resolveTagRefs(event.UUID, "arc", event.ArcUUIDs, r.arcs)
			if err := r.tx.SetEventArcs(ctx, res.ID, arcIDs); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *run) resolveTagRefs(eventUUID string, kind string, uuids []string, cache map[string]int64) []int64 {
	ids := make([]int64, 0, len(uuids))
	for _, uuid := range uuids {
		if id, ok := cache[uuid]; ok {
			ids = append(ids, id)
			continue
		}
		r.report.warn("event %s: dropped unknown %s %s", eventUUID, kind, uuid)
	}
	return ids
}

// importParticipations runs after every event and character exists. Both
// endpoints are required; a participation with either side missing is
// skipped as a record error.
func (r *run) importParticipations(ctx context.Context, b *bundle.Bundle) error {
	for _, ef := range b.EventFiles {
		for _, event := range ef.Events {
			eventID, eventOK := r.events[event.UUID]

			for _, participation := range event.Participations {
				if participation.CharacterUUID == "" {
					r.report.skip("participation", event.UUID, "character_uuid", "missing character_uuid")
					continue
				}
				if !eventOK {
					r.report.skip("participation", event.UUID, "event",
						"event was not imported")
					continue
				}
				characterID, ok := r.characters[participation.CharacterUUID]
				if !ok {
					r.report.skip("participation", event.UUID, "character_uuid",
						fmt.Sprintf("unknown character %s", participation.CharacterUUID))
					continue
				}

				res, err := r.tx.UpsertParticipation(ctx, participation, eventID, characterID)
				if err != nil {
					return err
				}
				r.report.upserted("participation", res.Created)
			}
		}
	}

	return nil
}

// importInvolvements loads the object, location, and organization
// involvement edges embedded in event records. The referenced entity is
// required; an involvement pointing at an unknown entity is skipped as a
// record error. Involvements under events that were not imported are
// skipped the same way participations are.
func (r *run) importInvolvements(ctx context.Context, b *bundle.Bundle) error {
	for _, ef := range b.EventFiles {
		for _, event := range ef.Events {
			eventID, eventOK := r.events[event.UUID]

			for _, involvement := range event.ObjectInvolvements {
				if involvement.ObjectUUID == "" {
					r.report.skip("object_involvement", event.UUID, "object_uuid", "missing object_uuid")
					continue
				}
				if !eventOK {
					r.report.skip("object_involvement", event.UUID, "event", "event was not imported")
					continue
				}
				objectID, ok := r.objects[involvement.ObjectUUID]
				if !ok {
					r.report.skip("object_involvement", event.UUID, "object_uuid",
						fmt.Sprintf("unknown object %s", involvement.ObjectUUID))
					continue
				}
				res, err := r.tx.UpsertObjectInvolvement(ctx, involvement, eventID, objectID)
				if err != nil {
					return err
				}
				r.report.upserted("object_involvement", res.Created)
			}

			for _, involvement := range event.LocationInvolvements {
				if involvement.LocationUUID == "" {
					r.report.skip("location_involvement", event.UUID, "location_uuid", "missing location_uuid")
					continue
				}
				if !eventOK {
					r.report.skip("location_involvement", event.UUID, "event", "event was not imported")
					continue
				}
				locationID, ok := r.locations[involvement.LocationUUID]
				if !ok {
					r.report.skip("location_involvement", event.UUID, "location_uuid",
						fmt.Sprintf("unknown location %s", involvement.LocationUUID))
					continue
				}
				res, err := r.tx.UpsertLocationInvolvement(ctx, involvement, eventID, locationID)
				if err != nil {
					return err
				}
				r.report.upserted("location_involvement", res.Created)
			}

			for _, involvement := range event.OrganizationInvolvements {
				if involvement.OrganizationUUID == "" {
					r.report.skip("organization_involvement", event.UUID, "organization_uuid", "missing organization_uuid")
					continue
				}
				if !eventOK {
					r.report.skip("organization_involvement", event.UUID, "event", "event was not imported")
					continue
				}
				organizationID, ok := r.orgs[involvement.OrganizationUUID]
				if !ok {
					r.report.skip("organization_involvement", event.UUID, "organization_uuid",
						fmt.Sprintf("unknown organization %s", involvement.OrganizationUUID))
					continue
				}
				res, err := r.tx.UpsertOrganizationInvolvement(ctx, involvement, eventID, organizationID)
				if err != nil {
					return err
				}
				r.report.upserted("organization_involvement", res.Created)
			}
		}
	}

	return nil
}

// importConnections is the last phase. Connections are validated strictly:
// the type must be in the taxonomy, the strength in its enum, both endpoint
// events must exist, and self-loops are rejected.
func (r *run) importConnections(ctx context.Context, b *bundle.Bundle) error {
	for _, connection := range b.Connections {
		if connection.UUID == "" {
			r.report.skip("connection", "", "curation_uuid", "missing curation_uuid")
			continue
		}
		if _, err := narrative.ParseConnectionType(connection.Type); err != nil {
			r.report.skip("connection", connection.UUID, "connection_type", err.Error())
			continue
		}
		if _, err := narrative.ParseConnectionStrength(connection.Strength); err != nil {
			r.report.skip("connection", connection.UUID, "strength", err.Error())
			continue
		}
		if connection.FromEventUUID == connection.ToEventUUID {
			r.report.skip("connection", connection.UUID, "to_event_uuid",
				"self-loops are not allowed")
			continue
		}
		fromID, ok := r.events[connection.FromEventUUID]
		if !ok {
			r.report.skip("connection", connection.UUID, "from_event_uuid",
				fmt.Sprintf("unknown event %s", connection.FromEventUUID))
			continue
		}
		toID, ok := r.events[connection.ToEventUUID]
		if !ok {
			r.report.skip("connection", connection.UUID, "to_event_uuid",
				fmt.Sprintf("unknown event %s", connection.ToEventUUID))
			continue
		}

		res, err := r.tx.UpsertConnection(ctx, connection, fromID, toID)
		if err != nil {
			return err
		}
		r.report.upserted("connection", res.Created)
	}

	return nil
}

// checkManifestCounts compares post-import row counts against the manifest.
// Mismatches are warnings: the database is the source of truth, the
// manifest is the exporter's expectation.
func (r *run) checkManifestCounts(ctx context.Context, m bundle.Manifest) error {
	counts, err := r.tx.CountEntities(ctx)
	if err != nil {
		return fmt.Errorf("count entities: %w", err)
	}

	checks := []struct {
		name     string
		expected int
		actual   int64
	}{
		{"season_count", m.SeasonCount, counts.Seasons},
		{"episode_count", m.EpisodeCount, counts.Episodes},
		{"event_count", m.EventCount, counts.Events},
		{"character_count", m.CharacterCount, counts.Characters},
		{"connection_count", m.ConnectionCount, counts.Connections},
	}
	for _, c := range checks {
		if c.expected > 0 && int64(c.expected) != c.actual {
			r.report.warn("manifest %s is %d but store has %d", c.name, c.expected, c.actual)
		}
	}

	return nil
}
