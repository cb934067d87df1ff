package pgx

import (
	"context"

	"github.com/plotweave/backend/pkg/narrative"
	"github.com/plotweave/backend/pkg/store"
)

// Every upsert is keyed on the record's curation UUID. The
// "(xmax = 0) AS created" trick distinguishes a fresh insert from a
// conflict-update without a second round trip.

const upsertThemeSQL = `
INSERT INTO themes (curation_uuid, name, description)
VALUES ($1, $2, $3)
ON CONFLICT (curation_uuid) DO UPDATE
SET name        = EXCLUDED.name,
    description = EXCLUDED.description
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertTheme(ctx context.Context, theme narrative.Theme) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertThemeSQL,
		theme.UUID, theme.Name, theme.Description,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertConflictArcSQL = `
INSERT INTO conflict_arcs (curation_uuid, title, description, arc_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (curation_uuid) DO UPDATE
SET title       = EXCLUDED.title,
    description = EXCLUDED.description,
    arc_type    = EXCLUDED.arc_type
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertConflictArc(ctx context.Context, arc narrative.ConflictArc) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertConflictArcSQL,
		arc.UUID, arc.Title, arc.Description, arc.ArcType,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertLocationSQL = `
INSERT INTO locations (curation_uuid, canonical_name, description, location_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (curation_uuid) DO UPDATE
SET canonical_name = EXCLUDED.canonical_name,
    description    = EXCLUDED.description,
    location_type  = EXCLUDED.location_type
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertLocation(ctx context.Context, location narrative.Location) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertLocationSQL,
		location.UUID, location.CanonicalName, location.Description, location.LocationType,
	).Scan(&res.ID, &res.Created)
	return res, err
}

// SetLocationParent wires a location to its parent. Runs as a second pass
// after all locations exist, so forward references inside locations.yaml
// resolve regardless of file order.
func (t *narrativeTx) SetLocationParent(ctx context.Context, locationID int64, parentID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE locations SET parent_id = $2 WHERE id = $1`,
		locationID, parentID,
	)
	return err
}

const upsertOrganizationSQL = `
INSERT INTO organizations (curation_uuid, canonical_name, description, sphere_of_influence)
VALUES ($1, $2, $3, $4)
ON CONFLICT (curation_uuid) DO UPDATE
SET canonical_name      = EXCLUDED.canonical_name,
    description         = EXCLUDED.description,
    sphere_of_influence = EXCLUDED.sphere_of_influence
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertOrganization(ctx context.Context, org narrative.Organization) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertOrganizationSQL,
		org.UUID, org.CanonicalName, org.Description, org.SphereOfInfluence,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertCharacterSQL = `
INSERT INTO characters (
	curation_uuid, canonical_name, slug, title_role, description,
	character_type, traits, aliases, appearance_count, organization_id
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (curation_uuid) DO UPDATE
SET canonical_name   = EXCLUDED.canonical_name,
    slug             = EXCLUDED.slug,
    title_role       = EXCLUDED.title_role,
    description      = EXCLUDED.description,
    character_type   = EXCLUDED.character_type,
    traits           = EXCLUDED.traits,
    aliases          = EXCLUDED.aliases,
    appearance_count = EXCLUDED.appearance_count,
    organization_id  = EXCLUDED.organization_id
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertCharacter(ctx context.Context, character narrative.Character, slug string, organizationID *int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertCharacterSQL,
		character.UUID, character.CanonicalName, slug, character.TitleRole,
		character.Description, character.CharacterType, character.Traits,
		character.Aliases, character.AppearanceCount, organizationID,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertObjectSQL = `
INSERT INTO objects (
	curation_uuid, canonical_name, slug, description, purpose, significance, owner_id
)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (curation_uuid) DO UPDATE
SET canonical_name = EXCLUDED.canonical_name,
    slug           = EXCLUDED.slug,
    description    = EXCLUDED.description,
    purpose        = EXCLUDED.purpose,
    significance   = EXCLUDED.significance,
    owner_id       = EXCLUDED.owner_id
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertObject(ctx context.Context, object narrative.Object, slug string, ownerID *int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertObjectSQL,
		object.UUID, object.CanonicalName, slug, object.Description,
		object.Purpose, object.Significance, ownerID,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertSeriesSQL = `
INSERT INTO series (curation_uuid, title, slug, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (curation_uuid) DO UPDATE
SET title       = EXCLUDED.title,
    slug        = EXCLUDED.slug,
    description = EXCLUDED.description
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertSeries(ctx context.Context, series narrative.Series, slug string) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertSeriesSQL,
		series.UUID, series.Title, slug, series.Description,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertSeasonSQL = `
INSERT INTO seasons (curation_uuid, series_id, season_number, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (curation_uuid) DO UPDATE
SET series_id     = EXCLUDED.series_id,
    season_number = EXCLUDED.season_number,
    description   = EXCLUDED.description
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertSeason(ctx context.Context, season narrative.Season, seriesID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertSeasonSQL,
		season.UUID, seriesID, season.Number, season.Description,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertEpisodeSQL = `
INSERT INTO episodes (
	curation_uuid, season_id, episode_number, title, slug,
	logline, summary, dominant_tone
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (curation_uuid) DO UPDATE
SET season_id      = EXCLUDED.season_id,
    episode_number = EXCLUDED.episode_number,
    title          = EXCLUDED.title,
    slug           = EXCLUDED.slug,
    logline        = EXCLUDED.logline,
    summary        = EXCLUDED.summary,
    dominant_tone  = EXCLUDED.dominant_tone
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertEpisode(ctx context.Context, episode narrative.Episode, seasonID int64, slug string) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertEpisodeSQL,
		episode.UUID, seasonID, episode.Number, episode.Title, slug,
		episode.Logline, episode.Summary, episode.DominantTone,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertEventSQL = `
INSERT INTO events (
	curation_uuid, episode_id, title, slug, description,
	scene_sequence, sequence_in_scene, key_dialogue, is_flashback, location_id
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (curation_uuid) DO UPDATE
SET episode_id        = EXCLUDED.episode_id,
    title             = EXCLUDED.title,
    slug              = EXCLUDED.slug,
    description       = EXCLUDED.description,
    scene_sequence    = EXCLUDED.scene_sequence,
    sequence_in_scene = EXCLUDED.sequence_in_scene,
    key_dialogue      = EXCLUDED.key_dialogue,
    is_flashback      = EXCLUDED.is_flashback,
    location_id       = EXCLUDED.location_id
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertEvent(ctx context.Context, event narrative.Event, episodeID int64, locationID *int64, slug string) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertEventSQL,
		event.UUID, episodeID, event.Title, slug, event.Description,
		event.SceneSequence, event.SequenceInScene, event.KeyDialogue,
		event.IsFlashback, locationID,
	).Scan(&res.ID, &res.Created)
	return res, err
}

// SetEventThemes replaces the event's theme set. Delete-then-insert keeps
// re-imports idempotent when tags were removed upstream.
func (t *narrativeTx) SetEventThemes(ctx context.Context, eventID int64, themeIDs []int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM event_themes WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if len(themeIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO event_themes (event_id, theme_id) SELECT $1, unnest($2::bigint[])`,
		eventID, themeIDs,
	)
	return err
}

// SetEventArcs replaces the event's conflict arc set.
func (t *narrativeTx) SetEventArcs(ctx context.Context, eventID int64, arcIDs []int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM event_arcs WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	if len(arcIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO event_arcs (event_id, arc_id) SELECT $1, unnest($2::bigint[])`,
		eventID, arcIDs,
	)
	return err
}

// Participations carry no curation UUID of their own; identity is the
// (event, character) pair.
const upsertParticipationSQL = `
INSERT INTO event_participations (
	event_id, character_id, emotional_state, goals, what_happened,
	observed_status, beliefs, observed_traits, importance
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (event_id, character_id) DO UPDATE
SET emotional_state = EXCLUDED.emotional_state,
    goals           = EXCLUDED.goals,
    what_happened   = EXCLUDED.what_happened,
    observed_status = EXCLUDED.observed_status,
    beliefs         = EXCLUDED.beliefs,
    observed_traits = EXCLUDED.observed_traits,
    importance      = EXCLUDED.importance
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertParticipation(ctx context.Context, participation narrative.Participation, eventID int64, characterID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertParticipationSQL,
		eventID, characterID, participation.EmotionalState, participation.Goals,
		participation.WhatHappened, participation.ObservedStatus,
		participation.Beliefs, participation.ObservedTraits, participation.Importance,
	).Scan(&res.ID, &res.Created)
	return res, err
}

// Involvements carry no curation UUID; like participations their identity
// is the (event, entity) pair.
const upsertObjectInvolvementSQL = `
INSERT INTO event_object_involvements (
	event_id, object_id, description_of_involvement,
	status_before_event, status_after_event
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id, object_id) DO UPDATE
SET description_of_involvement = EXCLUDED.description_of_involvement,
    status_before_event        = EXCLUDED.status_before_event,
    status_after_event         = EXCLUDED.status_after_event
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertObjectInvolvement(ctx context.Context, involvement narrative.ObjectInvolvement, eventID int64, objectID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertObjectInvolvementSQL,
		eventID, objectID, involvement.Description,
		involvement.StatusBefore, involvement.StatusAfter,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertLocationInvolvementSQL = `
INSERT INTO event_location_involvements (
	event_id, location_id, description_of_involvement, observed_atmosphere,
	functional_role, symbolic_significance, access_restrictions,
	key_environmental_details
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (event_id, location_id) DO UPDATE
SET description_of_involvement = EXCLUDED.description_of_involvement,
    observed_atmosphere        = EXCLUDED.observed_atmosphere,
    functional_role            = EXCLUDED.functional_role,
    symbolic_significance      = EXCLUDED.symbolic_significance,
    access_restrictions        = EXCLUDED.access_restrictions,
    key_environmental_details  = EXCLUDED.key_environmental_details
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertLocationInvolvement(ctx context.Context, involvement narrative.LocationInvolvement, eventID int64, locationID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertLocationInvolvementSQL,
		eventID, locationID, involvement.Description, involvement.ObservedAtmosphere,
		involvement.FunctionalRole, involvement.SymbolicSignificance,
		involvement.AccessRestrictions, involvement.EnvironmentalDetails,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertOrganizationInvolvementSQL = `
INSERT INTO event_organization_involvements (
	event_id, organization_id, description_of_involvement,
	active_representation, power_dynamics, organizational_goals,
	influence_mechanisms, institutional_impact, internal_dynamics
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (event_id, organization_id) DO UPDATE
SET description_of_involvement = EXCLUDED.description_of_involvement,
    active_representation      = EXCLUDED.active_representation,
    power_dynamics             = EXCLUDED.power_dynamics,
    organizational_goals       = EXCLUDED.organizational_goals,
    influence_mechanisms       = EXCLUDED.influence_mechanisms,
    institutional_impact       = EXCLUDED.institutional_impact,
    internal_dynamics          = EXCLUDED.internal_dynamics
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertOrganizationInvolvement(ctx context.Context, involvement narrative.OrganizationInvolvement, eventID int64, organizationID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertOrganizationInvolvementSQL,
		eventID, organizationID, involvement.Description,
		involvement.ActiveRepresentation, involvement.PowerDynamics,
		involvement.OrganizationalGoals, involvement.InfluenceMechanisms,
		involvement.InstitutionalImpact, involvement.InternalDynamics,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const upsertConnectionSQL = `
INSERT INTO narrative_connections (
	curation_uuid, from_event_id, to_event_id, connection_type, strength, description
)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (curation_uuid) DO UPDATE
SET from_event_id   = EXCLUDED.from_event_id,
    to_event_id     = EXCLUDED.to_event_id,
    connection_type = EXCLUDED.connection_type,
    strength        = EXCLUDED.strength,
    description     = EXCLUDED.description
RETURNING id, (xmax = 0) AS created;
`

func (t *narrativeTx) UpsertConnection(ctx context.Context, connection narrative.Connection, fromEventID int64, toEventID int64) (store.UpsertResult, error) {
	var res store.UpsertResult
	err := t.tx.QueryRow(ctx, upsertConnectionSQL,
		connection.UUID, fromEventID, toEventID, connection.Type,
		connection.Strength, connection.Description,
	).Scan(&res.ID, &res.Created)
	return res, err
}

const countEntitiesSQL = `
SELECT
	(SELECT count(*) FROM seasons),
	(SELECT count(*) FROM episodes),
	(SELECT count(*) FROM events),
	(SELECT count(*) FROM characters),
	(SELECT count(*) FROM narrative_connections);
`

// CountEntities reports row counts inside the transaction, so dry runs see
// their own uncommitted writes.
func (t *narrativeTx) CountEntities(ctx context.Context) (store.Counts, error) {
	var c store.Counts
	err := t.tx.QueryRow(ctx, countEntitiesSQL).Scan(
		&c.Seasons, &c.Episodes, &c.Events, &c.Characters, &c.Connections,
	)
	return c, err
}
