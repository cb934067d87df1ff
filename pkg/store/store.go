// Package store defines the persistence interfaces for narrative content.
// Implementations live in subpackages (pkg/store/pgx for PostgreSQL).
package store

import (
	"context"
	"errors"

	"github.com/plotweave/backend/pkg/narrative"
)

// ErrNotFound is returned by read operations when no row matches.
var ErrNotFound = errors.New("not found")

// UpsertResult reports the internal row ID of an upserted record and whether
// the upsert created a new row or refreshed an existing one.
type UpsertResult struct {
	ID      int64
	Created bool
}

// Counts holds per-entity row counts, used to sanity-check an import run
// against the bundle manifest.
type Counts struct {
	Seasons     int64
	Episodes    int64
	Events      int64
	Characters  int64
	Connections int64
}

// NarrativeStore opens import transactions against the backing database.
type NarrativeStore interface {
	Begin(ctx context.Context) (NarrativeTx, error)
}

// NarrativeTx is a single import transaction. All writes of one import run
// happen inside one transaction; a dry run rolls it back instead of
// committing. Upserts are keyed on the record's curation UUID, never on
// internal row IDs.
type NarrativeTx interface {
	UpsertTheme(ctx context.Context, theme narrative.Theme) (UpsertResult, error)
	UpsertConflictArc(ctx context.Context, arc narrative.ConflictArc) (UpsertResult, error)
	UpsertLocation(ctx context.Context, location narrative.Location) (UpsertResult, error)
	SetLocationParent(ctx context.Context, locationID int64, parentID int64) error

	UpsertOrganization(ctx context.Context, org narrative.Organization) (UpsertResult, error)
	UpsertCharacter(ctx context.Context, character narrative.Character, slug string, organizationID *int64) (UpsertResult, error)
	UpsertObject(ctx context.Context, object narrative.Object, slug string, ownerID *int64) (UpsertResult, error)

	UpsertSeries(ctx context.Context, series narrative.Series, slug string) (UpsertResult, error)
	UpsertSeason(ctx context.Context, season narrative.Season, seriesID int64) (UpsertResult, error)
	UpsertEpisode(ctx context.Context, episode narrative.Episode, seasonID int64, slug string) (UpsertResult, error)

	UpsertEvent(ctx context.Context, event narrative.Event, episodeID int64, locationID *int64, slug string) (UpsertResult, error)
	SetEventThemes(ctx context.Context, eventID int64, themeIDs []int64) error
	SetEventArcs(ctx context.Context, eventID int64, arcIDs []int64) error

	UpsertParticipation(ctx context.Context, participation narrative.Participation, eventID int64, characterID int64) (UpsertResult, error)
	UpsertObjectInvolvement(ctx context.Context, involvement narrative.ObjectInvolvement, eventID int64, objectID int64) (UpsertResult, error)
	UpsertLocationInvolvement(ctx context.Context, involvement narrative.LocationInvolvement, eventID int64, locationID int64) (UpsertResult, error)
	UpsertOrganizationInvolvement(ctx context.Context, involvement narrative.OrganizationInvolvement, eventID int64, organizationID int64) (UpsertResult, error)
	UpsertConnection(ctx context.Context, connection narrative.Connection, fromEventID int64, toEventID int64) (UpsertResult, error)

	CountEntities(ctx context.Context) (Counts, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SeriesSummary is one row of the series listing.
type SeriesSummary struct {
	UUID         string `json:"curation_uuid"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	SeasonCount  int64  `json:"season_count"`
	EpisodeCount int64  `json:"episode_count"`
}

// SeriesDetail is a full series hierarchy.
type SeriesDetail struct {
	UUID        string         `json:"curation_uuid"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Seasons     []SeasonDetail `json:"seasons"`
}

// SeasonDetail is one season inside a series hierarchy.
type SeasonDetail struct {
	UUID        string           `json:"curation_uuid"`
	Number      int              `json:"season_number"`
	Description string           `json:"description"`
	Episodes    []EpisodeSummary `json:"episodes"`
}

// EpisodeSummary is one episode inside a season.
type EpisodeSummary struct {
	UUID    string `json:"curation_uuid"`
	Number  int    `json:"episode_number"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Logline string `json:"logline"`
}

// EventSummary is one event of an episode, in story order.
type EventSummary struct {
	UUID            string  `json:"curation_uuid"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	SceneSequence   int     `json:"scene_sequence"`
	SequenceInScene int     `json:"sequence_in_scene"`
	IsFlashback     bool    `json:"is_flashback"`
	LocationName    *string `json:"location_name,omitempty"`
}

// ParticipationView is one appearance of a character, joined with enough
// episode context to order appearances chronologically.
type ParticipationView struct {
	EventUUID      string `json:"event_uuid"`
	EventTitle     string `json:"event_title"`
	SeasonNumber   int    `json:"season_number"`
	EpisodeNumber  int    `json:"episode_number"`
	SceneSequence  int    `json:"scene_sequence"`
	EmotionalState string `json:"emotional_state"`
	WhatHappened   string `json:"what_happened"`
	Importance     string `json:"importance"`
}

// ConnectionView is a connection joined with both endpoint events.
type ConnectionView struct {
	UUID           string `json:"curation_uuid"`
	Type           string `json:"connection_type"`
	Strength       string `json:"strength"`
	Description    string `json:"description"`
	FromEventUUID  string `json:"from_event_uuid"`
	FromEventTitle string `json:"from_event_title"`
	ToEventUUID    string `json:"to_event_uuid"`
	ToEventTitle   string `json:"to_event_title"`
}

// EventConnections groups an event's connections by direction.
type EventConnections struct {
	Outgoing []ConnectionView `json:"outgoing"`
	Incoming []ConnectionView `json:"incoming"`
}

// NarrativeReader serves the read API.
type NarrativeReader interface {
	ListSeries(ctx context.Context) ([]SeriesSummary, error)
	GetSeries(ctx context.Context, uuid string) (*SeriesDetail, error)
	ListEpisodeEvents(ctx context.Context, episodeUUID string) ([]EventSummary, error)
	ListCharacterParticipations(ctx context.Context, characterUUID string) ([]ParticipationView, error)
	GetEventConnections(ctx context.Context, eventUUID string) (*EventConnections, error)
	GetConnection(ctx context.Context, uuid string) (*ConnectionView, error)
	ListConnectionsByType(ctx context.Context, connectionType narrative.ConnectionType) ([]ConnectionView, error)
}
