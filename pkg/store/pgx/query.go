package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/plotweave/backend/pkg/narrative"
	"github.com/plotweave/backend/pkg/store"
)

const listSeriesSQL = `
SELECT s.curation_uuid, s.title, s.slug, s.description,
	(SELECT count(*) FROM seasons se WHERE se.series_id = s.id),
	(SELECT count(*) FROM episodes e JOIN seasons se ON e.season_id = se.id WHERE se.series_id = s.id)
FROM series s
ORDER BY s.title;
`

func (s *NarrativeDBStore) ListSeries(ctx context.Context) ([]store.SeriesSummary, error) {
	rows, err := s.conn.Query(ctx, listSeriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]store.SeriesSummary, 0)
	for rows.Next() {
		var sum store.SeriesSummary
		if err := rows.Scan(
			&sum.UUID, &sum.Title, &sum.Slug, &sum.Description,
			&sum.SeasonCount, &sum.EpisodeCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

const getSeriesSQL = `
SELECT id, curation_uuid, title, slug, description
FROM series
WHERE curation_uuid = $1;
`

const getSeriesTreeSQL = `
SELECT se.curation_uuid, se.season_number, se.description,
	e.curation_uuid, e.episode_number, e.title, e.slug, e.logline
FROM seasons se
LEFT JOIN episodes e ON e.season_id = se.id
WHERE se.series_id = $1
ORDER BY se.season_number, e.episode_number;
`

func (s *NarrativeDBStore) GetSeries(ctx context.Context, uuid string) (*store.SeriesDetail, error) {
	var seriesID int64
	detail := &store.SeriesDetail{Seasons: make([]store.SeasonDetail, 0)}
	err := s.conn.QueryRow(ctx, getSeriesSQL, uuid).Scan(
		&seriesID, &detail.UUID, &detail.Title, &detail.Slug, &detail.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.conn.Query(ctx, getSeriesTreeSQL, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seasonUUID, seasonDescription string
		var seasonNumber int
		var episodeUUID, episodeTitle, episodeSlug, episodeLogline *string
		var episodeNumber *int
		if err := rows.Scan(
			&seasonUUID, &seasonNumber, &seasonDescription,
			&episodeUUID, &episodeNumber, &episodeTitle, &episodeSlug, &episodeLogline,
		); err != nil {
			return nil, err
		}

		if len(detail.Seasons) == 0 || detail.Seasons[len(detail.Seasons)-1].UUID != seasonUUID {
			detail.Seasons = append(detail.Seasons, store.SeasonDetail{
				UUID:        seasonUUID,
				Number:      seasonNumber,
				Description: seasonDescription,
				Episodes:    make([]store.EpisodeSummary, 0),
			})
		}

		// LEFT JOIN: a season with no episodes yields one row of NULLs.
		if episodeUUID == nil {
			continue
		}
		season := &detail.Seasons[len(detail.Seasons)-1]
		season.Episodes = append(season.Episodes, store.EpisodeSummary{
			UUID:    *episodeUUID,
			Number:  *episodeNumber,
			Title:   *episodeTitle,
			Slug:    *episodeSlug,
			Logline: *episodeLogline,
		})
	}

	return detail, rows.Err()
}

const listEpisodeEventsSQL = `
SELECT ev.curation_uuid, ev.title, ev.description,
	ev.scene_sequence, ev.sequence_in_scene, ev.is_flashback,
	l.canonical_name
FROM events ev
JOIN episodes e ON ev.episode_id = e.id
LEFT JOIN locations l ON ev.location_id = l.id
WHERE e.curation_uuid = $1
ORDER BY ev.scene_sequence, ev.sequence_in_scene;
`

func (s *NarrativeDBStore) ListEpisodeEvents(ctx context.Context, episodeUUID string) ([]store.EventSummary, error) {
	if err := s.ensureExists(ctx, "episodes", episodeUUID); err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, listEpisodeEventsSQL, episodeUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]store.EventSummary, 0)
	for rows.Next() {
		var ev store.EventSummary
		if err := rows.Scan(
			&ev.UUID, &ev.Title, &ev.Description,
			&ev.SceneSequence, &ev.SequenceInScene, &ev.IsFlashback,
			&ev.LocationName,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

const listCharacterParticipationsSQL = `
SELECT ev.curation_uuid, ev.title,
	se.season_number, e.episode_number, ev.scene_sequence,
	p.emotional_state, p.what_happened, p.importance
FROM event_participations p
JOIN characters c ON p.character_id = c.id
JOIN events ev ON p.event_id = ev.id
JOIN episodes e ON ev.episode_id = e.id
JOIN seasons se ON e.season_id = se.id
WHERE c.curation_uuid = $1
ORDER BY se.season_number, e.episode_number, ev.scene_sequence, ev.sequence_in_scene;
`

func (s *NarrativeDBStore) ListCharacterParticipations(ctx context.Context, characterUUID string) ([]store.ParticipationView, error) {
	if err := s.ensureExists(ctx, "characters", characterUUID); err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, listCharacterParticipationsSQL, characterUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]store.ParticipationView, 0)
	for rows.Next() {
		var v store.ParticipationView
		if err := rows.Scan(
			&v.EventUUID, &v.EventTitle,
			&v.SeasonNumber, &v.EpisodeNumber, &v.SceneSequence,
			&v.EmotionalState, &v.WhatHappened, &v.Importance,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

const connectionViewColumns = `
SELECT nc.curation_uuid, nc.connection_type, nc.strength, nc.description,
	fe.curation_uuid, fe.title, te.curation_uuid, te.title
FROM narrative_connections nc
JOIN events fe ON nc.from_event_id = fe.id
JOIN events te ON nc.to_event_id = te.id
`

func scanConnectionView(row pgx.Row) (store.ConnectionView, error) {
	var v store.ConnectionView
	err := row.Scan(
		&v.UUID, &v.Type, &v.Strength, &v.Description,
		&v.FromEventUUID, &v.FromEventTitle, &v.ToEventUUID, &v.ToEventTitle,
	)
	return v, err
}

func (s *NarrativeDBStore) collectConnections(ctx context.Context, sql string, args ...any) ([]store.ConnectionView, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]store.ConnectionView, 0)
	for rows.Next() {
		v, err := scanConnectionView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

func (s *NarrativeDBStore) GetEventConnections(ctx context.Context, eventUUID string) (*store.EventConnections, error) {
	if err := s.ensureExists(ctx, "events", eventUUID); err != nil {
		return nil, err
	}

	outgoing, err := s.collectConnections(ctx,
		connectionViewColumns+`WHERE fe.curation_uuid = $1 ORDER BY nc.curation_uuid;`,
		eventUUID,
	)
	if err != nil {
		return nil, err
	}

	incoming, err := s.collectConnections(ctx,
		connectionViewColumns+`WHERE te.curation_uuid = $1 ORDER BY nc.curation_uuid;`,
		eventUUID,
	)
	if err != nil {
		return nil, err
	}

	return &store.EventConnections{Outgoing: outgoing, Incoming: incoming}, nil
}

func (s *NarrativeDBStore) GetConnection(ctx context.Context, uuid string) (*store.ConnectionView, error) {
	row := s.conn.QueryRow(ctx, connectionViewColumns+`WHERE nc.curation_uuid = $1;`, uuid)
	v, err := scanConnectionView(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *NarrativeDBStore) ListConnectionsByType(ctx context.Context, connectionType narrative.ConnectionType) ([]store.ConnectionView, error) {
	return s.collectConnections(ctx,
		connectionViewColumns+`WHERE nc.connection_type = $1 ORDER BY nc.curation_uuid;`,
		string(connectionType),
	)
}

// ensureExists distinguishes "unknown UUID" (a 404 for the API) from a
// legitimately empty result list.
func (s *NarrativeDBStore) ensureExists(ctx context.Context, table string, uuid string) error {
	var sql string
	switch table {
	case "episodes":
		sql = `SELECT 1 FROM episodes WHERE curation_uuid = $1`
	case "characters":
		sql = `SELECT 1 FROM characters WHERE curation_uuid = $1`
	case "events":
		sql = `SELECT 1 FROM events WHERE curation_uuid = $1`
	default:
		return store.ErrNotFound
	}

	var one int
	if err := s.conn.QueryRow(ctx, sql, uuid).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}
