package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// ErrMatchExists is returned when saving a match whose ID is already stored.
var ErrMatchExists = errors.New("match already stored")

// MatchRecord summarises one finished match.
type MatchRecord struct {
	ID        uuid.UUID
	Mode      string
	WallMap   string
	Seed      int64
	Winner    string // empty when no side won
	Rounds    int
	StartedAt time.Time
	EndedAt   time.Time
}

// EventRecord is one engine event of a match, in delivery order.
type EventRecord struct {
	Seq     int
	Kind    string
	Round   int
	Turn    int
	Team    string
	Payload []byte // JSON document
}

// MatchRepository persists match summaries and their event logs.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// SaveMatch stores m and its events in one transaction.
//
// Precondition: m.ID must be set; events must have distinct Seq values.
// Postcondition: Either the match and every event are stored or nothing is;
// returns ErrMatchExists when m.ID is already present.
func (r *MatchRepository) SaveMatch(ctx context.Context, m MatchRecord, events []EventRecord) error {
	if m.EndedAt.IsZero() {
		m.EndedAt = time.Now()
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO matches (id, mode, wall_map, seed, winner, rounds, started_at, ended_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			m.ID, m.Mode, m.WallMap, m.Seed, m.Winner, m.Rounds, m.StartedAt, m.EndedAt,
		); err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		rows := make([][]any, len(events))
		for i, ev := range events {
			payload := ev.Payload
			if len(payload) == 0 {
				payload = []byte("{}")
			}
			rows[i] = []any{m.ID, ev.Seq, ev.Kind, ev.Round, ev.Turn, ev.Team, payload}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"match_events"},
			[]string{"match_id", "seq", "kind", "round", "turn", "team", "payload"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrMatchExists
		}
		return fmt.Errorf("saving match %s: %w", m.ID, err)
	}
	return nil
}

// GetMatch retrieves a match summary by ID.
//
// Postcondition: Returns the record or ErrMatchNotFound.
func (r *MatchRepository) GetMatch(ctx context.Context, id uuid.UUID) (*MatchRecord, error) {
	var m MatchRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, mode, wall_map, seed, winner, rounds, started_at, ended_at
		FROM matches WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Mode, &m.WallMap, &m.Seed, &m.Winner, &m.Rounds, &m.StartedAt, &m.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("querying match: %w", err)
	}
	return &m, nil
}

// Events returns the event log of a match ordered by Seq.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MatchRepository) Events(ctx context.Context, id uuid.UUID) ([]EventRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT seq, kind, round, turn, team, payload
		FROM match_events WHERE match_id = $1 ORDER BY seq ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing match events: %w", err)
	}
	defer rows.Close()

	events := make([]EventRecord, 0)
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.Seq, &ev.Kind, &ev.Round, &ev.Turn, &ev.Team, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scanning match event row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecentMatches returns up to limit summaries, most recently ended first.
//
// Precondition: limit must be > 0.
func (r *MatchRepository) RecentMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, mode, wall_map, seed, winner, rounds, started_at, ended_at
		FROM matches ORDER BY ended_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	out := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.ID, &m.Mode, &m.WallMap, &m.Seed, &m.Winner, &m.Rounds, &m.StartedAt, &m.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
