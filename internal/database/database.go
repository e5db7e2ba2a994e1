package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
)

// Service is the round archive backed by Postgres.
type Service interface {
	// Health returns a map of health status information.
	Health(ctx context.Context) map[string]string

	// ArchiveRound stores the transcript of a finished round.
	ArchiveRound(ctx context.Context, result internal.RoundResult) error

	// Recent returns the latest archived rounds of a room, newest first.
	Recent(ctx context.Context, code string, limit int) ([]internal.RoundResult, error)

	// Close terminates the connection pool.
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id          BIGSERIAL PRIMARY KEY,
	code        TEXT        NOT NULL,
	round       INTEGER     NOT NULL,
	secret      TEXT        NOT NULL,
	winner_id   TEXT,
	winner_name TEXT        NOT NULL DEFAULT '',
	message     TEXT        NOT NULL DEFAULT '',
	asked_count INTEGER     NOT NULL DEFAULT 0,
	transcript  JSONB       NOT NULL,
	ended_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS rounds_code_ended_at ON rounds (code, ended_at DESC);
`

type transcript struct {
	Questions []internal.Question `json:"questions"`
	Guesses   []internal.Guess    `json:"guesses"`
}

// New connects to databaseURL and makes sure the schema exists.
func New(ctx context.Context, databaseURL string) (Service, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("connected to round archive")
	return &service{pool: pool}, nil
}

func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("database health check failed")
		return stats
	}

	pool := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = fmt.Sprint(pool.TotalConns())
	stats["idle_connections"] = fmt.Sprint(pool.IdleConns())
	stats["acquired_connections"] = fmt.Sprint(pool.AcquiredConns())
	return stats
}

func (s *service) ArchiveRound(ctx context.Context, result internal.RoundResult) error {
	body, err := json.Marshal(transcript{Questions: result.Questions, Guesses: result.Guesses})
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rounds (code, round, secret, winner_id, winner_name, message, asked_count, transcript, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.Code, result.Round, result.Secret, result.WinnerID, result.WinnerName,
		result.Message, result.AskedCount, body, result.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	log.Debug().Str("room", result.Code).Int("round", result.Round).Msg("round archived")
	return nil
}

func (s *service) Recent(ctx context.Context, code string, limit int) ([]internal.RoundResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, round, secret, winner_id, winner_name, message, asked_count, transcript, ended_at
		FROM rounds WHERE code = $1 ORDER BY ended_at DESC, id DESC LIMIT $2`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	results := make([]internal.RoundResult, 0)
	for rows.Next() {
		var (
			r    internal.RoundResult
			body []byte
		)
		if err := rows.Scan(&r.Code, &r.Round, &r.Secret, &r.WinnerID, &r.WinnerName,
			&r.Message, &r.AskedCount, &body, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		var t transcript
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		r.Questions, r.Guesses = t.Questions, t.Guesses
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *service) Close() {
	log.Info().Msg("disconnected from round archive")
	s.pool.Close()
}
