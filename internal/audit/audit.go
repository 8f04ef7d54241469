// Package audit keeps a ledger of analysis requests and their outcomes.
// Content is never stored, only its size.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertTimeout = 2 * time.Second

// Entry is one analysis request outcome.
type Entry struct {
	RequestID     string
	UserID        string
	Type          string
	Language      string
	ContentLength int
	Status        int
	Outcome       string // "streamed", "rejected", "upstream_error", ...
	FilterAction  string
	DurationMs    int64
	CreatedAt     time.Time
}

// Recorder accepts entries without blocking the request path.
type Recorder interface {
	Record(e Entry)
}

// Nop discards entries. Used when the database is disabled.
type Nop struct{}

func (Nop) Record(Entry) {}

// Store writes entries to PostgreSQL asynchronously. Failed inserts are
// logged and dropped.
type Store struct {
	pool *pgxpool.Pool
	wg   sync.WaitGroup
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Record inserts e in the background.
func (s *Store) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		if err := s.insert(ctx, e); err != nil {
			slog.Error("audit insert failed", "request_id", e.RequestID, "error", err)
		}
	}()
}

func (s *Store) insert(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analysis_requests
			(request_id, user_id, analysis_type, language, content_length, status_code, outcome, filter_action, duration_ms, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, $10)`,
		e.RequestID,
		e.UserID,
		e.Type,
		e.Language,
		e.ContentLength,
		e.Status,
		e.Outcome,
		e.FilterAction,
		e.DurationMs,
		e.CreatedAt,
	)
	return err
}

// Wait blocks until pending inserts finish or ctx is done.
func (s *Store) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("audit writes still pending at shutdown")
	}
}
