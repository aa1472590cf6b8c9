package feed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/skimread/skim/internal/scroll"
)

// Item is one entry of the feed, ordered by Ordinal.
type Item struct {
	ID        string `json:"id"`
	Ordinal   int64  `json:"ordinal"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Service interface {
	// Page returns up to size items starting at offset, in feed order.
	Page(ctx context.Context, size, offset int) ([]Item, error)
	Count(ctx context.Context) (int64, error)
	// Seed appends count generated items to the feed and returns how many
	// the feed holds afterwards.
	Seed(ctx context.Context, count int) (int64, error)
}

type service struct {
	db *sql.DB
}

func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Page(ctx context.Context, size, offset int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ordinal, title, body, created_at
		FROM feed_items
		ORDER BY ordinal
		LIMIT ? OFFSET ?`, size, offset)
	if err != nil {
		return nil, fmt.Errorf("feed: query page: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Ordinal, &it.Title, &it.Body, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("feed: scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feed: read page: %w", err)
	}
	return items, nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("feed: count items: %w", err)
	}
	return n, nil
}

func (s *service) Seed(ctx context.Context, count int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("feed: begin seed: %w", err)
	}
	defer tx.Rollback()

	var next sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(ordinal) + 1 FROM feed_items`).Scan(&next); err != nil {
		return 0, fmt.Errorf("feed: next ordinal: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_items (id, ordinal, title, body)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("feed: prepare seed: %w", err)
	}
	defer stmt.Close()

	for i := range count {
		ordinal := next.Int64 + int64(i)
		title := fmt.Sprintf("Entry %d", ordinal)
		body := fmt.Sprintf("Generated feed entry number %d.", ordinal)
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), ordinal, title, body); err != nil {
			return 0, fmt.Errorf("feed: insert item %d: %w", ordinal, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("feed: commit seed: %w", err)
	}
	return s.Count(ctx)
}

// Source adapts the service to the scroll engine's paginated source contract.
func Source(svc Service) scroll.Source[Item] {
	return scroll.SourceFunc[Item](func(ctx context.Context, size, offset int) ([]Item, error) {
		return svc.Page(ctx, size, offset)
	})
}
