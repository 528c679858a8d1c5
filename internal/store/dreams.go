package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/somniary/somniary/internal/dream"
)

const dreamColumns = `id, user_id, title, content, dream_date, emotions, symbols, settings,
	characters, lucidity, tags, recurring, nightmare, sleep_quality, life_situation, created_at, updated_at`

func (s *Store) CreateDream(ctx context.Context, d *dream.Dream) error {
	d.ID = uuid.New()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	emotions, symbols, characters, err := marshalDreamJSON(d)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO dreams (id, user_id, title, content, dream_date, emotions, symbols, settings,
			characters, lucidity, tags, recurring, nightmare, sleep_quality, life_situation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		d.ID, d.UserID, d.Title, d.Content, d.DreamDate, emotions, symbols, d.Settings,
		characters, d.Lucidity, d.Tags, d.Recurring, d.Nightmare, d.SleepQuality, d.LifeSituation, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dream: %w", err)
	}
	return nil
}

func (s *Store) UpdateDream(ctx context.Context, d *dream.Dream) error {
	d.UpdatedAt = time.Now().UTC()

	emotions, symbols, characters, err := marshalDreamJSON(d)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE dreams SET title = $1, content = $2, dream_date = $3, emotions = $4, symbols = $5,
			settings = $6, characters = $7, lucidity = $8, tags = $9, recurring = $10, nightmare = $11,
			sleep_quality = $12, life_situation = $13, updated_at = $14
		WHERE id = $15 AND user_id = $16`,
		d.Title, d.Content, d.DreamDate, emotions, symbols,
		d.Settings, characters, d.Lucidity, d.Tags, d.Recurring, d.Nightmare,
		d.SleepQuality, d.LifeSituation, d.UpdatedAt, d.ID, d.UserID,
	)
	if err != nil {
		return fmt.Errorf("update dream: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetDream(ctx context.Context, id, userID uuid.UUID) (*dream.Dream, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+dreamColumns+`
		FROM dreams WHERE id = $1 AND user_id = $2`, id, userID)
	return scanDream(row)
}

// ListDreams returns a page of the user's dreams, most recent first.
func (s *Store) ListDreams(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dream.Dream, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+dreamColumns+`
		FROM dreams WHERE user_id = $1
		ORDER BY dream_date DESC, created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}
	defer rows.Close()
	return collectDreams(rows)
}

// RecentDreams returns up to limit dreams, most recent first, excluding one id
// (the dream currently being analyzed).
func (s *Store) RecentDreams(ctx context.Context, userID, excludeID uuid.UUID, limit int) ([]dream.Dream, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+dreamColumns+`
		FROM dreams WHERE user_id = $1 AND id <> $2
		ORDER BY dream_date DESC, created_at DESC
		LIMIT $3`, userID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent dreams: %w", err)
	}
	defer rows.Close()
	return collectDreams(rows)
}

func (s *Store) CountDreams(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM dreams WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count dreams: %w", err)
	}
	return count, nil
}

// DeleteDream removes a dream and its analysis in one transaction.
func (s *Store) DeleteDream(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM analyses WHERE dream_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM dreams WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete dream: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DreamExists reports whether the dream is still present. The generator checks
// this right before persisting so a dream deleted mid-generation does not end
// up with an orphaned analysis.
func (s *Store) DreamExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dreams WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dream exists: %w", err)
	}
	return exists, nil
}

func marshalDreamJSON(d *dream.Dream) (emotions, symbols, characters []byte, err error) {
	if emotions, err = json.Marshal(d.Emotions); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal emotions: %w", err)
	}
	if symbols, err = json.Marshal(d.Symbols); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal symbols: %w", err)
	}
	if characters, err = json.Marshal(d.Characters); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal characters: %w", err)
	}
	return emotions, symbols, characters, nil
}

func scanDream(row pgx.Row) (*dream.Dream, error) {
	var d dream.Dream
	var emotions, symbols, characters []byte

	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.DreamDate, &emotions, &symbols, &d.Settings,
		&characters, &d.Lucidity, &d.Tags, &d.Recurring, &d.Nightmare, &d.SleepQuality, &d.LifeSituation, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dream: %w", err)
	}

	if err := json.Unmarshal(emotions, &d.Emotions); err != nil {
		return nil, fmt.Errorf("unmarshal emotions: %w", err)
	}
	if err := json.Unmarshal(symbols, &d.Symbols); err != nil {
		return nil, fmt.Errorf("unmarshal symbols: %w", err)
	}
	if err := json.Unmarshal(characters, &d.Characters); err != nil {
		return nil, fmt.Errorf("unmarshal characters: %w", err)
	}
	return &d, nil
}

func collectDreams(rows pgx.Rows) ([]dream.Dream, error) {
	var dreams []dream.Dream
	for rows.Next() {
		d, err := scanDream(rows)
		if err != nil {
			return nil, err
		}
		dreams = append(dreams, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return dreams, nil
}
