package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/floodfas/internal/database"
	"github.com/stwalsh4118/floodfas/internal/models"
)

// AppraisalRepository defines the interface for snapshot persistence.
type AppraisalRepository interface {
	// Save inserts the snapshot, replacing any stored snapshot with the same ID.
	Save(ctx context.Context, s *models.Snapshot) error

	// FindByID loads a snapshot.
	// Returns nil, nil if no snapshot has the ID (not an error).
	FindByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error)

	// List returns up to limit snapshot summaries, newest first.
	List(ctx context.Context, limit int) ([]models.SnapshotSummary, error)

	// Delete removes a snapshot. Returns false if it did not exist.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type appraisalRepository struct {
	db *database.Database
}

// NewAppraisalRepository creates a new instance of AppraisalRepository.
func NewAppraisalRepository(db *database.Database) AppraisalRepository {
	return &appraisalRepository{db: db}
}

func (r *appraisalRepository) Save(ctx context.Context, s *models.Snapshot) error {
	query := `
		INSERT INTO appraisal_snapshots (id, name, level, saved_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			level = EXCLUDED.level,
			saved_at = EXCLUDED.saved_at,
			payload = EXCLUDED.payload
	`

	_, err := r.db.Pool.Exec(ctx, query, s.ID, s.Name, string(s.Level), s.SavedAt, s.Payload())
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.ID, err)
	}
	return nil
}

func (r *appraisalRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error) {
	query := `
		SELECT id, name, level, saved_at, payload
		FROM appraisal_snapshots
		WHERE id = $1
	`

	var (
		s       models.Snapshot
		level   string
		payload models.SnapshotPayload
	)
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &level, &s.SavedAt, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find snapshot %s: %w", id, err)
	}

	s.Level = models.AppraisalLevel(level)
	s.Inputs = payload.Inputs
	s.Results = payload.Results
	return &s, nil
}

func (r *appraisalRepository) List(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	query := `
		SELECT id, name, level, saved_at
		FROM appraisal_snapshots
		ORDER BY saved_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	summaries := []models.SnapshotSummary{}
	for rows.Next() {
		var (
			s     models.SnapshotSummary
			level string
		)
		if err := rows.Scan(&s.ID, &s.Name, &level, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.Level = models.AppraisalLevel(level)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return summaries, nil
}

func (r *appraisalRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM appraisal_snapshots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
