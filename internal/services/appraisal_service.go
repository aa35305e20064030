package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/stwalsh4118/floodfas/internal/elevation"
	"github.com/stwalsh4118/floodfas/internal/logger"
	"github.com/stwalsh4118/floodfas/internal/models"
	"github.com/stwalsh4118/floodfas/internal/observability"
	"github.com/stwalsh4118/floodfas/internal/repository"
)

// Listing bounds for saved snapshots.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service-level errors
var (
	ErrAppraisalNotFound = errors.New("appraisal snapshot not found")
	ErrInvalidInput      = errors.New("invalid appraisal input")
	ErrStorageDisabled   = errors.New("snapshot storage is disabled")
)

var clock = clockwork.NewRealClock()

// SetClock replaces the clock used for timings and snapshot timestamps.
// Passing nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Appraiser runs a complete detailed appraisal.
type Appraiser interface {
	Run(in models.Inputs) (*models.Results, error)
}

// ComputeRequest is a detailed appraisal run. Grids, when present, fill ground
// levels the properties do not carry.
type ComputeRequest struct {
	Inputs models.Inputs
	Grids  []*elevation.Grid
}

// Computation is the outcome of a run together with the inputs it actually used.
type Computation struct {
	Results *models.Results
	Inputs  models.Inputs
	Filled  int
}

// AppraisalService defines the business operations on detailed appraisals.
type AppraisalService interface {
	// Compute resolves missing ground levels and runs the appraisal.
	// Configuration problems are returned unchanged so callers can classify them.
	Compute(ctx context.Context, req ComputeRequest) (*Computation, error)

	// Save computes the appraisal and persists inputs and results as a snapshot.
	// Returns ErrStorageDisabled when no repository is configured.
	Save(ctx context.Context, name string, req ComputeRequest) (*models.Snapshot, error)

	// Load retrieves a saved snapshot.
	// Returns ErrAppraisalNotFound if no snapshot has the ID.
	Load(ctx context.Context, id uuid.UUID) (*models.Snapshot, error)

	// List returns saved snapshots, newest first. limit is clamped to
	// 1..MaxListLimit; zero means DefaultListLimit.
	List(ctx context.Context, limit int) ([]models.SnapshotSummary, error)

	// Delete removes a saved snapshot.
	// Returns ErrAppraisalNotFound if no snapshot has the ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

type appraisalService struct {
	engine  Appraiser
	repo    repository.AppraisalRepository
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewAppraisalService creates a new instance of AppraisalService. repo may be nil
// when snapshot storage is disabled.
func NewAppraisalService(engine Appraiser, repo repository.AppraisalRepository, metrics *observability.Metrics, log *logger.Logger) AppraisalService {
	return &appraisalService{
		engine:  engine,
		repo:    repo,
		metrics: metrics,
		log:     log.WithComponent("appraisal_service"),
	}
}

func (s *appraisalService) Compute(ctx context.Context, req ComputeRequest) (*Computation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := cloneInputs(req.Inputs)
	filled := 0
	if len(req.Grids) > 0 {
		filled = elevation.FillGroundLevels(in.Properties, req.Grids)
		s.metrics.GroundLevelsFilled.Add(float64(filled))
		s.log.Debug("Resolved ground levels from elevation grids", map[string]interface{}{
			"grids":  len(req.Grids),
			"filled": filled,
		})
	}

	start := clock.Now()
	results, err := s.engine.Run(in)
	elapsed := clock.Since(start)
	s.metrics.AppraisalDuration.Observe(elapsed.Seconds())

	if err != nil {
		outcome := "error"
		if IsConfigurationError(err) {
			outcome = "invalid"
		}
		s.metrics.Appraisals.WithLabelValues(outcome).Inc()
		s.log.Warn("Appraisal failed", map[string]interface{}{
			"outcome": outcome,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.metrics.Appraisals.WithLabelValues("success").Inc()
	s.metrics.PropertiesAppraised.WithLabelValues(string(models.Residential)).Add(float64(len(results.Damages.Residential)))
	s.metrics.PropertiesAppraised.WithLabelValues(string(models.NonResidential)).Add(float64(len(results.Damages.NonResidential)))
	for _, skipped := range results.Damages.Skipped {
		s.metrics.PropertiesSkipped.WithLabelValues(string(skipped.Reason)).Inc()
	}

	s.log.Info("Appraisal computed", map[string]interface{}{
		"properties":    len(in.Properties),
		"nodes":         len(in.Nodes),
		"skipped":       len(results.Damages.Skipped),
		"sop":           in.Config.SOP,
		"annual_damage": results.Summary.Total.AnnualDamage,
		"duration_ms":   elapsed.Milliseconds(),
	})

	return &Computation{Results: results, Inputs: in, Filled: filled}, nil
}

func (s *appraisalService) Save(ctx context.Context, name string, req ComputeRequest) (*models.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: snapshot name is required", ErrInvalidInput)
	}

	computed, err := s.Compute(ctx, req)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		ID:      uuid.New(),
		Name:    name,
		Level:   models.LevelDetailed,
		SavedAt: clock.Now().UTC(),
		Inputs:  computed.Inputs,
		Results: computed.Results,
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.log.Error("Failed to save snapshot", err, map[string]interface{}{
			"snapshot_id": snapshot.ID.String(),
		})
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.metrics.SnapshotsSaved.Inc()
	s.log.Info("Snapshot saved", map[string]interface{}{
		"snapshot_id": snapshot.ID.String(),
		"name":        snapshot.Name,
	})
	return snapshot, nil
}

func (s *appraisalService) Load(ctx context.Context, id uuid.UUID) (*models.Snapshot, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}

	snapshot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to load snapshot", err, map[string]interface{}{
			"snapshot_id": id.String(),
		})
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: %s", ErrAppraisalNotFound, id)
	}
	return snapshot, nil
}

func (s *appraisalService) List(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}

	switch {
	case limit == 0:
		limit = DefaultListLimit
	case limit < 1:
		limit = 1
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	summaries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return summaries, nil
}

func (s *appraisalService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return ErrStorageDisabled
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrAppraisalNotFound, id)
	}

	s.log.Info("Snapshot deleted", map[string]interface{}{"snapshot_id": id.String()})
	return nil
}

// cloneInputs copies the slices the service may modify so callers keep their inputs.
func cloneInputs(in models.Inputs) models.Inputs {
	out := in
	out.Properties = append([]models.Property(nil), in.Properties...)
	out.Nodes = append([]models.Node(nil), in.Nodes...)
	return out
}
