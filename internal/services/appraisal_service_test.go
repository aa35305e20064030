package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stwalsh4118/floodfas/internal/appraisal"
	"github.com/stwalsh4118/floodfas/internal/curves"
	"github.com/stwalsh4118/floodfas/internal/elevation"
	"github.com/stwalsh4118/floodfas/internal/logger"
	"github.com/stwalsh4118/floodfas/internal/models"
	"github.com/stwalsh4118/floodfas/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockAppraisalRepository is a mock implementation of AppraisalRepository for testing
type MockAppraisalRepository struct {
	mock.Mock
}

func (m *MockAppraisalRepository) Save(ctx context.Context, s *models.Snapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockAppraisalRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Snapshot, error) {
	args := m.Called(ctx, id)
	snapshot, _ := args.Get(0).(*models.Snapshot)
	return snapshot, args.Error(1)
}

func (m *MockAppraisalRepository) List(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	args := m.Called(ctx, limit)
	summaries, _ := args.Get(0).([]models.SnapshotSummary)
	return summaries, args.Error(1)
}

func (m *MockAppraisalRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func fp(v float64) *float64 { return &v }

func newTestService(t *testing.T, repo *MockAppraisalRepository) (AppraisalService, *observability.Metrics) {
	t.Helper()
	store, err := curves.Load()
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	engine := appraisal.NewEngine(store, logger.Nop(), 2)
	if repo == nil {
		return NewAppraisalService(engine, nil, metrics, logger.Nop()), metrics
	}
	return NewAppraisalService(engine, repo, metrics, logger.Nop()), metrics
}

// millLane has one residential property without a surveyed ground level beside a
// single node.
func millLane() models.Inputs {
	depths := []*float64{fp(9.5), fp(9.8), fp(10.1), fp(10.4), fp(10.7), fp(10.9), fp(11.6)}
	return models.Inputs{
		Config: models.DefaultFloodEventConfig(),
		Properties: []models.Property{{
			ID: uuid.New(), Class: models.Residential, Address: "1 Mill Lane",
			MCM: 11, Included: true,
		}},
		Nodes: []models.Node{{ID: uuid.New(), Depths: depths, Included: true}},
	}
}

func flatGrid(t *testing.T, level string) *elevation.Grid {
	t.Helper()
	body := "ncols 2\nnrows 2\nxllcorner -5\nyllcorner -5\ncellsize 10\nNODATA_value -9999\n" +
		level + " " + level + "\n" + level + " " + level + "\n"
	grid, err := elevation.ParseASCII("survey.asc", strings.NewReader(body))
	require.NoError(t, err)
	return grid
}

func TestCompute_FillsGroundLevelsFromGrids(t *testing.T) {
	// Arrange
	service, metrics := newTestService(t, nil)
	in := millLane()

	// Act
	computed, err := service.Compute(context.Background(), ComputeRequest{
		Inputs: in,
		Grids:  []*elevation.Grid{flatGrid(t, "10")},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, computed.Filled)
	require.NotNil(t, computed.Inputs.Properties[0].GroundLevel)
	assert.Equal(t, 10.0, *computed.Inputs.Properties[0].GroundLevel)
	assert.Nil(t, in.Properties[0].GroundLevel, "caller inputs must not change")

	require.Len(t, computed.Results.Damages.Residential, 1)
	assert.Empty(t, computed.Results.Damages.Skipped)
	assert.Greater(t, computed.Results.Summary.Total.AnnualDamage, 0.0)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GroundLevelsFilled))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Appraisals.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PropertiesAppraised.WithLabelValues("residential")))
}

func TestCompute_UnresolvedGroundLevelIsSkipped(t *testing.T) {
	// Arrange
	service, metrics := newTestService(t, nil)

	// Act
	computed, err := service.Compute(context.Background(), ComputeRequest{Inputs: millLane()})

	// Assert
	require.NoError(t, err)
	assert.Zero(t, computed.Filled)
	require.Len(t, computed.Results.Damages.Skipped, 1)
	assert.Equal(t, models.SkipGroundLevelUnresolved, computed.Results.Damages.Skipped[0].Reason)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PropertiesSkipped.WithLabelValues(string(models.SkipGroundLevelUnresolved))))
}

func TestCompute_InvalidConfiguration(t *testing.T) {
	// Arrange
	service, metrics := newTestService(t, nil)
	in := millLane()
	in.Config.ReturnPeriods = []int{10, 5}

	// Act
	computed, err := service.Compute(context.Background(), ComputeRequest{Inputs: in})

	// Assert
	assert.Nil(t, computed)
	assert.ErrorIs(t, err, models.ErrReturnPeriods)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Appraisals.WithLabelValues("invalid")))
}

func TestCompute_InvalidPropertyIsValidationError(t *testing.T) {
	// Arrange
	service, _ := newTestService(t, nil)
	in := millLane()
	in.Properties[0].MCM = 8

	// Act
	_, err := service.Compute(context.Background(), ComputeRequest{Inputs: in})

	// Assert
	require.Error(t, err)
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, "mcm", verrs[0].Tag())
}

func TestCompute_CancelledContext(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Compute(ctx, ComputeRequest{Inputs: millLane()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSave_Success(t *testing.T) {
	// Arrange
	fake := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	mockRepo := new(MockAppraisalRepository)
	service, metrics := newTestService(t, mockRepo)
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.Snapshot")).Return(nil)

	// Act
	snapshot, err := service.Save(context.Background(), "  Mill Lane baseline ", ComputeRequest{
		Inputs: millLane(),
		Grids:  []*elevation.Grid{flatGrid(t, "10")},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Mill Lane baseline", snapshot.Name)
	assert.Equal(t, models.LevelDetailed, snapshot.Level)
	assert.Equal(t, fake.Now(), snapshot.SavedAt)
	assert.NotEqual(t, uuid.Nil, snapshot.ID)
	require.NotNil(t, snapshot.Inputs.Properties[0].GroundLevel)
	require.NotNil(t, snapshot.Results)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsSaved))
	mockRepo.AssertExpectations(t)
}

func TestSave_RequiresName(t *testing.T) {
	mockRepo := new(MockAppraisalRepository)
	service, _ := newTestService(t, mockRepo)

	_, err := service.Save(context.Background(), "   ", ComputeRequest{Inputs: millLane()})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, IsConfigurationError(err))
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSave_RepositoryError(t *testing.T) {
	mockRepo := new(MockAppraisalRepository)
	service, metrics := newTestService(t, mockRepo)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := service.Save(context.Background(), "baseline", ComputeRequest{Inputs: millLane()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, testutil.ToFloat64(metrics.SnapshotsSaved))
}

func TestStorageDisabled(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := service.Save(ctx, "baseline", ComputeRequest{Inputs: millLane()})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = service.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = service.List(ctx, 0)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	assert.ErrorIs(t, service.Delete(ctx, uuid.New()), ErrStorageDisabled)
}

func TestLoad_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockAppraisalRepository)
	service, _ := newTestService(t, mockRepo)
	id := uuid.New()
	expected := &models.Snapshot{ID: id, Name: "baseline", Level: models.LevelDetailed}
	mockRepo.On("FindByID", mock.Anything, id).Return(expected, nil)

	// Act
	snapshot, err := service.Load(context.Background(), id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, snapshot)
	mockRepo.AssertExpectations(t)
}

func TestLoad_NotFound(t *testing.T) {
	mockRepo := new(MockAppraisalRepository)
	service, _ := newTestService(t, mockRepo)
	id := uuid.New()

	// Repository returns nil, nil when no snapshot found
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

	snapshot, err := service.Load(context.Background(), id)

	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrAppraisalNotFound)
}

func TestLoad_RepositoryError(t *testing.T) {
	mockRepo := new(MockAppraisalRepository)
	service, _ := newTestService(t, mockRepo)
	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, errors.New("database connection failed"))

	_, err := service.Load(context.Background(), id)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAppraisalNotFound)
	assert.Contains(t, err.Error(), "database connection failed")
}

func TestList_ClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default", 0, DefaultListLimit},
		{"negative", -3, 1},
		{"too large", 10000, MaxListLimit},
		{"in range", 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAppraisalRepository)
			service, _ := newTestService(t, mockRepo)
			mockRepo.On("List", mock.Anything, tt.want).Return([]models.SnapshotSummary{}, nil)

			summaries, err := service.List(context.Background(), tt.limit)

			require.NoError(t, err)
			assert.Empty(t, summaries)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestDelete(t *testing.T) {
	mockRepo := new(MockAppraisalRepository)
	service, _ := newTestService(t, mockRepo)
	present, missing := uuid.New(), uuid.New()
	mockRepo.On("Delete", mock.Anything, present).Return(true, nil)
	mockRepo.On("Delete", mock.Anything, missing).Return(false, nil)

	assert.NoError(t, service.Delete(context.Background(), present))
	assert.ErrorIs(t, service.Delete(context.Background(), missing), ErrAppraisalNotFound)
}

func TestIsConfigurationError(t *testing.T) {
	assert.True(t, IsConfigurationError(models.ErrDepthCountMismatch))
	assert.True(t, IsConfigurationError(appraisal.ErrSchemeLifetime))
	assert.True(t, IsConfigurationError(curves.ErrCurveNotFound))
	assert.False(t, IsConfigurationError(errors.New("connection refused")))
	assert.False(t, IsConfigurationError(ErrStorageDisabled))
}
