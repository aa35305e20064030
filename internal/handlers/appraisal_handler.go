package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stwalsh4118/floodfas/internal/elevation"
	apierrors "github.com/stwalsh4118/floodfas/internal/errors"
	"github.com/stwalsh4118/floodfas/internal/export"
	"github.com/stwalsh4118/floodfas/internal/middleware"
	"github.com/stwalsh4118/floodfas/internal/models"
	"github.com/stwalsh4118/floodfas/internal/services"
)

// AppraisalHandler handles detailed appraisal HTTP requests.
type AppraisalHandler struct {
	service  services.AppraisalService
	defaults models.FloodEventConfig
}

// NewAppraisalHandler creates a new AppraisalHandler. defaults is used for requests
// that carry no configuration.
func NewAppraisalHandler(service services.AppraisalService, defaults models.FloodEventConfig) *AppraisalHandler {
	return &AppraisalHandler{
		service:  service,
		defaults: defaults,
	}
}

// GridUpload is an ESRI ASCII elevation grid sent inline.
type GridUpload struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ComputeRequest represents the body of the compute endpoint.
type ComputeRequest struct {
	Config     *models.FloodEventConfig `json:"config"`
	Properties []models.Property        `json:"properties" binding:"required"`
	Nodes      []models.Node            `json:"nodes"`
	Grids      []GridUpload             `json:"grids" binding:"omitempty,dive"`
}

// SaveRequest represents the body of the save endpoint.
type SaveRequest struct {
	Name string `json:"name" binding:"required"`
	ComputeRequest
}

// ComputeResponse represents the response for the compute endpoint.
type ComputeResponse struct {
	Results            *models.Results `json:"results"`
	GroundLevelsFilled int             `json:"ground_levels_filled"`
}

// SaveResponse represents the response for the save endpoint.
type SaveResponse struct {
	SavedAt time.Time `json:"saved_at"`
	ID      string    `json:"id"`
	Name    string    `json:"name"`
}

// ListResponse represents the response for the list endpoint.
type ListResponse struct {
	Snapshots []models.SnapshotSummary `json:"snapshots"`
	Count     int                      `json:"count"`
}

// Compute handles POST /api/v1/appraisals/detailed/compute endpoint.
func (h *AppraisalHandler) Compute(c *gin.Context) {
	var req ComputeRequest
	if !h.bind(c, &req) {
		return
	}

	computeReq, ok := h.toServiceRequest(c, req)
	if !ok {
		return
	}

	computed, err := h.service.Compute(c.Request.Context(), computeReq)
	if err != nil {
		h.respondError(c, err, "Failed to compute appraisal")
		return
	}

	c.JSON(http.StatusOK, ComputeResponse{
		Results:            computed.Results,
		GroundLevelsFilled: computed.Filled,
	})
}

// Save handles POST /api/v1/appraisals endpoint.
// It computes the appraisal and stores inputs and results as a snapshot.
func (h *AppraisalHandler) Save(c *gin.Context) {
	var req SaveRequest
	if !h.bind(c, &req) {
		return
	}

	computeReq, ok := h.toServiceRequest(c, req.ComputeRequest)
	if !ok {
		return
	}

	snapshot, err := h.service.Save(c.Request.Context(), req.Name, computeReq)
	if err != nil {
		h.respondError(c, err, "Failed to save appraisal")
		return
	}

	c.JSON(http.StatusCreated, SaveResponse{
		ID:      snapshot.ID.String(),
		Name:    snapshot.Name,
		SavedAt: snapshot.SavedAt,
	})
}

// List handles GET /api/v1/appraisals endpoint.
func (h *AppraisalHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.BadRequest(c, "limit must be an integer", map[string]interface{}{"limit": raw})
			return
		}
		limit = parsed
	}

	summaries, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "Failed to list appraisals")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Snapshots: summaries, Count: len(summaries)})
}

// Get handles GET /api/v1/appraisals/:id endpoint.
func (h *AppraisalHandler) Get(c *gin.Context) {
	snapshot, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Delete handles DELETE /api/v1/appraisals/:id endpoint.
func (h *AppraisalHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete appraisal")
		return
	}
	c.Status(http.StatusNoContent)
}

// SummaryCSV handles GET /api/v1/appraisals/:id/summary.csv endpoint.
func (h *AppraisalHandler) SummaryCSV(c *gin.Context) {
	snapshot, ok := h.load(c)
	if !ok {
		return
	}
	if snapshot.Results == nil {
		apierrors.NotFound(c, "Appraisal has no results")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "summary.csv"))
	c.Status(http.StatusOK)
	if err := export.SummaryTable(snapshot.Results.Summary).WriteCSV(c.Writer); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Failed to write summary export", err, map[string]interface{}{
				"snapshot_id": snapshot.ID.String(),
			})
		}
	}
}

func (h *AppraisalHandler) load(c *gin.Context) (*models.Snapshot, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}

	snapshot, err := h.service.Load(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to load appraisal")
		return nil, false
	}
	return snapshot, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid appraisal id", map[string]interface{}{"id": c.Param("id")})
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes the JSON body, responding with the matching error on failure.
func (h *AppraisalHandler) bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		apierrors.ValidationError(c, validationErrors)
	case errors.Is(err, models.ErrInvalidEnum):
		apierrors.ConfigurationError(c, err.Error(), nil)
	default:
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{"reason": err.Error()})
	}
	return false
}

// toServiceRequest applies the default configuration and parses inline grids.
func (h *AppraisalHandler) toServiceRequest(c *gin.Context, req ComputeRequest) (services.ComputeRequest, bool) {
	cfg := h.defaults
	cfg.ReturnPeriods = append([]int(nil), h.defaults.ReturnPeriods...)
	if req.Config != nil {
		cfg = *req.Config
	}

	out := services.ComputeRequest{
		Inputs: models.Inputs{
			Properties: req.Properties,
			Nodes:      req.Nodes,
			Config:     cfg,
		},
	}

	for _, upload := range req.Grids {
		grid, err := elevation.ParseASCII(upload.Name, strings.NewReader(upload.Content))
		if err != nil {
			apierrors.BadRequest(c, "Invalid elevation grid", map[string]interface{}{
				"grid":   upload.Name,
				"reason": err.Error(),
			})
			return services.ComputeRequest{}, false
		}
		out.Grids = append(out.Grids, grid)
	}

	return out, true
}

// respondError maps service errors onto API error responses.
func (h *AppraisalHandler) respondError(c *gin.Context, err error, message string) {
	if validationErrors, ok := services.AsValidationErrors(err); ok {
		apierrors.ValidationError(c, validationErrors)
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		apierrors.BadRequest(c, err.Error(), nil)
	case services.IsConfigurationError(err):
		apierrors.ConfigurationError(c, err.Error(), nil)
	case errors.Is(err, services.ErrAppraisalNotFound):
		apierrors.NotFound(c, "Appraisal not found")
	case errors.Is(err, services.ErrStorageDisabled):
		apierrors.ServiceUnavailable(c, "Snapshot storage is not enabled")
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
