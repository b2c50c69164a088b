// Package handlers contains the gin HTTP handlers of the risk engine.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanyield/riskengine/internal/application"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/pkg/errors"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// RiskHandler serves the /risk surface.
type RiskHandler struct {
	simulation application.SimulationService
	grading    application.GradingService
	export     application.ExportService
	log        logger.Logger
}

// NewRiskHandler creates the handler.
func NewRiskHandler(
	simulation application.SimulationService,
	grading application.GradingService,
	export application.ExportService,
	log logger.Logger,
) *RiskHandler {
	return &RiskHandler{
		simulation: simulation,
		grading:    grading,
		export:     export,
		log:        log.WithComponent("RiskHandler"),
	}
}

// GetRiskResult returns the latest RiskResult for a property.
// GET /api/v1/risk/:property_id
func (h *RiskHandler) GetRiskResult(c *gin.Context) {
	propertyID := c.Param("property_id")
	result, err := h.simulation.GetRiskResult(c.Request.Context(), propertyID)
	if err != nil {
		h.handleError(c, err, "get_risk_result")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunSimulation triggers a run followed by grade computation.
// POST /api/v1/risk/:property_id/run-simulation
func (h *RiskHandler) RunSimulation(c *gin.Context) {
	propertyID := c.Param("property_id")
	result, err := h.simulation.RunSimulation(c.Request.Context(), propertyID)
	if err != nil {
		h.handleError(c, err, "run_simulation")
		return
	}

	// The run already graded in-transaction; the standalone computation is
	// idempotent and keeps the trigger contract: run, then grade.
	assessment, err := h.grading.ComputeRiskGrade(c.Request.Context(), propertyID)
	if err != nil {
		h.handleError(c, err, "compute_risk_grade")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"assessment": assessment,
	})
}

// batchRequest is the body of a batch trigger.
type batchRequest struct {
	PropertyIDs []string `json:"property_ids" binding:"required,min=1"`
}

// RunBatchSimulation triggers independent runs for a list of properties.
// POST /api/v1/risk/run-batch
func (h *RiskHandler) RunBatchSimulation(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, errors.ErrInvalidRequest(err.Error()), "run_batch")
		return
	}
	report, err := h.simulation.RunBatchSimulation(c.Request.Context(), req.PropertyIDs)
	if err != nil {
		h.handleError(c, err, "run_batch")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportSimulationResults streams the reconstructed dataset as an attachment.
// GET /api/v1/risk/:property_id/export
func (h *RiskHandler) ExportSimulationResults(c *gin.Context) {
	propertyID := c.Param("property_id")
	export, err := h.export.ExportSimulationResults(c.Request.Context(), propertyID)
	if err != nil {
		h.handleError(c, err, "export")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Header("X-Row-Count", fmt.Sprintf("%d", export.RowCount))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// GetGradeHistory returns the transition history for a property.
// GET /api/v1/risk/:property_id/history
func (h *RiskHandler) GetGradeHistory(c *gin.Context) {
	propertyID := c.Param("property_id")
	rows, err := h.grading.GradeHistory(c.Request.Context(), propertyID)
	if err != nil {
		h.handleError(c, err, "grade_history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "history": rows})
}

// GetGradeDistribution returns property counts per grade.
// GET /api/v1/risk/distribution
func (h *RiskHandler) GetGradeDistribution(c *gin.Context) {
	dist, err := h.grading.GradeDistribution(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "grade_distribution")
		return
	}
	c.JSON(http.StatusOK, dist)
}

// ListPropertiesAtGrade lists properties currently at a grade.
// GET /api/v1/risk/grade/:grade
func (h *RiskHandler) ListPropertiesAtGrade(c *gin.Context) {
	grade, err := models.ParseRiskGrade(c.Param("grade"))
	if err != nil {
		h.handleError(c, errors.ErrInvalidRequest(err.Error()), "list_by_grade")
		return
	}
	props, err := h.grading.PropertiesAtGrade(c.Request.Context(), grade)
	if err != nil {
		h.handleError(c, err, "list_by_grade")
		return
	}
	c.JSON(http.StatusOK, gin.H{"grade": grade, "properties": props})
}

func (h *RiskHandler) handleError(c *gin.Context, err error, operation string) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "risk operation failed", err,
			logger.Fields{"operation": operation})
	} else {
		h.log.Warn(c.Request.Context(), "risk operation rejected",
			logger.Fields{"operation": operation, "error": err.Error()})
	}
	c.JSON(status, errors.ToErrorResponse(err))
}
