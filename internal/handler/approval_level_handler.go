package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
	"github.com/asetdigital/plant-moc-api/pkg/response"
)

type approvalLevelService interface {
	List(ctx context.Context, activeOnly bool) ([]models.ApprovalLevel, error)
	Get(ctx context.Context, id string) (*models.ApprovalLevel, error)
	Create(ctx context.Context, req dto.CreateApprovalLevelRequest, actor models.Actor) (*models.ApprovalLevel, error)
	Update(ctx context.Context, id string, req dto.UpdateApprovalLevelRequest, actor models.Actor) (*models.ApprovalLevel, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
}

// ApprovalLevelHandler exposes the approval chain template endpoints.
type ApprovalLevelHandler struct {
	service approvalLevelService
}

// NewApprovalLevelHandler constructs the handler.
func NewApprovalLevelHandler(service approvalLevelService) *ApprovalLevelHandler {
	return &ApprovalLevelHandler{service: service}
}

// List godoc
// @Summary List approval levels in chain order
// @Tags ApprovalLevels
// @Produce json
// @Param active query bool false "Only active levels"
// @Success 200 {object} response.Envelope
// @Router /approval-levels [get]
func (h *ApprovalLevelHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	levels, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Get godoc
// @Summary Get an approval level
// @Tags ApprovalLevels
// @Produce json
// @Param id path string true "Level ID"
// @Success 200 {object} response.Envelope
// @Router /approval-levels/{id} [get]
func (h *ApprovalLevelHandler) Get(c *gin.Context) {
	level, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Create godoc
// @Summary Add an approval level to the chain template
// @Tags ApprovalLevels
// @Accept json
// @Produce json
// @Param payload body dto.CreateApprovalLevelRequest true "Level payload"
// @Success 201 {object} response.Envelope
// @Router /approval-levels [post]
func (h *ApprovalLevelHandler) Create(c *gin.Context) {
	var req dto.CreateApprovalLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	level, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// Update godoc
// @Summary Edit an approval level
// @Tags ApprovalLevels
// @Accept json
// @Produce json
// @Param id path string true "Level ID"
// @Param payload body dto.UpdateApprovalLevelRequest true "Level payload"
// @Success 200 {object} response.Envelope
// @Router /approval-levels/{id} [put]
func (h *ApprovalLevelHandler) Update(c *gin.Context) {
	var req dto.UpdateApprovalLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	level, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Delete godoc
// @Summary Remove an approval level from the template
// @Tags ApprovalLevels
// @Param id path string true "Level ID"
// @Success 204
// @Router /approval-levels/{id} [delete]
func (h *ApprovalLevelHandler) Delete(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
