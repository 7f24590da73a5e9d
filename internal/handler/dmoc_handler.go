package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
	"github.com/asetdigital/plant-moc-api/pkg/response"
)

type dmocService interface {
	CreateDraft(ctx context.Context, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error)
	UpdateDraft(ctx context.Context, id string, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error)
	Submit(ctx context.Context, id string, actor models.Actor) (*models.DmocRequest, error)
	Approve(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error)
	Reject(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error)
	AppendRemarks(ctx context.Context, id string, req dto.DmocDecisionRequest, actor models.Actor) (*models.DmocRequest, error)
	Get(ctx context.Context, id string) (*models.DmocRequest, error)
	List(ctx context.Context, query dto.DmocQuery) ([]models.DmocRequest, *models.Pagination, error)
	DeleteDraft(ctx context.Context, id string, actor models.Actor) error
}

// DmocHandler exposes REST endpoints for departmental MOC workflows.
type DmocHandler struct {
	service dmocService
}

// NewDmocHandler constructs the handler.
func NewDmocHandler(service dmocService) *DmocHandler {
	return &DmocHandler{service: service}
}

// Create godoc
// @Summary Open a new DMOC draft
// @Tags DMOC
// @Accept json
// @Produce json
// @Param payload body dto.DmocDraftRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Router /dmoc-requests [post]
func (h *DmocHandler) Create(c *gin.Context) {
	h.upsert(c, func(ctx context.Context, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error) {
		return h.service.CreateDraft(ctx, req, actor)
	}, http.StatusCreated)
}

// Update godoc
// @Summary Edit a DMOC draft
// @Tags DMOC
// @Accept json
// @Produce json
// @Param id path string true "DMOC ID"
// @Param payload body dto.DmocDraftRequest true "Draft payload"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id} [put]
func (h *DmocHandler) Update(c *gin.Context) {
	h.upsert(c, func(ctx context.Context, req dto.DmocDraftRequest, actor models.Actor) (*models.DmocRequest, error) {
		return h.service.UpdateDraft(ctx, c.Param("id"), req, actor)
	}, http.StatusOK)
}

// Submit godoc
// @Summary Submit a DMOC draft for review
// @Tags DMOC
// @Produce json
// @Param id path string true "DMOC ID"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id}/submit [post]
func (h *DmocHandler) Submit(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dmoc, err := h.service.Submit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dmoc, nil)
}

// Approve godoc
// @Summary Approve a submitted DMOC
// @Tags DMOC
// @Accept json
// @Produce json
// @Param id path string true "DMOC ID"
// @Param payload body dto.DmocDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id}/approve [post]
func (h *DmocHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a submitted DMOC
// @Tags DMOC
// @Accept json
// @Produce json
// @Param id path string true "DMOC ID"
// @Param payload body dto.DmocDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id}/reject [post]
func (h *DmocHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

// AppendRemarks godoc
// @Summary Append remarks to a decided DMOC
// @Tags DMOC
// @Accept json
// @Produce json
// @Param id path string true "DMOC ID"
// @Param payload body dto.DmocDecisionRequest true "Remarks payload"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id}/remarks [post]
func (h *DmocHandler) AppendRemarks(c *gin.Context) {
	h.decide(c, h.service.AppendRemarks)
}

// Get godoc
// @Summary Get a DMOC
// @Tags DMOC
// @Produce json
// @Param id path string true "DMOC ID"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests/{id} [get]
func (h *DmocHandler) Get(c *gin.Context) {
	dmoc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dmoc, nil)
}

// List godoc
// @Summary List DMOCs
// @Tags DMOC
// @Produce json
// @Param status query string false "Status filter"
// @Param originator query string false "Originator name filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dmoc-requests [get]
func (h *DmocHandler) List(c *gin.Context) {
	query := dto.DmocQuery{
		Originator: strings.TrimSpace(c.Query("originator")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		query.Status = models.DmocStatus(strings.ToUpper(strings.TrimSpace(raw)))
	}

	dmocs, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dmocs, pagination)
}

// Delete godoc
// @Summary Delete a DMOC draft
// @Tags DMOC
// @Param id path string true "DMOC ID"
// @Success 204
// @Router /dmoc-requests/{id} [delete]
func (h *DmocHandler) Delete(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *DmocHandler) upsert(c *gin.Context, op func(context.Context, dto.DmocDraftRequest, models.Actor) (*models.DmocRequest, error), status int) {
	var req dto.DmocDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dmoc, err := op(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, dmoc, nil)
}

func (h *DmocHandler) decide(c *gin.Context, op func(context.Context, string, dto.DmocDecisionRequest, models.Actor) (*models.DmocRequest, error)) {
	var req dto.DmocDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dmoc, err := op(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dmoc, nil)
}
