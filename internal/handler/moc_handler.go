package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asetdigital/plant-moc-api/internal/dto"
	"github.com/asetdigital/plant-moc-api/internal/models"
	appErrors "github.com/asetdigital/plant-moc-api/pkg/errors"
	"github.com/asetdigital/plant-moc-api/pkg/response"
)

type mocService interface {
	CreateDraft(ctx context.Context, req dto.CreateMocRequest, actor models.Actor) (*models.MocRequest, error)
	UpdateDraft(ctx context.Context, id string, req dto.UpdateMocDraftRequest, actor models.Actor) (*models.MocRequest, error)
	DeleteDraft(ctx context.Context, id string, actor models.Actor) error
	Submit(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	CompleteApprover(ctx context.Context, requestID, approverID string, req dto.CompleteApproverRequest, actor models.Actor) (*models.MocApprover, error)
	AdvanceStage(ctx context.Context, id string, actor models.Actor) (*dto.StageAdvanceResponse, error)
	MarkInactive(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	Reactivate(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	Cancel(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	MarkForRestoration(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	MarkRestored(ctx context.Context, id string, actor models.Actor) (*models.MocRequest, error)
	Get(ctx context.Context, id string) (*dto.MocDetail, error)
	List(ctx context.Context, query dto.MocQuery) ([]dto.MocItem, *models.Pagination, error)
}

// MocHandler exposes REST endpoints for change request workflows.
type MocHandler struct {
	service mocService
}

// NewMocHandler constructs the handler.
func NewMocHandler(service mocService) *MocHandler {
	return &MocHandler{service: service}
}

// Create godoc
// @Summary Open a new change request draft
// @Tags MOC
// @Accept json
// @Produce json
// @Param payload body dto.CreateMocRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Router /moc-requests [post]
func (h *MocHandler) Create(c *gin.Context) {
	var req dto.CreateMocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.CreateDraft(c.Request.Context(), req, claims.Actor())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List change requests
// @Tags MOC
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param stage query string false "Current stage"
// @Param type query string false "Request type"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /moc-requests [get]
func (h *MocHandler) List(c *gin.Context) {
	query := dto.MocQuery{
		OriginatorID: strings.TrimSpace(c.Query("originator_id")),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(strings.ToUpper(part))
			if part != "" {
				query.Status = append(query.Status, models.RequestStatus(part))
			}
		}
	}
	if raw := c.Query("stage"); raw != "" {
		query.Stage = models.Stage(strings.ToUpper(strings.TrimSpace(raw)))
	}
	if raw := c.Query("type"); raw != "" {
		query.RequestType = models.RequestType(strings.ToUpper(strings.TrimSpace(raw)))
	}

	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a change request with its approver chain
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id} [get]
func (h *MocHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Edit an editable change request
// @Tags MOC
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateMocDraftRequest true "Draft payload"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id} [put]
func (h *MocHandler) Update(c *gin.Context) {
	var req dto.UpdateMocDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.service.UpdateDraft(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Delete godoc
// @Summary Delete a draft change request
// @Tags MOC
// @Param id path string true "Request ID"
// @Success 204
// @Router /moc-requests/{id} [delete]
func (h *MocHandler) Delete(c *gin.Context) {
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

// Submit godoc
// @Summary Submit a draft into the approval workflow
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/submit [post]
func (h *MocHandler) Submit(c *gin.Context) {
	h.lifecycle(c, h.service.Submit)
}

// CompleteApprover godoc
// @Summary Record an approver slot decision
// @Tags MOC
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param approverId path string true "Approver slot ID"
// @Param payload body dto.CompleteApproverRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/approvers/{approverId}/complete [post]
func (h *MocHandler) CompleteApprover(c *gin.Context) {
	var req dto.CompleteApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	approver, err := h.service.CompleteApprover(c.Request.Context(), c.Param("id"), c.Param("approverId"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approver, nil)
}

// AdvanceStage godoc
// @Summary Advance a request to the next workflow stage
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/advance [post]
func (h *MocHandler) AdvanceStage(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AdvanceStage(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkInactive godoc
// @Summary Park an active request as inactive
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/inactive [post]
func (h *MocHandler) MarkInactive(c *gin.Context) {
	h.lifecycle(c, h.service.MarkInactive)
}

// Reactivate godoc
// @Summary Reactivate an inactive request
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/reactivate [post]
func (h *MocHandler) Reactivate(c *gin.Context) {
	h.lifecycle(c, h.service.Reactivate)
}

// Cancel godoc
// @Summary Cancel a request before it becomes active
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/cancel [post]
func (h *MocHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.service.Cancel)
}

// MarkForRestoration godoc
// @Summary Flag a temporary change for restoration
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/for-restoration [post]
func (h *MocHandler) MarkForRestoration(c *gin.Context) {
	h.lifecycle(c, h.service.MarkForRestoration)
}

// MarkRestored godoc
// @Summary Record that a temporary change was restored
// @Tags MOC
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /moc-requests/{id}/restored [post]
func (h *MocHandler) MarkRestored(c *gin.Context) {
	h.lifecycle(c, h.service.MarkRestored)
}

func (h *MocHandler) lifecycle(c *gin.Context, op func(context.Context, string, models.Actor) (*models.MocRequest, error)) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := op(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

func requireActor(c *gin.Context) (models.Actor, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return claims.Actor(), nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
