package handlers

import (
	"net/http"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/store"
	"github.com/gin-gonic/gin"
)

// HandoverHandler exposes the handover workflow over HTTP.
type HandoverHandler struct {
	Store *store.HandoverStore
}

func NewHandoverHandler(s *store.HandoverStore) *HandoverHandler {
	return &HandoverHandler{Store: s}
}

// List handles GET /api/handovers (admin, supervisor).
func (h *HandoverHandler) List(c *gin.Context) {
	rows, pagination, err := h.Store.List(queryInt(c, "page", 1), queryInt(c, "limit", store.DefaultPageLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"handovers": rows, "pagination": pagination})
}

// CreateHandoverRequest is the POST /api/handovers body.
type CreateHandoverRequest struct {
	FromEmployee   uint   `json:"fromEmployee"`
	ToEmployee     uint   `json:"toEmployee"`
	TransactionIDs []uint `json:"transactionIds"`
	Notes          string `json:"notes"`
}

// Create handles POST /api/handovers (supervisor).
func (h *HandoverHandler) Create(c *gin.Context) {
	var req CreateHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	handover, err := h.Store.Create(store.CreateHandoverInput{
		FromEmployee:   req.FromEmployee,
		ToEmployee:     req.ToEmployee,
		TransactionIDs: req.TransactionIDs,
		Notes:          req.Notes,
	}, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Handover created successfully", gin.H{"handover": handover})
}

// Get handles GET /api/handovers/:id (admin, supervisor).
func (h *HandoverHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	handover, items, err := h.Store.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"handover": handover, "items": items})
}

// Accept handles PUT /api/handovers/:id/accept by the receiving employee.
func (h *HandoverHandler) Accept(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	handover, err := h.Store.Accept(id, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Handover accepted successfully", gin.H{"handover": handover})
}

// MyPending handles GET /api/handovers/my/pending.
func (h *HandoverHandler) MyPending(c *gin.Context) {
	rows, err := h.Store.ListPendingFor(currentRequester(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"handovers": rows})
}
