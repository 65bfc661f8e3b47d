package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/internal/service"
	"github.com/mfiops/collection-ledger/pkg/response"
)

type LedgerHandler struct {
	service   *service.LedgerService
	validator *validator.Validate
}

func NewLedgerHandler(service *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateLoanCycle registers a disbursed loan cycle.
func (h *LedgerHandler) CreateLoanCycle(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	cycle, err := h.service.CreateLoanCycle(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, cycle)
}

// GetLoanCycle fetches one loan cycle.
func (h *LedgerHandler) GetLoanCycle(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]

	cycle, err := h.service.GetLoanCycle(r.Context(), cycleNo)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, cycle)
}

// GetLedger returns the reconciled running-balance ledger for a cycle.
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]

	ledgerView, err := h.service.ReconcileLedger(r.Context(), cycleNo)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, ledgerView)
}

// PostCollection records a manually entered payment.
func (h *LedgerHandler) PostCollection(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]

	var request domain.PostCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	record, err := h.service.PostCollection(r.Context(), cycleNo, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, record)
}

// UpdateCollection edits the penalty or collector of a committed record.
func (h *LedgerHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "invalid collection id", err)
		return
	}

	var request domain.UpdateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	record, err := h.service.UpdateCollection(r.Context(), id, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, record)
}

// DeleteCollection removes a record and returns the freshly reconciled ledger.
func (h *LedgerHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "invalid collection id", err)
		return
	}

	ledgerView, err := h.service.DeleteCollection(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, ledgerView)
}

// ComputeAmortization returns the periodic breakdown for the given loan
// parameters, using the configured rate table.
func (h *LedgerHandler) ComputeAmortization(w http.ResponseWriter, r *http.Request) {
	var request domain.AmortizationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	schedule, err := h.service.ComputeAmortization(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, schedule)
}

// ComputeAdvance quotes an advance payment.
func (h *LedgerHandler) ComputeAdvance(w http.ResponseWriter, r *http.Request) {
	var request domain.AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	quote, err := h.service.ComputeAdvance(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, quote)
}
