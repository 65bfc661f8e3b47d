package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mfiops/collection-ledger/internal/service"
	"github.com/mfiops/collection-ledger/pkg/response"
)

type StatusHandler struct {
	service *service.StatusService
}

func NewStatusHandler(service *service.StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

// GetStatus classifies one cycle on demand. The fresh query parameter is
// the external collections-sync freshness flag.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]
	fresh := r.URL.Query().Get("fresh") == "true"

	result, err := h.service.ComputeStatus(r.Context(), cycleNo, fresh)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

// RunBatch re-evaluates every open cycle and persists asserted statuses.
func (h *StatusHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.RunBatch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]int{"updated": updated})
}
