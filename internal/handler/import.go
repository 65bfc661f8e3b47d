package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/mfiops/collection-ledger/internal/domain"
	"github.com/mfiops/collection-ledger/internal/service"
	"github.com/mfiops/collection-ledger/pkg/response"
)

type ImportHandler struct {
	service   *service.ImportService
	validator *validator.Validate
}

func NewImportHandler(service *service.ImportService) *ImportHandler {
	return &ImportHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Preview dedupes parsed rows and returns the selectable candidate set.
// Nothing is persisted.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]

	var request domain.ImportPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	preview, err := h.service.PreviewImport(r.Context(), cycleNo, request.Rows)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, preview)
}

// Commit persists the operator-selected rows atomically.
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	cycleNo := mux.Vars(r)["cycleNo"]

	var request domain.ImportCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	result, err := h.service.CommitImport(r.Context(), cycleNo, request.Rows)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}
