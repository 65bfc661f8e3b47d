package handler

import (
	"errors"
	"net/http"

	customError "github.com/mfiops/collection-ledger/pkg/errors"
	"github.com/mfiops/collection-ledger/pkg/response"
)

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customError.ErrValidation):
		response.BadRequest(w, "invalid request", err)
	case errors.Is(err, customError.ErrNotFound):
		response.NotFound(w, "resource not found", err)
	case errors.Is(err, customError.ErrConflict):
		response.Conflict(w, "conflict", err)
	case errors.Is(err, customError.ErrState):
		response.UnprocessableEntity(w, "data integrity condition", err)
	case errors.Is(err, customError.ErrTimeout):
		response.GatewayTimeout(w, "backend call timed out", err)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}
