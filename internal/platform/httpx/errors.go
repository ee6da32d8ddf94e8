package httpx

import (
	"net/http"

	"github.com/estoque-erp/estoque-erp/internal/shared"
)

// RespondError maps domain error kinds to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.KindOf(err) {
	case shared.KindMissingField:
		Problem(w, http.StatusBadRequest, "Missing Field", shared.UserSafeMessage(err))
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case shared.KindConflict:
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	case shared.KindInsufficientStock:
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", shared.UserSafeMessage(err))
	case shared.KindAlreadyExists:
		Problem(w, http.StatusConflict, "Already Exists", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
