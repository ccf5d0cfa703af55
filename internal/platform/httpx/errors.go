package httpx

import (
	"errors"
	"net/http"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/store"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrJournalNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, store.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrDuplicateJournal),
		errors.Is(err, ledger.ErrDuplicateTransaction):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ledger.ErrUnbalanced),
		errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrAccountInactive),
		errors.Is(err, ledger.ErrEntityMismatch):
		Problem(w, http.StatusUnprocessableEntity, "Posting Rejected", err.Error())
	case errors.Is(err, ledger.ErrMissingField),
		errors.Is(err, ledger.ErrTooFewLines),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, dec.ErrInvalidInput),
		errors.Is(err, dec.ErrDivisionByZero):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, dec.ErrEngineNotReady):
		Problem(w, http.StatusServiceUnavailable, "Not Ready", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
