package api

import (
	"errors"
	"net/http"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// ErrorBody is the JSON body written for failed turns
type ErrorBody struct {
	Intent types.Intent `json:"intent"`
	Error  string       `json:"error"`
}

// classify maps a workflow error to an HTTP status, a ledger outcome and the
// message shown to the caller.
func classify(err error) (int, string, string) {
	var violation *llm.SchemaViolation
	if errors.As(err, &violation) {
		return http.StatusBadGateway, models.OutcomeSchemaViolation, "the model returned output that did not match the expected format"
	}

	var backendErr *llm.BackendError
	if errors.As(err, &backendErr) {
		switch backendErr.Kind {
		case llm.KindRateLimited:
			return http.StatusServiceUnavailable, models.OutcomeBackendError, backendErr.Error()
		case llm.KindServerUnavailable:
			return http.StatusGatewayTimeout, models.OutcomeBackendError, backendErr.Error()
		case llm.KindInvalidRequest:
			return http.StatusBadGateway, models.OutcomeBackendError, backendErr.Error()
		default:
			return http.StatusInternalServerError, models.OutcomeBackendError, backendErr.Error()
		}
	}

	return http.StatusInternalServerError, models.OutcomeError, "internal error"
}

// intentOf returns the intent carried by a workflow error, or fallback
func intentOf(err error, fallback types.Intent) types.Intent {
	var wfErr *service.WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Intent
	}
	return fallback
}

// outcomeOf classifies a successful response for the usage ledger
func outcomeOf(resp *types.ChatResponse) string {
	switch {
	case resp.NeedsClarification:
		return models.OutcomeClarification
	case resp.Error != "":
		return models.OutcomeProfileConflict
	default:
		return models.OutcomeOK
	}
}
