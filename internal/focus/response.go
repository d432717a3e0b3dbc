package focus

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Response is the JSON envelope returned to callers of the save endpoint.
type Response struct {
	OK                bool            `json:"ok"`
	Error             string          `json:"error,omitempty"`
	Detail            json.RawMessage `json:"detail,omitempty"`
	SavedMinutes      *int64          `json:"saved_minutes,omitempty"`
	NewFocus          *int64          `json:"new_focus,omitempty"`
	AvailableSubjects []string        `json:"available_subjects,omitempty"`
}

const (
	msgMethodNotAllowed = "method not allowed"
	msgServerError      = "server error"
)

func SuccessResponse(res AccumulateResult) Response {
	saved, newFocus := res.SavedMinutes, res.NewFocus
	return Response{OK: true, SavedMinutes: &saved, NewFocus: &newFocus}
}

func MethodNotAllowedResponse() Response {
	return Response{Error: msgMethodNotAllowed}
}

func ServerErrorResponse() Response {
	return Response{Error: msgServerError}
}

// StatusCode maps an accumulation error to the HTTP status of the envelope.
func StatusCode(err error) int {
	var (
		vErr  *ValidationError
		nfErr *NotFoundError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse builds the failure envelope for err. Errors outside the
// taxonomy are reported as a bare "server error".
func ErrorResponse(err error) Response {
	var (
		vErr   *ValidationError
		cfgErr *ConfigurationError
		nfErr  *NotFoundError
		rsErr  *RemoteStoreError
	)
	switch {
	case errors.As(err, &vErr):
		return Response{Error: vErr.Err.Error()}
	case errors.As(err, &cfgErr):
		return Response{Error: ErrMissingConfig.Error()}
	case errors.As(err, &nfErr):
		return Response{Error: nfErr.Err.Error(), AvailableSubjects: nfErr.AvailableSubjects}
	case errors.As(err, &rsErr):
		resp := Response{Error: ErrQueryFailed.Error(), Detail: rsErr.Detail}
		if rsErr.Op == "update" {
			resp.Error = ErrUpdateFailed.Error()
		}
		return resp
	default:
		return ServerErrorResponse()
	}
}
