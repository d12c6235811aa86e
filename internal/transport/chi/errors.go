package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/domain"
)

// Error codes returned in the "errors" array. Validation and not-found
// failures use their domain.Reason as the code.
const (
	codeMissingResultsID       = "missing_results_id"
	codeMissingPageNumber      = "missing_page_number"
	codeWrongFormatPageNumber  = "wrong_format_page_number"
	codeMissingCategoryID      = "missing_category_id"
	codeMissingItemID          = "missing_item_id"
	codePageOutOfRange         = "results_not_available_for_page"
	codeNoMatchFound           = "no_match_found"
	codeFileTooLarge           = "file_too_large"
	codeBadRequest             = "bad_request"
	codeReferenceNotReady      = "reference_not_ready"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeVectorDimMismatch      = "vector_dim_mismatch"
	codeInternalError          = "internal_error"
)

var reasonMessages = map[domain.Reason]string{
	domain.ReasonEmptyFile:         "The uploaded file is empty",
	domain.ReasonFileReadFailure:   "The uploaded file could not be read",
	domain.ReasonInvalidFileFormat: "The uploaded file is not an image of an allowed format",
	domain.ReasonTooManyCharacters: "The text is too long",
	domain.ReasonMissingQueryData:  "Upload an image or enter a text to search",
	domain.ReasonUnknownHandle:     "The results are no longer available, please search again",
	domain.ReasonUnknownCategory:   "Unknown category",
	domain.ReasonUnknownLabel:      "Unknown item",
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
}

// paramError is a missing or malformed request parameter.
type paramError struct {
	code    string
	message string
}

func (e *paramError) Error() string { return e.message }

func (e *paramError) Unwrap() error { return domain.ErrValidation }

func newParamError(code, message string) error {
	return &paramError{code: code, message: message}
}

// errorHandler maps one error cause to a client error. ok is false when the
// handler does not recognize err.
type errorHandler func(err error) (e apiError, status int, ok bool)

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		paramHandler,
		reasonHandler,
		sentinelHandler(domain.ErrPageRange, http.StatusBadRequest, codePageOutOfRange),
		sentinelHandler(domain.ErrNoMatchFound, http.StatusOK, codeNoMatchFound),
		sentinelHandler(domain.ErrReferenceNotReady, http.StatusServiceUnavailable, codeReferenceNotReady),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
}

func paramHandler(err error) (apiError, int, bool) {
	var pe *paramError
	if !errors.As(err, &pe) {
		return apiError{}, 0, false
	}
	return apiError{Code: pe.code, Message: pe.message}, http.StatusBadRequest, true
}

func reasonHandler(err error) (apiError, int, bool) {
	reason, ok := domain.ReasonOf(err)
	if !ok {
		return apiError{}, 0, false
	}
	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
	}
	msg, ok := reasonMessages[reason]
	if !ok {
		msg = string(reason)
	}
	return apiError{Code: string(reason), Message: msg}, status, true
}

// sentinelHandler returns an errorHandler matching a single sentinel error.
// The sentinel text is the client message, so wrapped internals never leak.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(err error) (apiError, int, bool) {
		if !errors.Is(err, sentinel) {
			return apiError{}, 0, false
		}
		return apiError{Code: code, Message: sentinel.Error()}, status, true
	}
}

// handleDomainError renders every cause of err. The response status is the
// highest status among the causes; an unrecognized cause yields 500.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	causes := domain.Flatten(err)
	out := make([]apiError, 0, len(causes))
	status := 0
	for _, cause := range causes {
		e, st, ok := s.mapError(cause)
		if !ok {
			s.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(cause))
			e, st = apiError{Code: codeInternalError, Message: "internal error"}, http.StatusInternalServerError
		}
		out = append(out, e)
		status = max(status, st)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Errors: out})
}

func (s *Server) mapError(err error) (apiError, int, bool) {
	for _, h := range s.errorHandlers {
		if e, status, ok := h(err); ok {
			return e, status, true
		}
	}
	return apiError{}, 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Errors: []apiError{{Code: code, Message: message}}})
}
