package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/types"
)

// Response is the envelope for non-streaming endpoints.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo is the serialized form of a *types.Error.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError maps err onto the envelope and an HTTP status.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	code := types.GetErrorCode(err)
	status := statusForCode(code)
	if code == "" {
		code = types.ErrInferenceFailure
	}
	if logger != nil {
		logger.Error("request failed",
			zap.String("code", string(code)),
			zap.Int("status", status),
			zap.Error(err))
	}
	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      string(code),
			Message:   err.Error(),
			Retryable: types.IsRetryable(err),
		},
		Timestamp: time.Now(),
	})
}

func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.ErrValidationFailure, types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrCancelled:
		return 499 // client closed request
	case types.ErrTimeout:
		return http.StatusGatewayTimeout
	case types.ErrQuotaExceeded, types.ErrSourceRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return types.NewError(types.ErrValidationFailure, "invalid request body").WithCause(err)
	}
	return nil
}
