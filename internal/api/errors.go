package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/witnesschain/witnesschain-go/pkg/storage"
)

// statusFor maps taxonomy codes onto HTTP statuses. Anything the map does
// not know is a server-side failure.
var statusFor = map[storage.ErrorCode]int{
	storage.CodeEmptyFile:           http.StatusBadRequest,
	storage.CodeInvalidCID:          http.StatusBadRequest,
	storage.CodeMissingCID:          http.StatusBadGateway,
	storage.CodeInvalidData:         http.StatusBadRequest,
	storage.CodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	storage.CodeNotFound:            http.StatusNotFound,
	storage.CodeInsufficientFunds:   http.StatusPaymentRequired,
	storage.CodeUploadTimeout:       http.StatusGatewayTimeout,
	storage.CodeRetrievalTimeout:    http.StatusGatewayTimeout,
	storage.CodeDealTimeout:         http.StatusGatewayTimeout,
	storage.CodeNetworkError:        http.StatusBadGateway,
	storage.CodeProviderUnavailable: http.StatusServiceUnavailable,
	storage.CodeClientNotConfigured: http.StatusServiceUnavailable,
}

// writeError renders err as the {error, code, message} wire shape. Errors
// that are not yet StorageErrors go through the translator first, so raw
// error text never reaches a response body.
func writeError(w http.ResponseWriter, err error) {
	se := storage.Translate(err)

	status, ok := statusFor[se.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(se); encErr != nil {
		zap.L().Error("failed to encode error response", zap.Error(encErr))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
