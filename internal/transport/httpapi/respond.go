package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/yanun0323/logs"

	"assetverse/pkg/exception"
)

const maxBodyBytes = 1 << 16

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var codeStatus = map[exception.Code]int{
	exception.CodeInvalidArgument:        http.StatusBadRequest,
	exception.CodeInvalidAmount:          http.StatusBadRequest,
	exception.CodeAssetNotFound:          http.StatusNotFound,
	exception.CodeGameWithoutAssets:      http.StatusNotFound,
	exception.CodePlayerNotFound:         http.StatusNotFound,
	exception.CodePlayerExists:           http.StatusConflict,
	exception.CodeInsufficientBalance:    http.StatusConflict,
	exception.CodeInsufficientAssetCount: http.StatusConflict,
	exception.CodeArithmeticOverflow:     http.StatusUnprocessableEntity,
}

// StatusOf maps a ledger error to an HTTP status code.
func StatusOf(err error) int {
	if status, ok := codeStatus[exception.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Errorf("encode response, err: %+v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := exception.CodeOf(err)
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, ErrorBody{Code: code.String(), Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Code:    exception.CodeInvalidArgument.String(),
			Message: "malformed request body: " + err.Error(),
		})
		return false
	}
	return true
}
