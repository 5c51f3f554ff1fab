package util

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DecodeStatus maps a JSON decoding error to an HTTP status. Bytes that are not JSON
// are a bad request; well formed JSON of the wrong shape is unprocessable.
func DecodeStatus(err error) int {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
