package common

import (
	"errors"
	"io"
	"net/http"
)

// ErrBodyTooLarge is returned by ReadBody when the cap is exceeded.
var ErrBodyTooLarge = errors.New(MsgBodyTooLarge)

// ReadBody reads the whole request body, failing once more than limit bytes
// arrive. limit <= 0 selects DefaultMaxRequestBody.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxRequestBody
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, err
	}
	return data, nil
}
