package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/vtml/internal/byteutil"
	"github.com/go-sod/vtml/internal/logging"
)

const MaxBodyBytes = 64 * 1024 * 1024

type detail struct {
	Detail string `json:"detail"`
}

// DecodeJSON reads one JSON value from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// DecodeErr answers a body that could not be decoded. Oversized bodies get
// 413, everything else 422 like any other invalid request.
func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
		maxBytesErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespUnprocessable(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespUnprocessable(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespUnprocessable(ctx, w, "invalid value for %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespUnprocessable(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespUnprocessable(ctx, w, "body must not be empty")
	case errors.As(err, &maxBytesErr):
		RespJSON(ctx, w, http.StatusRequestEntityTooLarge, detail{Detail: "request body too large"})
	default:
		RespUnprocessable(ctx, w, "failed to decode json: %v", err)
	}
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespJSON(ctx, w, http.StatusBadRequest, detail{Detail: msg})
}

// RespUnprocessable answers 422 for a well-formed request whose content is
// invalid or incomplete.
func RespUnprocessable(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespJSON(ctx, w, http.StatusUnprocessableEntity, detail{Detail: msg})
}

func RespMethodNotAllowed(ctx context.Context, w http.ResponseWriter, method string, allowed ...string) {
	logging.FromContext(ctx).Debugf("method %s is not allowed", method)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	RespJSON(ctx, w, http.StatusMethodNotAllowed, detail{Detail: "Method Not Allowed"})
}

// RespInternalError answers 500 with "<stage> failed: <err>".
func RespInternalError(ctx context.Context, w http.ResponseWriter, stage string, err error) {
	msg := fmt.Sprintf("%s failed: %v", stage, err)
	logging.FromContext(ctx).Error(msg)
	RespJSON(ctx, w, http.StatusInternalServerError, detail{Detail: msg})
}

func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		logging.FromContext(ctx).Errorf("failed to encode output json: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprintf(w, `{"detail": "failed to encode output json"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
