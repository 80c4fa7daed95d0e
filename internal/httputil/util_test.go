package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeErr(t *testing.T) {
	type target struct {
		Value int `json:"value"`
	}
	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{name: "syntax", body: `{"value": }`, status: http.StatusUnprocessableEntity, detail: "malformed json at position"},
		{name: "eof", body: ``, status: http.StatusUnprocessableEntity, detail: "body must not be empty"},
		{name: "unexpected eof", body: `{"value": 1`, status: http.StatusUnprocessableEntity, detail: "malformed json"},
		{name: "type", body: `{"value": "x"}`, status: http.StatusUnprocessableEntity, detail: "invalid value for value at position"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(test.body))
			w := httptest.NewRecorder()
			var v target
			err := DecodeJSON(w, r, &v)
			if err == nil {
				t.Fatalf("expected decode error")
			}
			DecodeErr(context.Background(), w, err)
			if w.Code != test.status {
				t.Errorf("status, got: %d, expected: %d", w.Code, test.status)
			}
			var d detail
			if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
				t.Fatalf("response is not json: %v", err)
			}
			if !strings.HasPrefix(d.Detail, test.detail) {
				t.Errorf("detail, got: %q, expected: %q", d.Detail, test.detail)
			}
		})
	}
}

func TestRespInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	RespInternalError(context.Background(), w, "Anomaly detection", errors.New("boom"))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status, got: %d, expected: %d", w.Code, http.StatusInternalServerError)
	}
	if got := w.Body.String(); got != `{"detail":"Anomaly detection failed: boom"}` {
		t.Errorf("body, got: %s", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type, got: %s", ct)
	}
}

func TestRespInternalError_PercentInDetail(t *testing.T) {
	w := httptest.NewRecorder()
	RespInternalError(context.Background(), w, "Route optimization", errors.New("100% of points at %d"))
	if got := w.Body.String(); got != `{"detail":"Route optimization failed: 100% of points at %d"}` {
		t.Errorf("body, got: %s", got)
	}
}

func TestRespBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	RespBadRequest(context.Background(), w, "too many items: %d", 5)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status, got: %d, expected: %d", w.Code, http.StatusBadRequest)
	}
	if got := w.Body.String(); got != `{"detail":"too many items: 5"}` {
		t.Errorf("body, got: %s", got)
	}
}

func TestRespMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	RespMethodNotAllowed(context.Background(), w, http.MethodGet, http.MethodPost)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status, got: %d, expected: %d", w.Code, http.StatusMethodNotAllowed)
	}
	if allow := w.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("allow, got: %s", allow)
	}
}
