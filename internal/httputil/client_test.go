package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HTTPClientConfig
		expected string
		err      bool
	}{
		{name: "none", cfg: HTTPClientConfig{}, expected: ""},
		{name: "bearer", cfg: HTTPClientConfig{BearerToken: "t0k"}, expected: "Bearer t0k"},
		{name: "basic", cfg: HTTPClientConfig{BasicAuth: &BasicAuth{Username: "u", Password: " p "}}, expected: "Basic dTpw"},
		{name: "both", cfg: HTTPClientConfig{BearerToken: "t", BasicAuth: &BasicAuth{Username: "u"}}, err: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()

			client, err := NewClientFromConfig(test.cfg, true)
			if test.err {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if got != test.expected {
				t.Errorf("authorization, got: %q, expected: %q", got, test.expected)
			}
		})
	}
}
