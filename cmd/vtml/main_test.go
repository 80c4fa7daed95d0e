package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sod/vtml/internal/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var gotPath, gotBody, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.UserAgent()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path == "/route-optimization" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"Route optimization failed: boom"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()
	client := integration.NewClient(strings.TrimPrefix(srv.URL, "http://"))

	file := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"vehicle_id":1}]`), 0o600))

	testCases := []struct {
		name     string
		args     []string
		stdin    string
		path     string
		body     string
		errIs    error
		wantErr  bool
		expected string
	}{
		{name: "health", args: []string{"health"}, path: "/health", expected: "{\n  \"status\": \"healthy\"\n}\n"},
		{name: "detect_file", args: []string{"detect", file}, path: "/anomaly-detection", body: `[{"vehicle_id":1}]`},
		{name: "maintenance_stdin", args: []string{"maintenance", "-"}, stdin: `{"vehicle_id":2}`, path: "/predictive-maintenance", body: `{"vehicle_id":2}`},
		{name: "server_error", args: []string{"optimize", "-"}, stdin: `{}`, path: "/route-optimization", body: `{}`, errIs: errStatus},
		{name: "no_command", args: nil, wantErr: true},
		{name: "unknown_command", args: []string{"train"}, wantErr: true},
		{name: "missing_file_arg", args: []string{"detect"}, wantErr: true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			gotPath, gotBody = "", ""
			var out bytes.Buffer
			err := run(context.Background(), client, tc.args, strings.NewReader(tc.stdin), &out)
			switch {
			case tc.errIs != nil:
				if !errors.Is(err, tc.errIs) {
					t.Errorf("run error mismatch, got: %v, expected: %v", err, tc.errIs)
				}
			case tc.wantErr:
				require.Error(t, err)
				return
			default:
				require.NoError(t, err)
			}
			assert.Equal(t, tc.path, gotPath)
			assert.Equal(t, "VTML/v0.0.0", gotAgent)
			if tc.body != "" {
				assert.Equal(t, tc.body, gotBody)
			}
			if tc.expected != "" {
				assert.Equal(t, tc.expected, out.String())
			}
		})
	}
}
