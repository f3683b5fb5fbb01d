package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestGetMissingObjectReturnsNil(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	t.Setenv("STORAGE_EMULATOR_HOST", strings.TrimPrefix(srv.URL, "http://"))

	archive, err := NewClientUploader(context.Background(), "bucket", "results/", option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer archive.Close()

	data, contentType, err := archive.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil || contentType != "" {
		t.Errorf("expected miss, got %d bytes (%s)", len(data), contentType)
	}

	found := false
	for _, p := range requested {
		if strings.Contains(p, "results/job-1") || strings.Contains(p, "results%2Fjob-1") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a request for results/job-1, got %v", requested)
	}
}
