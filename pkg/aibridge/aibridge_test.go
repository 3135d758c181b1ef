package aibridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"netval/pkg/util"
)

func TestZeroValueBridgeIsNeverAvailable(t *testing.T) {
	b := New("", "", 0)
	if b.Available(context.Background()) {
		t.Fatal("expected an unconfigured bridge to report unavailable")
	}
	if _, err := b.Explain(context.Background(), "explain this"); !errors.Is(err, util.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestAvailableReflectsEndpointHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New(srv.URL, "llama3", 0)
	if !b.Available(context.Background()) {
		t.Fatal("expected reachable endpoint to report available")
	}
}

func TestExplainReturnsGeneratedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"the vlan is missing from the trunk"}`))
	}))
	defer srv.Close()

	b := New(srv.URL, "llama3", 0)
	out, err := b.Explain(context.Background(), "explain VLAN_CONTINUITY failure")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "the vlan is missing from the trunk" {
		t.Fatalf("response = %q", out)
	}
}
