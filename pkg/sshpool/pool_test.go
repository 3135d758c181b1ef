package sshpool

import (
	"context"
	"errors"
	"testing"

	"netval/pkg/model"
	"netval/pkg/util"
	"netval/pkg/vault"
)

func TestPushWithoutConfirmNeverDials(t *testing.T) {
	p := New(5)
	device := &model.Device{ID: "d1", ManagementIP: "203.0.113.1"}
	creds := &vault.Material{Username: "admin", Password: "admin"}

	called := false
	capture := func(string) (string, error) {
		called = true
		return "snap1", nil
	}

	result := p.Push(context.Background(), device, creds, []string{"vlan 10"}, false, capture, nil)
	if result.Err == nil || !errors.Is(result.Err, util.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", result.Err)
	}
	if called {
		t.Fatal("expected capturePrePush to never be called when confirm is false")
	}
	if result.Success {
		t.Fatal("expected Success=false")
	}
}

func TestBreakerForIsStablePerDevice(t *testing.T) {
	p := New(5)
	a := p.breakerFor("device-1")
	b := p.breakerFor("device-1")
	if a != b {
		t.Fatal("expected the same circuit breaker instance for repeated calls on one device")
	}
	c := p.breakerFor("device-2")
	if a == c {
		t.Fatal("expected distinct circuit breakers for distinct devices")
	}
}

func TestNewDefaultsConcurrency(t *testing.T) {
	p := New(0)
	if p.sem == nil {
		t.Fatal("expected a non-nil semaphore")
	}
}
