package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestManager_ShutdownOrderAndErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(time.Second, zap.New(core))

	var order []string
	errCache := errors.New("cache close failed")
	errStore := errors.New("store close failed")

	m.Register("store", func(context.Context) error {
		order = append(order, "store")
		return errStore
	})
	m.Register("cache", func(context.Context) error {
		order = append(order, "cache")
		return errCache
	})
	m.Register("http_server", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context has no deadline")
		}
		order = append(order, "http_server")
		return nil
	})
	m.Register("ignored", nil)

	err := m.Shutdown(context.Background())
	if got := multierr.Errors(err); len(got) != 2 || !errors.Is(err, errCache) || !errors.Is(err, errStore) {
		t.Fatalf("Shutdown error = %v", err)
	}
	want := []string{"http_server", "cache", "store"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if n := logs.FilterMessage("shutdown hook failed").Len(); n != 2 {
		t.Errorf("logged %d failures, want 2", n)
	}

	if err := m.Shutdown(context.Background()); err != nil || len(order) != 3 {
		t.Errorf("second Shutdown re-ran hooks: err=%v order=%v", err, order)
	}
}
