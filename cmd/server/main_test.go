package main

import (
	"context"
	"testing"
	"time"

	"gudangku/backend/internal/config"
)

func TestValidateSecurityConfigRejectsShortSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestOpenSnapshotSlotDefaultsToMemory(t *testing.T) {
	slot, closers, err := openSnapshotSlot(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("expected in-memory slot, got error: %v", err)
	}
	if slot == nil {
		t.Fatalf("expected a slot")
	}
	if len(closers) != 0 {
		t.Fatalf("in-memory slot should register no closers, got %d", len(closers))
	}
}

func TestOpenSnapshotSlotFailsWhenConfiguredRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := openSnapshotSlot(ctx, config.Config{RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Fatalf("expected error when configured redis is unreachable")
	}
}
