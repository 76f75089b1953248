package domain

import (
	"errors"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("connect", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "connect: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "connect: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalNetworkError("auth", baseErr)

		if err.IsRetriable() {
			t.Error("Expected error to not be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewNetworkError("dial", baseErr)
		fatal := NewFatalNetworkError("auth", baseErr)
		plain := errors.New("plain error")

		if !IsRetriable(retriable) {
			t.Error("IsRetriable should return true for retriable error")
		}

		if IsRetriable(fatal) {
			t.Error("IsRetriable should return false for fatal error")
		}

		if IsRetriable(plain) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "api_key", Err: baseErr}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [api_key]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk quota exceeded")

	t.Run("unavailable", func(t *testing.T) {
		err := NewStorageUnavailable("save", "crypto-watchlist", cause)

		if !errors.Is(err, ErrStorageUnavailable) {
			t.Error("Expected error to match ErrStorageUnavailable")
		}
		if errors.Is(err, ErrCorruptData) {
			t.Error("Unavailable error should not match ErrCorruptData")
		}
		if !errors.Is(err, cause) {
			t.Error("Expected error to wrap the cause")
		}

		expected := "storage save [crypto-watchlist]: storage unavailable: disk quota exceeded"
		if err.Error() != expected {
			t.Errorf("Error message = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		err := NewCorruptData("crypto-watchlist", cause)

		if !errors.Is(err, ErrCorruptData) {
			t.Error("Expected error to match ErrCorruptData")
		}
		if err.Op != "load" {
			t.Errorf("Op = %q, want load", err.Op)
		}
	})

	t.Run("nil cause", func(t *testing.T) {
		err := &StorageError{Op: "load", Key: "k", Kind: ErrStorageUnavailable}
		if err.Error() != "storage load [k]: storage unavailable" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("never retriable", func(t *testing.T) {
		if IsRetriable(NewStorageUnavailable("load", "k", cause)) {
			t.Error("StorageError should not be retriable")
		}
	})
}
