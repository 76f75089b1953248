package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"crypto_dash/internal/watchlist"
)

func TestRun(t *testing.T) {
	medium := watchlist.NewMemoryMedium()
	store := watchlist.New(medium)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"add", "bitcoin"}, "add: bitcoin\n"},
		{[]string{"add", "bitcoin"}, "add: bitcoin (unchanged)\n"},
		{[]string{"toggle", "ethereum"}, "add: ethereum\n"},
		{[]string{"list"}, "bitcoin\nethereum\n"},
		{[]string{"toggle", "bitcoin"}, "remove: bitcoin\n"},
		{[]string{"remove", "solana"}, "remove: solana (unchanged)\n"},
		{[]string{"list"}, "ethereum\n"},
	}
	for _, s := range steps {
		var out bytes.Buffer
		if err := run(store, s.args, &out); err != nil {
			t.Fatalf("%v: %v", s.args, err)
		}
		if out.String() != s.want {
			t.Errorf("%v: got %q, want %q", s.args, out.String(), s.want)
		}
	}
}

func TestRun_Usage(t *testing.T) {
	store := watchlist.New(watchlist.NewMemoryMedium())
	for _, args := range [][]string{nil, {"add"}, {"frobnicate"}, {"remove", "a", "b"}} {
		if err := run(store, args, &bytes.Buffer{}); err != errUsage {
			t.Errorf("%v: expected usage error, got %v", args, err)
		}
	}
}

func TestRun_StorageFailure(t *testing.T) {
	medium := watchlist.NewMemoryMedium()
	medium.FailSaves(errors.New("read-only"))
	store := watchlist.New(medium)

	if err := run(store, []string{"add", "bitcoin"}, &bytes.Buffer{}); err == nil {
		t.Error("expected storage error to surface")
	}
}

func TestRun_ToggleStorageFailure(t *testing.T) {
	medium := watchlist.NewMemoryMedium()
	store := watchlist.New(medium)
	store.Add("bitcoin")
	medium.FailSaves(errors.New("read-only"))

	err := run(store, []string{"toggle", "bitcoin"}, &bytes.Buffer{})
	if err == nil || !strings.HasPrefix(err.Error(), "toggle bitcoin:") {
		t.Fatalf("expected toggle error, got %v", err)
	}
	if !store.Contains("bitcoin") {
		t.Error("failed toggle must leave bitcoin watched")
	}
}
