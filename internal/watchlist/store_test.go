package watchlist

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"crypto_dash/internal/domain"
)

func setupStore(t *testing.T) (*Watchlist, *MemoryMedium) {
	t.Helper()
	medium := NewMemoryMedium()
	return New(medium), medium
}

func assertList(t *testing.T, w Store, want []string) {
	t.Helper()
	got := w.List()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestWatchlist_EmptyOnFirstAccess(t *testing.T) {
	w, _ := setupStore(t)

	got := w.List()
	if got == nil {
		t.Fatal("List() should return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}
	if w.Contains("bitcoin") {
		t.Error("Empty watchlist should not contain bitcoin")
	}
}

func TestWatchlist_AddIdempotent(t *testing.T) {
	w, medium := setupStore(t)

	first := w.Add("bitcoin")
	if !first.OK() || !first.Changed {
		t.Fatalf("First add should change the list: %+v", first)
	}

	second := w.Add("bitcoin")
	if !second.OK() {
		t.Fatalf("Second add failed: %v", second.Err)
	}
	if second.Changed {
		t.Error("Second add should be a no-op")
	}

	assertList(t, w, []string{"bitcoin"})

	raw, _ := medium.Raw(DefaultKey)
	if raw != `["bitcoin"]` {
		t.Errorf("Stored value = %s, want [\"bitcoin\"]", raw)
	}
}

func TestWatchlist_RemoveAbsentIsNoop(t *testing.T) {
	w, _ := setupStore(t)
	w.Add("bitcoin")
	w.Add("ethereum")

	out := w.Remove("dogecoin")
	if !out.OK() || out.Changed {
		t.Errorf("Removing absent id should be a clean no-op: %+v", out)
	}
	assertList(t, w, []string{"bitcoin", "ethereum"})
}

func TestWatchlist_OrderPreservation(t *testing.T) {
	w, _ := setupStore(t)

	w.Add("a")
	w.Add("b")
	w.Remove("a")
	w.Add("a")

	assertList(t, w, []string{"b", "a"})
}

func TestWatchlist_RemoveKeepsRelativeOrder(t *testing.T) {
	w, _ := setupStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		w.Add(id)
	}

	w.Remove("b")
	assertList(t, w, []string{"a", "c", "d"})

	w.Remove("d")
	assertList(t, w, []string{"a", "c"})
}

func TestWatchlist_ContainsFollowsLastOperation(t *testing.T) {
	ops := []struct {
		op string
		id string
	}{
		{"add", "btc"}, {"add", "eth"}, {"remove", "btc"}, {"add", "sol"},
		{"remove", "eth"}, {"add", "btc"}, {"remove", "xrp"}, {"add", "eth"}, {"remove", "eth"},
	}

	w, _ := setupStore(t)
	last := make(map[string]string)
	for _, o := range ops {
		switch o.op {
		case "add":
			w.Add(o.id)
		case "remove":
			w.Remove(o.id)
		}
		last[o.id] = o.op
	}

	for id, op := range last {
		if got, want := w.Contains(id), op == "add"; got != want {
			t.Errorf("Contains(%q) = %v, want %v (last op %s)", id, got, want, op)
		}
	}
	assertList(t, w, []string{"sol", "btc"})
}

func TestWatchlist_CorruptStorageRecovery(t *testing.T) {
	w, medium := setupStore(t)
	medium.Put(DefaultKey, "{not json")

	assertList(t, w, []string{})

	out := w.Add("x")
	if !out.OK() || !out.Changed {
		t.Fatalf("Add after corruption should succeed: %+v", out)
	}
	assertList(t, w, []string{"x"})
}

func TestWatchlist_WrongShapeIsCorrupt(t *testing.T) {
	w, medium := setupStore(t)
	medium.Put(DefaultKey, `{"bitcoin":true}`)

	assertList(t, w, []string{})
	if w.Contains("bitcoin") {
		t.Error("Corrupt content should read as unwatched")
	}
}

func TestWatchlist_DuplicatesInStorageAreDropped(t *testing.T) {
	w, medium := setupStore(t)
	medium.Put(DefaultKey, `["a","b","a","","c","b"]`)

	assertList(t, w, []string{"a", "b", "c"})
}

func TestWatchlist_StorageUnavailable(t *testing.T) {
	w, medium := setupStore(t)
	w.Add("bitcoin")

	t.Run("reads degrade to empty", func(t *testing.T) {
		medium.FailLoads(errors.New("medium disabled"))
		defer medium.FailLoads(nil)

		assertList(t, w, []string{})
		if w.Contains("bitcoin") {
			t.Error("Unavailable storage should read as unwatched")
		}
	})

	t.Run("failed writes are reported, not fatal", func(t *testing.T) {
		medium.FailSaves(errors.New("quota exceeded"))
		defer medium.FailSaves(nil)

		out := w.Add("ethereum")
		if out.OK() {
			t.Fatal("Expected an error outcome")
		}
		if !errors.Is(out.Err, domain.ErrStorageUnavailable) {
			t.Errorf("Expected ErrStorageUnavailable, got %v", out.Err)
		}

		out = w.Remove("bitcoin")
		if !errors.Is(out.Err, domain.ErrStorageUnavailable) {
			t.Errorf("Expected ErrStorageUnavailable, got %v", out.Err)
		}

		// Nothing was persisted
		assertList(t, w, []string{"bitcoin"})
	})
}

func TestWatchlist_AddDuringReadOutageKeepsContent(t *testing.T) {
	w, medium := setupStore(t)
	w.Add("bitcoin")
	w.Add("ethereum")

	medium.FailLoads(errors.New("redis timeout"))
	out := w.Add("solana")
	if !errors.Is(out.Err, domain.ErrStorageUnavailable) {
		t.Fatalf("Expected ErrStorageUnavailable, got %+v", out)
	}
	if out.Changed {
		t.Error("No write should be attempted while storage is unreadable")
	}
	if watched, _ := w.Toggle("dogecoin"); watched {
		t.Error("Toggle during a read outage must report unwatched")
	}
	medium.FailLoads(nil)

	raw, _ := medium.Raw(DefaultKey)
	if raw != `["bitcoin","ethereum"]` {
		t.Errorf("Stored content changed during outage: %s", raw)
	}
	assertList(t, w, []string{"bitcoin", "ethereum"})
}

func TestWatchlist_Toggle(t *testing.T) {
	w, medium := setupStore(t)

	watched, out := w.Toggle("bitcoin")
	if !watched || !out.Changed || !out.OK() {
		t.Fatalf("First toggle should add: watched=%v %+v", watched, out)
	}
	watched, out = w.Toggle("bitcoin")
	if watched || !out.Changed || !out.OK() {
		t.Fatalf("Second toggle should remove: watched=%v %+v", watched, out)
	}

	w.Add("ethereum")
	medium.FailSaves(errors.New("quota exceeded"))
	defer medium.FailSaves(nil)

	if watched, out = w.Toggle("solana"); watched || out.OK() {
		t.Errorf("Failed add must report unwatched: watched=%v %+v", watched, out)
	}
	if watched, out = w.Toggle("ethereum"); !watched || out.OK() {
		t.Errorf("Failed remove must report watched: watched=%v %+v", watched, out)
	}

	if _, out = w.Toggle(""); !errors.Is(out.Err, domain.ErrInvalidCoinID) {
		t.Errorf("Expected ErrInvalidCoinID, got %v", out.Err)
	}
}

func TestWatchlist_ConcurrentToggles(t *testing.T) {
	w, _ := setupStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Toggle("bitcoin")
		}()
	}
	wg.Wait()

	// An even number of toggles lands back on unwatched
	assertList(t, w, []string{})
}

func TestWatchlist_RejectsEmptyID(t *testing.T) {
	w, _ := setupStore(t)

	out := w.Add("")
	if !errors.Is(out.Err, domain.ErrInvalidCoinID) {
		t.Errorf("Expected ErrInvalidCoinID, got %v", out.Err)
	}
	assertList(t, w, []string{})
}

func TestWatchlist_CustomKey(t *testing.T) {
	medium := NewMemoryMedium()
	w := New(medium, WithKey("alt-key"))
	w.Add("bitcoin")

	if _, ok := medium.Raw(DefaultKey); ok {
		t.Error("Default key should not be written")
	}
	if raw, _ := medium.Raw("alt-key"); raw != `["bitcoin"]` {
		t.Errorf("Unexpected stored value %q", raw)
	}
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveWatchlist(op string, changed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func TestWatchlist_Observer(t *testing.T) {
	obs := &recordingObserver{}
	w := New(NewMemoryMedium(), WithObserver(obs))

	w.Add("a")
	w.Add("a")
	w.Remove("a")

	want := []string{"add", "add", "remove"}
	if !reflect.DeepEqual(obs.ops, want) {
		t.Errorf("Observed %v, want %v", obs.ops, want)
	}
}

func TestWatchlist_ConcurrentAdds(t *testing.T) {
	w, _ := setupStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Add("bitcoin")
			w.Add("ethereum")
		}()
	}
	wg.Wait()

	if got := w.List(); len(got) != 2 {
		t.Errorf("Expected 2 unique entries, got %v", got)
	}
}
