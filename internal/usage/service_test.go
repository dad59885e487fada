package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memStore implements Store with the same conditional-update semantics as the
// Postgres-backed store, plus the trigger-equivalent match mutations so the
// decrement invariants can be exercised without a database.
type memStore struct {
	mu      sync.Mutex
	count   map[uint]int
	resetAt map[uint]time.Time
	applied map[uint]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		count:   make(map[uint]int),
		resetAt: make(map[uint]time.Time),
		applied: make(map[uint]map[string]bool),
	}
}

func (s *memStore) addUser(id uint, count int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count[id] = count
	s.resetAt[id] = resetAt
	s.applied[id] = make(map[string]bool)
}

func (s *memStore) GetUsage(_ context.Context, userID uint) (*Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.count[userID]; !ok {
		return nil, ErrNotFound
	}
	return &Usage{UserID: userID, Count: s.count[userID], ResetAt: s.resetAt[userID]}, nil
}

func (s *memStore) ResetUsage(_ context.Context, userID uint, prevResetAt, newResetAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.count[userID]; !ok {
		return nil
	}
	// Conditional write keyed on the previously observed boundary; a stale
	// key means a concurrent reset won and this write matches zero rows.
	if !s.resetAt[userID].Equal(prevResetAt) {
		return nil
	}
	s.count[userID] = 0
	s.resetAt[userID] = newResetAt
	return nil
}

func (s *memStore) IncrementBelow(_ context.Context, userID uint, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.count[userID]; !ok {
		return ErrNotFound
	}
	if s.count[userID] >= limit {
		return ErrLimitExceeded
	}
	s.count[userID]++
	return nil
}

// addMatch and the two mutators below mirror what the database triggers do to
// the counter on delete and on the unapplied-to-applied transition.
func (s *memStore) addMatch(userID uint, uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied[userID][uuid] = false
}

func (s *memStore) deleteMatch(userID uint, uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, ok := s.applied[userID][uuid]
	if !ok {
		return
	}
	delete(s.applied[userID], uuid)
	if !applied && s.count[userID] > 0 {
		s.count[userID]--
	}
}

func (s *memStore) markApplied(userID uint, uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, ok := s.applied[userID][uuid]
	if !ok || applied {
		return
	}
	s.applied[userID][uuid] = true
	if s.count[userID] > 0 {
		s.count[userID]--
	}
}

type fakeResolver struct {
	tier Tier
	err  error
}

func (r fakeResolver) ResolveTier(context.Context, uint) (Tier, error) {
	return r.tier, r.err
}

type errStore struct {
	Store
}

func (errStore) GetUsage(context.Context, uint) (*Usage, error) {
	return nil, errors.New("storage unavailable")
}

func newTestService(store Store, tier Tier, now time.Time) *Service {
	svc := NewService(store, fakeResolver{tier: tier})
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetDailyLimitInfoFresh(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	resetAt := now.Add(2 * time.Hour)
	store := newMemStore()
	store.addUser(1, 10, resetAt)
	svc := newTestService(store, TierFree, now)

	info, err := svc.GetDailyLimitInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyLimitInfo error = %v", err)
	}
	if info.Current != 10 || info.Limit != 10 || info.Tier != TierFree {
		t.Fatalf("info = %+v, want current=10 limit=10 tier=free", info)
	}
	if info.HoursUntilReset != 2.0 {
		t.Fatalf("HoursUntilReset = %v, want 2.0", info.HoursUntilReset)
	}

	ok, err := svc.CanAccrueMatch(context.Background(), 1)
	if err != nil || ok {
		t.Fatalf("CanAccrueMatch at ceiling = (%v, %v), want (false, nil)", ok, err)
	}

	// Idempotence: an immediate second call returns the same view and the
	// boundary never regresses.
	info2, err := svc.GetDailyLimitInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("second GetDailyLimitInfo error = %v", err)
	}
	if info2.Current != info.Current || info2.Limit != info.Limit {
		t.Fatalf("second call = %+v, want same as first %+v", info2, info)
	}
	if info2.ResetAt.Before(info.ResetAt) {
		t.Fatal("resetAt regressed between calls")
	}
}

func TestGetDailyLimitInfoLazyReset(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	// Boundary one hour in the past with 7 stale matches counted.
	store.addUser(1, 7, now.Add(-time.Hour))
	svc := newTestService(store, TierFree, now)

	info, err := svc.GetDailyLimitInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyLimitInfo error = %v", err)
	}
	if info.Current != 0 {
		t.Fatalf("current = %d after stale boundary, want 0", info.Current)
	}
	if !info.ResetAt.After(now) {
		t.Fatalf("resetAt = %s, want strictly after now", info.ResetAt)
	}
	want := NextResetUTC(now)
	if !info.ResetAt.Equal(want) {
		t.Fatalf("resetAt = %s, want next IST midnight %s", info.ResetAt, want)
	}

	// The reset must be persisted, not just reported.
	u, err := store.GetUsage(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetUsage error = %v", err)
	}
	if u.Count != 0 || !u.ResetAt.Equal(want) {
		t.Fatalf("stored usage = %+v, want persisted reset", u)
	}
}

func TestLazyResetKeyedOnOldBoundary(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	staleBoundary := now.Add(-time.Hour)
	store := newMemStore()
	store.addUser(1, 7, staleBoundary)
	svc := newTestService(store, TierFree, now)

	// A concurrent request already advanced the window and an increment
	// landed inside it. Our reset write, keyed on the stale boundary, must
	// not zero that fresh count.
	next := NextResetUTC(now)
	if err := store.ResetUsage(context.Background(), 1, staleBoundary, next); err != nil {
		t.Fatalf("concurrent reset error = %v", err)
	}
	if err := store.IncrementBelow(context.Background(), 1, 10); err != nil {
		t.Fatalf("concurrent increment error = %v", err)
	}

	info, err := svc.GetDailyLimitInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetDailyLimitInfo error = %v", err)
	}
	if info.Current != 1 {
		t.Fatalf("current = %d, want 1 (fresh increment survives)", info.Current)
	}
	if !info.ResetAt.Equal(next) {
		t.Fatalf("resetAt = %s, want %s", info.ResetAt, next)
	}
}

func TestCanAccrueMatchFailClosed(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(errStore{}, TierFree, now)

	ok, err := svc.CanAccrueMatch(context.Background(), 1)
	if err == nil {
		t.Fatal("CanAccrueMatch with broken storage should error")
	}
	if ok {
		t.Fatal("CanAccrueMatch must deny accrual when status cannot be determined")
	}
}

func TestRecordMatchCreated(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser(1, 0, now.Add(8*time.Hour))
	svc := newTestService(store, TierFree, now)

	for i := 0; i < 10; i++ {
		if err := svc.RecordMatchCreated(context.Background(), 1); err != nil {
			t.Fatalf("RecordMatchCreated #%d error = %v", i+1, err)
		}
	}
	if err := svc.RecordMatchCreated(context.Background(), 1); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("RecordMatchCreated at ceiling = %v, want ErrLimitExceeded", err)
	}

	u, _ := store.GetUsage(context.Background(), 1)
	if u.Count != 10 {
		t.Fatalf("stored count = %d, want 10", u.Count)
	}
}

func TestRecordMatchCreatedAfterStaleBoundary(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	// At the ceiling, but yesterday's window: accrual must succeed after the
	// lazy reset instead of leaking yesterday's count into today.
	store.addUser(1, 10, now.Add(-time.Minute))
	svc := newTestService(store, TierFree, now)

	if err := svc.RecordMatchCreated(context.Background(), 1); err != nil {
		t.Fatalf("RecordMatchCreated after boundary error = %v", err)
	}
	u, _ := store.GetUsage(context.Background(), 1)
	if u.Count != 1 {
		t.Fatalf("stored count = %d, want 1", u.Count)
	}
}

func TestRecordMatchCreatedUnknownUser(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newMemStore(), TierFree, now)
	if err := svc.RecordMatchCreated(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordMatchCreated unknown user = %v, want ErrNotFound", err)
	}
}

func TestRecordMatchCreatedConcurrent(t *testing.T) {
	const n = 40
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser(1, 0, now.Add(8*time.Hour))
	svc := newTestService(store, TierFree, now)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.RecordMatchCreated(context.Background(), 1)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrLimitExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error under concurrency: %v", err)
		}
	}
	if succeeded != 10 || rejected != n-10 {
		t.Fatalf("succeeded=%d rejected=%d, want 10/%d", succeeded, rejected, n-10)
	}
	u, _ := store.GetUsage(context.Background(), 1)
	if u.Count != 10 {
		t.Fatalf("final stored count = %d, want 10", u.Count)
	}
}

func TestTriggerDecrementSemantics(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser(1, 0, now.Add(8*time.Hour))
	svc := newTestService(store, TierFree, now)

	ctx := context.Background()
	for _, uuid := range []string{"m1", "m2", "m3"} {
		if err := svc.RecordMatchCreated(ctx, 1); err != nil {
			t.Fatalf("RecordMatchCreated error = %v", err)
		}
		store.addMatch(1, uuid)
	}

	t.Run("delete unapplied decrements once", func(t *testing.T) {
		store.deleteMatch(1, "m1")
		if u, _ := store.GetUsage(ctx, 1); u.Count != 2 {
			t.Fatalf("count = %d after delete, want 2", u.Count)
		}
	})

	t.Run("mark applied decrements once", func(t *testing.T) {
		store.markApplied(1, "m2")
		if u, _ := store.GetUsage(ctx, 1); u.Count != 1 {
			t.Fatalf("count = %d after apply, want 1", u.Count)
		}
	})

	t.Run("re-applying does not double decrement", func(t *testing.T) {
		store.markApplied(1, "m2")
		if u, _ := store.GetUsage(ctx, 1); u.Count != 1 {
			t.Fatalf("count = %d after second apply, want 1", u.Count)
		}
	})

	t.Run("deleting applied match does not decrement", func(t *testing.T) {
		store.deleteMatch(1, "m2")
		if u, _ := store.GetUsage(ctx, 1); u.Count != 1 {
			t.Fatalf("count = %d after deleting applied match, want 1", u.Count)
		}
	})

	t.Run("decrement floors at zero", func(t *testing.T) {
		store.markApplied(1, "m3")
		// Counter is now 0; a straggler delete of an unapplied row created
		// before a reset must clamp instead of going negative.
		store.addMatch(1, "m4")
		store.deleteMatch(1, "m4")
		if u, _ := store.GetUsage(ctx, 1); u.Count != 0 {
			t.Fatalf("count = %d, want floor at 0", u.Count)
		}
	})
}
