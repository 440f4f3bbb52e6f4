package lookup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vodsieve/internal/media"
	"vodsieve/internal/services"
	"vodsieve/internal/tmdb"
)

type scriptedService struct {
	mu      sync.Mutex
	calls   int
	results []error
	payload []byte
}

func (s *scriptedService) next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.results) == 0 {
		return s.payload, nil
	}
	err := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	if err != nil {
		return nil, err
	}
	return s.payload, nil
}

func (s *scriptedService) Search(context.Context, media.Kind, string, media.Year) ([]byte, error) {
	return s.next()
}

func (s *scriptedService) Details(context.Context, media.Kind, int64) ([]byte, error) {
	return s.next()
}

func (s *scriptedService) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func testBackoff() Backoff {
	return Backoff{MaxAttempts: 5, Base: time.Second, Factor: 2, Max: 5 * time.Second}
}

func TestResolveRetriesTransientExactlyMaxAttempts(t *testing.T) {
	svc := &scriptedService{results: []error{&tmdb.StatusError{StatusCode: 503}}}
	sleeps := &recordedSleeps{}
	client := NewClient(svc, Options{Backoff: testBackoff(), Sleep: sleeps.sleep})

	_, err := client.Resolve(context.Background(), NewRequest(media.KindMovie, "Heat", media.YearOf(1995)))
	if err == nil {
		t.Fatal("expected failure")
	}
	if svc.Calls() != 5 {
		t.Fatalf("calls = %d, want exactly 5", svc.Calls())
	}
	if !errors.Is(err, services.ErrLookupFailed) || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error %v should match ErrLookupFailed and ErrTransient", err)
	}
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) || lookupErr.Attempts != 5 || !lookupErr.Exhausted {
		t.Fatalf("LookupError = %+v", lookupErr)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	if len(sleeps.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleeps.delays, want)
	}
	for i := range want {
		if sleeps.delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", sleeps.delays, want)
		}
	}

	stats := client.Stats()
	if stats.Requests != 5 || stats.Retries != 4 || stats.Exhausted != 1 || stats.TransientFailures != 5 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestResolvePermanentNotRetried(t *testing.T) {
	svc := &scriptedService{results: []error{&tmdb.StatusError{StatusCode: 401}}}
	sleeps := &recordedSleeps{}
	client := NewClient(svc, Options{Backoff: testBackoff(), Sleep: sleeps.sleep})

	_, err := client.Resolve(context.Background(), NewRequest(media.KindTV, "Lost", media.NoYear))
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("error = %v, want ErrPermanent", err)
	}
	if errors.Is(err, services.ErrLookupFailed) {
		t.Fatal("permanent failure must not be reported as exhausted")
	}
	if svc.Calls() != 1 || len(sleeps.delays) != 0 {
		t.Fatalf("calls = %d sleeps = %v, want a single attempt", svc.Calls(), sleeps.delays)
	}
	if client.Stats().PermanentFailures != 1 {
		t.Fatalf("stats = %+v", client.Stats())
	}
}

func TestResolveRecoversAfterTransient(t *testing.T) {
	svc := &scriptedService{
		results: []error{&tmdb.StatusError{StatusCode: 429}, &tmdb.StatusError{StatusCode: 500}, nil},
		payload: []byte(`{"results":[]}`),
	}
	var events []RetryEvent
	client := NewClient(svc, Options{
		Backoff:  testBackoff(),
		Sleep:    (&recordedSleeps{}).sleep,
		Observer: func(ev RetryEvent) { events = append(events, ev) },
	})
	payload, err := client.ResolveDetail(context.Background(), media.KindMovie, 949)
	if err != nil {
		t.Fatalf("ResolveDetail: %v", err)
	}
	if string(payload) != `{"results":[]}` {
		t.Fatalf("payload = %q", payload)
	}
	if svc.Calls() != 3 || len(events) != 2 {
		t.Fatalf("calls = %d events = %d", svc.Calls(), len(events))
	}
	if events[0].Attempt != 1 || events[1].Attempt != 2 {
		t.Fatalf("events = %+v", events)
	}
}

func TestResolveHonorsRetryAfterUpToCap(t *testing.T) {
	svc := &scriptedService{results: []error{
		&tmdb.StatusError{StatusCode: 429, RetryAfter: 3 * time.Second},
		&tmdb.StatusError{StatusCode: 429, RetryAfter: time.Minute},
		nil,
	}}
	sleeps := &recordedSleeps{}
	client := NewClient(svc, Options{Backoff: testBackoff(), Sleep: sleeps.sleep})
	if _, err := client.Resolve(context.Background(), NewRequest(media.KindMovie, "Heat", media.NoYear)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(sleeps.delays) != 2 || sleeps.delays[0] != 3*time.Second || sleeps.delays[1] != 5*time.Second {
		t.Fatalf("delays = %v, want [3s 5s]", sleeps.delays)
	}
}

func TestResolveStopsOnCancellationDuringBackoff(t *testing.T) {
	svc := &scriptedService{results: []error{&tmdb.StatusError{StatusCode: 503}}}
	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(svc, Options{
		Backoff: testBackoff(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})
	_, err := client.Resolve(ctx, NewRequest(media.KindMovie, "Heat", media.NoYear))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if svc.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", svc.Calls())
	}
}

func TestResolveCancelledBeforeStart(t *testing.T) {
	svc := &scriptedService{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(svc, Options{Backoff: testBackoff()})
	if _, err := client.Resolve(ctx, NewRequest(media.KindMovie, "Heat", media.NoYear)); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if svc.Calls() != 0 {
		t.Fatalf("calls = %d, want 0", svc.Calls())
	}
}

func TestBackoffDelaysNonDecreasingAndCapped(t *testing.T) {
	policies := []Backoff{
		{Base: 250 * time.Millisecond, Factor: 2, Max: 30 * time.Second},
		{Base: time.Second, Factor: 1, Max: time.Second},
		{Base: time.Second, Factor: 10, Max: 7 * time.Second},
		{Base: time.Second, Factor: 2, Max: time.Hour},
	}
	for _, policy := range policies {
		prev := time.Duration(0)
		for n := 1; n <= 200; n++ {
			d := policy.Delay(n, 0)
			if d < prev {
				t.Fatalf("%+v: delay %d = %v decreased from %v", policy, n, d, prev)
			}
			if d > policy.Max {
				t.Fatalf("%+v: delay %d = %v exceeds cap", policy, n, d)
			}
			prev = d
		}
	}
}

type blockingService struct {
	active  atomic.Int64
	peak    atomic.Int64
	release chan struct{}
}

func (b *blockingService) Search(ctx context.Context, _ media.Kind, _ string, _ media.Year) ([]byte, error) {
	n := b.active.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer b.active.Add(-1)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []byte(`{}`), nil
}

func (b *blockingService) Details(ctx context.Context, kind media.Kind, _ int64) ([]byte, error) {
	return b.Search(ctx, kind, "", media.NoYear)
}

func TestClientBoundsInFlightRequests(t *testing.T) {
	svc := &blockingService{release: make(chan struct{})}
	client := NewClient(svc, Options{MaxInFlight: 2, Burst: 10, Backoff: testBackoff()})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Resolve(context.Background(), NewRequest(media.KindMovie, "Heat", media.NoYear))
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for svc.active.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(svc.release)
	wg.Wait()

	if peak := svc.peak.Load(); peak != 2 {
		t.Fatalf("peak in-flight = %d, want 2", peak)
	}
}

func TestLimiterSpacesRequests(t *testing.T) {
	limiter := NewLimiter(20*time.Millisecond, 1, 4)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 4; i++ {
		release, err := limiter.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		release()
		release()
	}
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Fatalf("4 acquisitions took %v, want at least 3 spacings", elapsed)
	}
}

func TestRequestEquivalence(t *testing.T) {
	a := NewRequest(media.KindMovie, "Amélie", media.YearOf(2001))
	b := NewRequest(media.KindMovie, "  AMELIE ", media.YearOf(2001))
	if !a.Equivalent(b) || a.SearchKey() != b.SearchKey() {
		t.Fatalf("requests should be equivalent: %+v %+v", a, b)
	}
	if a.SearchKey() == a.WithoutYear().SearchKey() {
		t.Fatal("year must be part of the key")
	}
	if b.Query != "AMELIE" {
		t.Fatalf("Query = %q, want whitespace-collapsed raw title", b.Query)
	}
}

func TestRetryMachineTransitions(t *testing.T) {
	policy := Backoff{MaxAttempts: 2, Base: 10 * time.Millisecond, Factor: 2, Max: time.Second}
	transient := errors.New("503")

	tests := []struct {
		name     string
		outcomes []tmdb.Class
		errs     []error
		states   []retryState
	}{
		{
			name:     "success first try",
			outcomes: []tmdb.Class{tmdb.Permanent},
			errs:     []error{nil},
			states:   []retryState{stateSucceeded},
		},
		{
			name:     "transient then success",
			outcomes: []tmdb.Class{tmdb.Transient, tmdb.Permanent},
			errs:     []error{transient, nil},
			states:   []retryState{stateWaiting, stateSucceeded},
		},
		{
			name:     "exhausted",
			outcomes: []tmdb.Class{tmdb.Transient, tmdb.Transient},
			errs:     []error{transient, transient},
			states:   []retryState{stateWaiting, stateExhausted},
		},
		{
			name:     "permanent",
			outcomes: []tmdb.Class{tmdb.Permanent},
			errs:     []error{errors.New("401")},
			states:   []retryState{statePermanentFailure},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRetryMachine(policy)
			if m.finished() {
				t.Fatal("idle machine reported finished")
			}
			for i, class := range tt.outcomes {
				m.begin()
				m.record(tt.errs[i], class, 0)
				if m.state != tt.states[i] {
					t.Fatalf("step %d: state = %s, want %s", i, m.state, tt.states[i])
				}
				last := i == len(tt.outcomes)-1
				if m.finished() != last {
					t.Fatalf("step %d: finished = %v, want %v", i, m.finished(), last)
				}
				if !last && m.wait() != 10*time.Millisecond {
					t.Fatalf("step %d: wait = %v, want 10ms", i, m.wait())
				}
			}
			if m.attempts != len(tt.outcomes) {
				t.Fatalf("attempts = %d, want %d", m.attempts, len(tt.outcomes))
			}
		})
	}
}
