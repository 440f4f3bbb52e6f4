package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"vodsieve/internal/batching"
	"vodsieve/internal/config"
	"vodsieve/internal/lookup"
	"vodsieve/internal/lookupcache"
	"vodsieve/internal/media"
	"vodsieve/internal/tmdb"
)

type movieFixture struct {
	id       int64
	lang     string
	released []string
}

// fakeTMDB serves canned payloads and counts calls.
type fakeTMDB struct {
	mu       sync.Mutex
	movies   map[string]movieFixture
	shows    map[string][]tmdb.SearchResult
	tvDetail map[int64]tmdb.TVDetails
	searches map[string]int
	details  int
	err      error
	block    chan struct{}
	started  chan struct{}
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		movies:   make(map[string]movieFixture),
		shows:    make(map[string][]tmdb.SearchResult),
		tvDetail: make(map[int64]tmdb.TVDetails),
		searches: make(map[string]int),
	}
}

func searchKey(query string, year media.Year) string {
	if v, ok := year.Value(); ok {
		return fmt.Sprintf("%s|%d", strings.ToLower(query), v)
	}
	return strings.ToLower(query)
}

func (f *fakeTMDB) addMovie(query string, year media.Year, fx movieFixture) {
	f.movies[searchKey(query, year)] = fx
}

func (f *fakeTMDB) wait(ctx context.Context) error {
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeTMDB) Search(ctx context.Context, kind media.Kind, query string, year media.Year) ([]byte, error) {
	key := searchKey(query, year)
	f.mu.Lock()
	f.searches[key]++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	resp := tmdb.SearchResponse{Page: 1, Results: []tmdb.SearchResult{}}
	if kind == media.KindTV {
		resp.Results = append(resp.Results, f.shows[key]...)
	} else if fx, ok := f.movies[key]; ok {
		resp.Results = append(resp.Results, tmdb.SearchResult{ID: fx.id, Title: query, OriginalLanguage: fx.lang})
	}
	resp.TotalResults = len(resp.Results)
	return json.Marshal(resp)
}

func (f *fakeTMDB) Details(ctx context.Context, kind media.Kind, id int64) ([]byte, error) {
	f.mu.Lock()
	f.details++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if kind == media.KindTV {
		return json.Marshal(f.tvDetail[id])
	}
	for _, fx := range f.movies {
		if fx.id != id {
			continue
		}
		var body struct {
			ID           int64 `json:"id"`
			ReleaseDates struct {
				Results []map[string]string `json:"results"`
			} `json:"release_dates"`
		}
		body.ID = id
		for _, c := range fx.released {
			body.ReleaseDates.Results = append(body.ReleaseDates.Results, map[string]string{"iso_3166_1": c})
		}
		return json.Marshal(body)
	}
	return nil, &tmdb.StatusError{Op: "details", StatusCode: http.StatusNotFound}
}

func (f *fakeTMDB) searchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.searches {
		total += n
	}
	return total
}

func (f *fakeTMDB) detailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details
}

func newTestPipeline(t *testing.T, svc lookup.Service, store lookupcache.Store, mutate func(*Options)) *Pipeline {
	t.Helper()
	client := lookup.NewClient(svc, lookup.Options{
		MaxInFlight: 4,
		Backoff:     lookup.Backoff{MaxAttempts: 3, Base: time.Millisecond, Factor: 2, Max: 5 * time.Millisecond},
		Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
	opts := Options{
		Store:     store,
		Client:    client,
		Policy:    PolicyFromConfig(config.Default().Classify),
		Workers:   4,
		OnFailure: DecisionExcluded,
	}
	if mutate != nil {
		mutate(&opts)
	}
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func movie(title string, year int) media.Entry {
	e := media.Entry{Kind: media.KindMovie, Title: title}
	if year > 0 {
		e.Year = media.YearOf(year)
	}
	return e
}

func assertReconciles(t *testing.T, s RunStats) {
	t.Helper()
	if err := s.Check(); err != nil {
		t.Fatalf("stats do not reconcile: %v (%+v)", err, s)
	}
}

func TestRunBatchesDuplicatesAndSeparatesYears(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Heat", media.YearOf(1995), movieFixture{id: 949, lang: "en", released: []string{"US"}})
	svc.addMovie("Heat", media.YearOf(2025), movieFixture{id: 5000, lang: "fr", released: []string{"FR"}})
	// Holding the first responses keeps the duplicate from reading a cached
	// result before it joins its group.
	svc.block = make(chan struct{})
	time.AfterFunc(50*time.Millisecond, func() { close(svc.block) })
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)

	report, err := p.Run(context.Background(), []media.Entry{
		movie("Heat", 1995),
		movie("heat", 1995),
		movie("Heat", 2025),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := svc.searchCalls(); got != 2 {
		t.Fatalf("expected 2 search calls, got %d", got)
	}
	if got := svc.detailCalls(); got != 2 {
		t.Fatalf("expected 2 detail calls, got %d", got)
	}
	want := []Decision{DecisionAllowed, DecisionAllowed, DecisionExcluded}
	for i, res := range report.Results {
		if res.Decision != want[i] {
			t.Fatalf("result %d: expected %s, got %s (%s)", i, want[i], res.Decision, res.Reason)
		}
	}
	if report.Results[0].GroupID != report.Results[1].GroupID {
		t.Fatalf("expected duplicates to share a group")
	}
	if report.Results[0].GroupID == report.Results[2].GroupID {
		t.Fatalf("expected conflicting years in separate groups")
	}
	s := report.Stats
	if s.Groups != 2 || s.CallsIssued != 2 || s.BatchReuses != 1 || s.CallsSaved != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	assertReconciles(t, s)
}

func TestRunResolvesEachGroupOnceUnderConcurrency(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Alien", media.YearOf(1979), movieFixture{id: 348, lang: "en", released: []string{"US"}})
	svc.block = make(chan struct{})
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), func(o *Options) { o.Workers = 8 })

	entries := make([]media.Entry, 20)
	for i := range entries {
		entries[i] = movie("Alien", 1979)
	}
	time.AfterFunc(20*time.Millisecond, func() { close(svc.block) })
	report, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := svc.searchCalls(); got != 1 {
		t.Fatalf("expected one search call, got %d", got)
	}
	if got := svc.detailCalls(); got != 1 {
		t.Fatalf("expected one detail call, got %d", got)
	}
	if report.Stats.CallsIssued != 1 {
		t.Fatalf("expected one api-call entry, got %d", report.Stats.CallsIssued)
	}
	for i, res := range report.Results {
		if res.Decision != DecisionAllowed {
			t.Fatalf("result %d: expected allowed, got %s", i, res.Decision)
		}
	}
	assertReconciles(t, report.Stats)
}

func TestRunSecondPassIsServedFromCache(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Heat", media.YearOf(1995), movieFixture{id: 949, lang: "en", released: []string{"US"}})
	svc.addMovie("Amelie", media.NoYear, movieFixture{id: 194, lang: "fr", released: []string{"FR"}})
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)
	entries := []media.Entry{movie("Heat", 1995), movie("HEAT", 1995), movie("Amelie", 2001), movie("Unknown Film", 0)}

	first, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	searches, details := svc.searchCalls(), svc.detailCalls()

	second, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if svc.searchCalls() != searches || svc.detailCalls() != details {
		t.Fatalf("second run issued requests: searches %d->%d details %d->%d",
			searches, svc.searchCalls(), details, svc.detailCalls())
	}
	for i, res := range second.Results {
		if res.Source != SourceCacheHit {
			t.Fatalf("result %d: expected cache-hit, got %s", i, res.Source)
		}
		if res.Decision != first.Results[i].Decision {
			t.Fatalf("result %d: decision changed from %s to %s", i, first.Results[i].Decision, res.Decision)
		}
	}
	if second.Stats.CacheHits != len(entries) || second.Stats.APIRequests != 0 || second.Stats.CallsSaved != len(entries) {
		t.Fatalf("unexpected second run stats: %+v", second.Stats)
	}
	assertReconciles(t, second.Stats)
}

func TestRunFallsBackToSearchWithoutYear(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Amelie", media.NoYear, movieFixture{id: 194, lang: "fr", released: []string{"FR", "US"}})
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)

	report, err := p.Run(context.Background(), []media.Entry{movie("Amelie", 2001)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := report.Results[0]
	if res.Decision != DecisionAllowed || res.TMDBID != 194 {
		t.Fatalf("expected allowed via no-year search, got %+v", res)
	}
	if got := svc.searchCalls(); got != 2 {
		t.Fatalf("expected yearly and no-year searches, got %d", got)
	}
}

func TestRunCacheDoesNotChangeDecisions(t *testing.T) {
	entries := []media.Entry{
		movie("Heat", 1995),
		movie("Heat", 1995),
		movie("Amelie", 2001),
		movie("Spirited Away", 2001),
		movie("Nothing Here", 0),
		{Kind: media.KindDocumentary, Title: "Free Solo", Year: media.YearOf(2018)},
	}
	build := func() *fakeTMDB {
		svc := newFakeTMDB()
		svc.addMovie("Heat", media.YearOf(1995), movieFixture{id: 949, lang: "en", released: []string{"US"}})
		svc.addMovie("Amelie", media.YearOf(2001), movieFixture{id: 194, lang: "fr", released: []string{"FR"}})
		svc.addMovie("Spirited Away", media.YearOf(2001), movieFixture{id: 129, lang: "ja", released: []string{"JP", "US"}})
		svc.addMovie("Free Solo", media.YearOf(2018), movieFixture{id: 515042, lang: "en", released: []string{"GB"}})
		return svc
	}
	cached, err := newTestPipeline(t, build(), lookupcache.NewMemory(), nil).Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("cached Run: %v", err)
	}
	uncached, err := newTestPipeline(t, build(), lookupcache.Disabled{}, nil).Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("uncached Run: %v", err)
	}
	for i := range entries {
		a, b := cached.Results[i], uncached.Results[i]
		if a.Decision != b.Decision || a.Reason != b.Reason {
			t.Fatalf("entry %d differs: cached %s (%s), uncached %s (%s)", i, a.Decision, a.Reason, b.Decision, b.Reason)
		}
	}
	want := []Decision{DecisionAllowed, DecisionAllowed, DecisionExcluded, DecisionExcluded, DecisionExcluded, DecisionAllowed}
	for i, res := range cached.Results {
		if res.Decision != want[i] {
			t.Fatalf("entry %d: expected %s, got %s (%s)", i, want[i], res.Decision, res.Reason)
		}
	}
	if cached.Results[4].Reason != ReasonNoMatch {
		t.Fatalf("expected no match reason, got %q", cached.Results[4].Reason)
	}
}

func show(title string, year int) media.Entry {
	e := media.Entry{Kind: media.KindTV, Title: title}
	if year > 0 {
		e.Year = media.YearOf(year)
	}
	return e
}

func TestRunMixedYearGroupSharesOneDecision(t *testing.T) {
	// The undated search returns two shows. Candidate selection without a year
	// picks the popular Japanese one; with 2010 it would pick the US one.
	entries := []media.Entry{
		show("Show", 0),
		show("Zzqx Other", 0),
		show("Show", 2010),
	}
	build := func() *fakeTMDB {
		svc := newFakeTMDB()
		jp := tmdb.SearchResult{ID: 1, Name: "Show", FirstAirDate: "2005-04-01", Popularity: 10, OriginalLanguage: "de"}
		us := tmdb.SearchResult{ID: 2, Name: "Show", FirstAirDate: "2010-09-01", Popularity: 1, OriginalLanguage: "de"}
		svc.shows[searchKey("Show", media.NoYear)] = []tmdb.SearchResult{jp, us}
		svc.shows[searchKey("Zzqx Other", media.NoYear)] = []tmdb.SearchResult{us}
		svc.tvDetail[1] = tmdb.TVDetails{ID: 1, OriginCountry: []string{"JP"}}
		svc.tvDetail[2] = tmdb.TVDetails{ID: 2, Networks: []tmdb.Network{{Name: "HBO", OriginCountry: []string{"US"}}}}
		return svc
	}
	oneWorker := func(o *Options) { o.Workers = 1 }

	store := lookupcache.NewMemory()
	cachedPipeline := newTestPipeline(t, build(), store, oneWorker)
	var passes []*Report
	for pass := 0; pass < 2; pass++ {
		report, err := cachedPipeline.Run(context.Background(), entries)
		if err != nil {
			t.Fatalf("cached Run %d: %v", pass, err)
		}
		passes = append(passes, report)
	}
	uncached, err := newTestPipeline(t, build(), lookupcache.Disabled{}, oneWorker).Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("uncached Run: %v", err)
	}
	passes = append(passes, uncached)

	for n, report := range passes {
		first, member := report.Results[0], report.Results[2]
		if first.GroupID != member.GroupID {
			t.Fatalf("pass %d: expected one group for both Show entries, got %d and %d", n, first.GroupID, member.GroupID)
		}
		if first.Decision != DecisionExcluded || member.Decision != first.Decision || member.TMDBID != first.TMDBID {
			t.Fatalf("pass %d: group members disagree: %s/%d (%s) vs %s/%d (%s)", n,
				first.Decision, first.TMDBID, first.Source, member.Decision, member.TMDBID, member.Source)
		}
		if other := report.Results[1]; other.Decision != DecisionAllowed {
			t.Fatalf("pass %d: expected unrelated show allowed, got %+v", n, other)
		}
		assertReconciles(t, report.Stats)
	}
	if _, ok, _ := store.Get(context.Background(), lookupcache.TableSearch, lookup.RequestFor(entries[2]).SearchKey()); ok {
		t.Fatal("dated member key must not hold the undated group's search payload")
	}
}

func TestRunAppliesDefaultPolicyOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		onFailure Decision
		lookup    int
		permanent int
	}{
		{"exhausted allow", &tmdb.StatusError{Op: "search", StatusCode: http.StatusServiceUnavailable}, DecisionAllowed, 1, 0},
		{"exhausted exclude", &tmdb.StatusError{Op: "search", StatusCode: http.StatusTooManyRequests}, DecisionExcluded, 1, 0},
		{"permanent", &tmdb.StatusError{Op: "search", StatusCode: http.StatusUnauthorized}, DecisionAllowed, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeTMDB()
			svc.err = tt.err
			p := newTestPipeline(t, svc, lookupcache.NewMemory(), func(o *Options) { o.OnFailure = tt.onFailure })

			report, err := p.Run(context.Background(), []media.Entry{movie("Heat", 1995), movie("Heat", 1995)})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			for i, res := range report.Results {
				if res.Decision != tt.onFailure || !res.ByDefaultPolicy || res.Reason != ReasonDefaultPolicy {
					t.Fatalf("result %d: unexpected %+v", i, res)
				}
			}
			s := report.Stats
			if s.LookupFailures != tt.lookup || s.PermanentFailures != tt.permanent {
				t.Fatalf("unexpected failure counts: %+v", s)
			}
			if s.DefaultPolicy != 2 {
				t.Fatalf("expected 2 default-policy entries, got %d", s.DefaultPolicy)
			}
			assertReconciles(t, s)
		})
	}
}

func TestRunFailureIsNotCached(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Heat", media.YearOf(1995), movieFixture{id: 949, lang: "en", released: []string{"US"}})
	svc.err = &tmdb.StatusError{Op: "search", StatusCode: http.StatusBadGateway}
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)
	entries := []media.Entry{movie("Heat", 1995)}

	if _, err := p.Run(context.Background(), entries); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	svc.err = nil
	report, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res := report.Results[0]; res.Decision != DecisionAllowed || res.Source != SourceAPICall {
		t.Fatalf("expected a fresh successful lookup, got %+v", res)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	svc := newFakeTMDB()
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, []media.Entry{movie("Heat", 1995), movie("Alien", 1979), {Kind: media.KindMovie}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected a complete report, got %d results", len(report.Results))
	}
	for i, res := range report.Results[:2] {
		if res.Decision != DecisionUnresolved {
			t.Fatalf("result %d: expected unresolved, got %s", i, res.Decision)
		}
	}
	if report.Results[2].Reason != ReasonMalformed {
		t.Fatalf("expected malformed entry to be screened, got %+v", report.Results[2])
	}
	if svc.searchCalls() != 0 {
		t.Fatalf("expected no requests after cancellation")
	}
	if report.Stats.Unresolved != 2 {
		t.Fatalf("expected 2 unresolved, got %d", report.Stats.Unresolved)
	}
	assertReconciles(t, report.Stats)
}

func TestRunCancelledDuringLookup(t *testing.T) {
	svc := newFakeTMDB()
	svc.block = make(chan struct{})
	svc.started = make(chan struct{}, 1)
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-svc.started
		cancel()
	}()

	report, err := p.Run(ctx, []media.Entry{movie("Heat", 1995), movie("Heat", 1995)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for i, res := range report.Results {
		if res.Decision != DecisionUnresolved || res.ByDefaultPolicy {
			t.Fatalf("result %d: expected unresolved without default policy, got %+v", i, res)
		}
	}
	if report.Stats.LookupFailures != 0 || report.Stats.PermanentFailures != 0 {
		t.Fatalf("cancellation counted as failure: %+v", report.Stats)
	}
	assertReconciles(t, report.Stats)
}

func TestRunScreensEntries(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("Heat", media.YearOf(1995), movieFixture{id: 949, lang: "en", released: []string{"US"}})
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), func(o *Options) {
		o.Ignore = IgnoreList{media.KindMovie: {"trailer"}}
		o.PreFilter = NewPreFilter(0.9, nil)
	})

	report, err := p.Run(context.Background(), []media.Entry{
		movie("Heat", 1995),
		movie("  ", 2000),
		{Kind: media.Kind("radio"), Title: "News"},
		movie("Heat Official Trailer", 1995),
		movie("進撃の巨人", 2013),
		{Kind: media.KindMovie, Title: "Alien", Problem: "line 6: parse year \"soon\""},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := svc.searchCalls(); got != 1 {
		t.Fatalf("expected screened entries to skip lookups, got %d searches", got)
	}
	for i, res := range report.Results[1:] {
		if res.Decision != DecisionExcluded || res.Source != SourceSkipped {
			t.Fatalf("result %d: expected skipped exclusion, got %+v", i+1, res)
		}
	}
	s := report.Stats
	if got := report.Results[5].Reason; got != "malformed entry: line 6: parse year \"soon\"" {
		t.Fatalf("unexpected malformed reason %q", got)
	}
	if s.Malformed != 3 || s.Ignored != 1 || s.PreFiltered != 1 || s.TotalEntries != 1 {
		t.Fatalf("unexpected screening stats: %+v", s)
	}
	if s.PreFilterByDetector["japanese_characters"] != 1 {
		t.Fatalf("expected detector count, got %v", s.PreFilterByDetector)
	}
	assertReconciles(t, s)
}

func TestRunFuzzyGroupSharesResolution(t *testing.T) {
	svc := newFakeTMDB()
	svc.addMovie("The Lord of the Rings", media.YearOf(2001), movieFixture{id: 120, lang: "en", released: []string{"US"}})
	cmp, err := batching.NewComparator("sequence", 0.85)
	if err != nil {
		t.Fatalf("NewComparator: %v", err)
	}
	svc.block = make(chan struct{})
	time.AfterFunc(50*time.Millisecond, func() { close(svc.block) })
	p := newTestPipeline(t, svc, lookupcache.NewMemory(), func(o *Options) { o.Batcher = batching.New(cmp) })

	report, err := p.Run(context.Background(), []media.Entry{
		movie("The Lord of the Rings", 2001),
		movie("The Lord of the Ring", 2001),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := svc.searchCalls(); got != 1 {
		t.Fatalf("expected one search for the fuzzy group, got %d", got)
	}
	// Either worker may resolve the group; the other reuses its result.
	sources := map[Source]int{}
	for i, res := range report.Results {
		if res.Decision != DecisionAllowed {
			t.Fatalf("result %d: expected allowed, got %+v", i, res)
		}
		sources[res.Source]++
	}
	if sources[SourceAPICall] != 1 || sources[SourceBatchMember] != 1 {
		t.Fatalf("expected one api-call and one batch-member, got %v", sources)
	}

	// The member's own key is cached, so it hits alone.
	svcCount := svc.searchCalls()
	again, err := p.Run(context.Background(), []media.Entry{movie("The Lord of the Ring", 2001)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.searchCalls() != svcCount || again.Results[0].Source != SourceCacheHit {
		t.Fatalf("expected member key to be cached, got %+v", again.Results[0])
	}
}

func TestNewValidatesOptions(t *testing.T) {
	client := lookup.NewClient(newFakeTMDB(), lookup.Options{})
	tests := []struct {
		name string
		opts Options
	}{
		{"no client", Options{Workers: 1, OnFailure: DecisionExcluded}},
		{"no workers", Options{Client: client, OnFailure: DecisionExcluded}},
		{"bad default", Options{Client: client, Workers: 1, OnFailure: DecisionUnresolved}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Classify.OnFailure = config.OnFailureAllow
	cfg.PreFilter.Enabled = true
	p, err := NewFromConfig(&cfg, lookupcache.NewMemory(), newFakeTMDB(), nil)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if p.onFailure != DecisionAllowed || p.prefilter == nil || p.workers != cfg.Classify.Workers {
		t.Fatalf("unexpected pipeline: onFailure=%s prefilter=%v workers=%d", p.onFailure, p.prefilter != nil, p.workers)
	}

	cfg.Batching.Algorithm = "soundex"
	if _, err := NewFromConfig(&cfg, nil, newFakeTMDB(), nil); err == nil {
		t.Fatal("expected unknown algorithm to fail")
	}
}
