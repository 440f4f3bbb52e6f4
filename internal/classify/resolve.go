package classify

import (
	"context"
	"fmt"

	"vodsieve/internal/batching"
	"vodsieve/internal/logging"
	"vodsieve/internal/lookup"
	"vodsieve/internal/lookupcache"
	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
	"vodsieve/internal/services"
	"vodsieve/internal/tmdb"
)

func validSearch(payload []byte) error {
	_, err := tmdb.DecodeSearch(payload)
	return err
}

func validDetails(kind media.Kind) func([]byte) error {
	return func(payload []byte) error {
		var err error
		if kind.UsesMovieEndpoints() {
			_, err = tmdb.DecodeMovieDetails(payload)
		} else {
			_, err = tmdb.DecodeTVDetails(payload)
		}
		return err
	}
}

// cachedSearch reads and decodes a search payload. Undecodable payloads are
// misses.
func (r *run) cachedSearch(ctx context.Context, req lookup.Request) (*tmdb.SearchResponse, bool) {
	payload, ok, _ := r.p.cache.Get(ctx, lookupcache.TableSearch, req.SearchKey())
	if !ok {
		return nil, false
	}
	resp, err := tmdb.DecodeSearch(payload)
	if err != nil {
		return nil, false
	}
	return resp, true
}

// cachedOutcome decides req from the cache alone. It succeeds only when every
// payload the decision needs is cached.
func (r *run) cachedOutcome(ctx context.Context, req lookup.Request) (outcome, bool) {
	resp, ok := r.cachedSearch(ctx, req)
	if !ok {
		return outcome{}, false
	}
	if len(resp.Results) == 0 && req.Year.Known() {
		if resp, ok = r.cachedSearch(ctx, req.WithoutYear()); !ok {
			return outcome{}, false
		}
	}
	best, ok := r.p.policy.pick(req.Kind, req.Year, resp.Results)
	if !ok {
		return noMatch(), true
	}
	if out, ok := r.p.policy.preliminary(req.Kind, best); ok {
		return out, true
	}
	payload, ok, _ := r.p.cache.Get(ctx, lookupcache.TableDetail, lookupkey.BuildDetailKey(req.Kind, best.ID))
	if !ok {
		return outcome{}, false
	}
	out, err := r.p.policy.decideDetails(req.Kind, best, payload)
	if err != nil {
		return outcome{}, false
	}
	return out, true
}

// readThrough returns the cached payload for key or fetches and stores it.
// fetched reports whether an external request was made.
func (r *run) readThrough(
	ctx context.Context,
	table lookupcache.Table,
	kind media.Kind,
	key lookupkey.Key,
	fetch func(context.Context) ([]byte, error),
	validate func([]byte) error,
) (payload []byte, fetched bool, err error) {
	if cached, ok, _ := r.p.cache.Get(ctx, table, key); ok && validate(cached) == nil {
		return cached, false, nil
	}
	payload, err = fetch(ctx)
	if err != nil {
		return nil, true, err
	}
	if err := validate(payload); err != nil {
		return nil, true, services.Wrap(services.ErrPermanent, "classify", "decode "+string(table), "invalid payload", err)
	}
	_ = r.p.cache.Put(ctx, table, kind, key, payload, r.p.ttl)
	return payload, true, nil
}

func (r *run) search(ctx context.Context, req lookup.Request) ([]byte, bool, error) {
	return r.readThrough(ctx, lookupcache.TableSearch, req.Kind, req.SearchKey(),
		func(ctx context.Context) ([]byte, error) { return r.p.client.Resolve(ctx, req) },
		validSearch,
	)
}

type detailResult struct {
	payload []byte
	fetched bool
}

// details fetches a detail payload; concurrent callers for the same id share
// one read-through.
func (r *run) details(ctx context.Context, kind media.Kind, id int64) ([]byte, bool, error) {
	key := lookupkey.BuildDetailKey(kind, id)
	v, err, _ := r.detailFlight.Do(string(key), func() (any, error) {
		payload, fetched, err := r.readThrough(ctx, lookupcache.TableDetail, kind, key,
			func(ctx context.Context) ([]byte, error) { return r.p.client.ResolveDetail(ctx, kind, id) },
			validDetails(kind),
		)
		return detailResult{payload: payload, fetched: fetched}, err
	})
	res, _ := v.(detailResult)
	if err != nil {
		return nil, true, err
	}
	return res.payload, res.fetched, nil
}

// resolveGroup resolves the group representative and records the outcome in
// state. It runs once per group.
func (r *run) resolveGroup(ctx context.Context, state *groupState) {
	g := state.group
	gctx := services.WithGroupID(services.WithKind(ctx, string(g.Kind)), g.ID)
	logger := logging.WithContext(gctx, r.p.logger)

	out, searchPayload, fetched, err := r.resolveRequest(gctx, g.Representative)
	state.fetched = fetched
	if err != nil {
		state.err = err
		if isFailureCancellation(ctx, err) {
			state.cancelled = true
			return
		}
		r.stats.update(func(s *RunStats) {
			if services.FailureKind(err) == services.FailureLookupFailed {
				s.LookupFailures++
			} else {
				s.PermanentFailures++
			}
		})
		logging.WarnWithContext(logger, "lookup failed; default policy applied", services.FailureKind(err),
			logging.String("title", g.Representative.Query),
			logging.Int("members", g.Size()),
			logging.String("default_decision", string(r.p.onFailure)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check TMDB status and tmdb.api_key; rerun to retry"),
			logging.String(logging.FieldImpact, fmt.Sprintf("%d entries classified by classify.on_failure", g.Size())),
		)
		return
	}
	state.out = out
	r.writeMemberKeys(gctx, g, searchPayload)
	logger.Debug("group resolved",
		logging.String("title", g.Representative.Query),
		logging.Int("members", g.Size()),
		logging.Bool("fetched", fetched),
		logging.String("decision", string(out.decision)),
	)
}

// resolveRequest runs search, the no-year fallback, and details as needed.
// searchPayload is the search response the decision was based on.
func (r *run) resolveRequest(ctx context.Context, req lookup.Request) (out outcome, searchPayload []byte, fetched bool, err error) {
	payload, f, err := r.search(ctx, req)
	fetched = f
	if err != nil {
		return outcome{}, nil, fetched, err
	}
	resp, err := tmdb.DecodeSearch(payload)
	if err != nil {
		return outcome{}, nil, fetched, err
	}
	if len(resp.Results) == 0 && req.Year.Known() {
		payload, f, err = r.search(ctx, req.WithoutYear())
		fetched = fetched || f
		if err != nil {
			return outcome{}, nil, fetched, err
		}
		if resp, err = tmdb.DecodeSearch(payload); err != nil {
			return outcome{}, nil, fetched, err
		}
	}

	best, ok := r.p.policy.pick(req.Kind, req.Year, resp.Results)
	if !ok {
		return noMatch(), payload, fetched, nil
	}
	if out, ok := r.p.policy.preliminary(req.Kind, best); ok {
		return out, payload, fetched, nil
	}
	detailPayload, f, err := r.details(ctx, req.Kind, best.ID)
	fetched = fetched || f
	if err != nil {
		return outcome{}, nil, fetched, err
	}
	out, err = r.p.policy.decideDetails(req.Kind, best, detailPayload)
	if err != nil {
		return outcome{}, nil, fetched, services.Wrap(services.ErrPermanent, "classify", "decode details", "invalid payload", err)
	}
	return out, payload, fetched, nil
}

// writeMemberKeys stores the deciding search payload under the search key of
// every member that shares the representative's year, so later runs hit the
// cache for each title variant. Members with a different year are left out:
// candidate selection depends on the year, and a cached decision must match
// the one the group made.
func (r *run) writeMemberKeys(ctx context.Context, g batching.Group, payload []byte) {
	if len(payload) == 0 {
		return
	}
	rep := g.Representative
	empty := false
	if resp, err := tmdb.DecodeSearch(payload); err == nil && len(resp.Results) == 0 {
		empty = true
	}
	written := map[lookupkey.Key]bool{rep.SearchKey(): true}
	put := func(key lookupkey.Key) {
		if written[key] {
			return
		}
		written[key] = true
		_ = r.p.cache.Put(ctx, lookupcache.TableSearch, rep.Kind, key, payload, r.p.ttl)
	}
	for _, m := range g.Members[1:] {
		req := r.reqs[m]
		if !req.Year.Equal(rep.Year) {
			continue
		}
		put(req.SearchKey())
		if empty && req.Year.Known() {
			put(req.WithoutYear().SearchKey())
		}
	}
}
