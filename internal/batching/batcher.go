package batching

import (
	"vodsieve/internal/lookup"
	"vodsieve/internal/media"
)

// Group is a set of entries resolved by one lookup.
type Group struct {
	ID             int
	Kind           media.Kind
	Representative lookup.Request
	// Members are indexes into the grouped slice, in input order. The
	// representative is always Members[0].
	Members []int
	// Year is the first known year among the members. It is unknown only
	// when no member has a year.
	Year media.Year
}

// Size returns the number of members.
func (g Group) Size() int { return len(g.Members) }

// Batcher partitions requests into groups.
type Batcher struct {
	cmp Comparator
}

// New returns a batcher using cmp. A nil cmp groups exact matches only.
func New(cmp Comparator) *Batcher {
	if cmp == nil {
		cmp = ExactComparator{}
	}
	return &Batcher{cmp: cmp}
}

// Group builds requests from entries and groups them.
func (b *Batcher) Group(entries []media.Entry) []Group {
	reqs := make([]lookup.Request, len(entries))
	for i, entry := range entries {
		reqs[i] = lookup.RequestFor(entry)
	}
	return b.GroupRequests(reqs)
}

type kindState struct {
	// groups holds indexes into the result slice in creation order.
	groups []int
	// exact maps a representative title to its groups, in creation order.
	exact map[string][]int
}

// GroupRequests partitions reqs. Group IDs are assigned from 1 in creation
// order.
func (b *Batcher) GroupRequests(reqs []lookup.Request) []Group {
	var out []Group
	states := make(map[media.Kind]*kindState)

	for i, req := range reqs {
		state := states[req.Kind]
		if state == nil {
			state = &kindState{exact: make(map[string][]int)}
			states[req.Kind] = state
		}

		if target, ok := b.match(out, state, req); ok {
			g := &out[target]
			g.Members = append(g.Members, i)
			if !g.Year.Known() {
				g.Year = req.Year
			}
			continue
		}

		idx := len(out)
		out = append(out, Group{
			ID:             idx + 1,
			Kind:           req.Kind,
			Representative: req,
			Members:        []int{i},
			Year:           req.Year,
		})
		state.groups = append(state.groups, idx)
		state.exact[req.Title] = append(state.exact[req.Title], idx)
	}
	return out
}

// match returns the earliest group of the request's kind whose
// representative is similar and whose members carry no year that conflicts
// with the request's. An exact title match found through the index bounds
// the fuzzy scan to groups created before it.
func (b *Batcher) match(groups []Group, state *kindState, req lookup.Request) (int, bool) {
	limit := len(groups)
	exactHit := -1
	for _, idx := range state.exact[req.Title] {
		if !groups[idx].Year.Conflicts(req.Year) {
			exactHit = idx
			limit = idx
			break
		}
	}

	for _, idx := range state.groups {
		if idx >= limit {
			break
		}
		g := groups[idx]
		if g.Year.Conflicts(req.Year) {
			continue
		}
		if b.cmp.Similar(g.Representative.Title, req.Title) {
			return idx, true
		}
	}
	if exactHit >= 0 {
		return exactHit, true
	}
	return 0, false
}
