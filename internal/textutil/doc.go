// Package textutil provides the title normalization and string similarity
// metrics shared by the cache key builder and the fuzzy batcher.
//
// NormalizeTitle is the single normalization rule set: when two titles
// normalize to the same string they produce the same lookup key and the
// similarity metrics score them 1.0. The metrics are:
//   - sequence: Ratcliff/Obershelp matching-block ratio over runes
//   - token_set: token-set ratio (order and duplicate insensitive)
//   - cosine: cosine similarity of term-frequency fingerprints
package textutil
