// Package lookupkey derives canonical cache keys for TMDB lookups.
//
// Keys are SHA-256 digests over a length-prefixed canonical form, so they are
// stable across processes and cannot collide through delimiter injection. The
// title is normalized with textutil.NormalizeTitle before hashing.
package lookupkey

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"vodsieve/internal/media"
	"vodsieve/internal/textutil"
)

// Key is a 64-character hex digest.
type Key string

func (k Key) String() string { return string(k) }

// Short returns a prefix suitable for log lines.
func (k Key) Short() string {
	if len(k) <= 12 {
		return string(k)
	}
	return string(k[:12])
}

// noYear is the key component used when the year is absent.
const noYear = "y:none"

// BuildSearchKey returns the key for a search lookup.
func BuildSearchKey(kind media.Kind, title string, year media.Year) Key {
	return BuildNormalizedSearchKey(kind, textutil.NormalizeTitle(title), year)
}

// BuildNormalizedSearchKey is BuildSearchKey for a title that is already
// normalized.
func BuildNormalizedSearchKey(kind media.Kind, normalized string, year media.Year) Key {
	yearPart := noYear
	if y, ok := year.Value(); ok {
		yearPart = "y:" + strconv.Itoa(y)
	}
	return digest("search", string(kind), normalized, yearPart)
}

// BuildDetailKey returns the key for a detail lookup of externalID.
func BuildDetailKey(kind media.Kind, externalID int64) Key {
	return digest("detail", string(kind), strconv.FormatInt(externalID, 10))
}

func digest(parts ...string) Key {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}
