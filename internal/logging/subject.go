package logging

import (
	"log/slog"
	"strings"
)

// runIDPrefix is how much of a run id the console shows.
const runIDPrefix = 8

// subject is the console line prefix: the component, qualified by the media
// kind and batch group being worked on.
type subject struct {
	component string
	kind      string
	group     string
	run       string
}

// extractSubject pulls the subject fields out of fields. The first occurrence
// of each wins; the rest are dropped.
func extractSubject(fields []field) (subject, []field) {
	var s subject
	filtered := fields[:0]
	for _, f := range fields {
		var dst *string
		switch f.key {
		case FieldComponent:
			dst = &s.component
		case FieldMediaKind:
			dst = &s.kind
		case FieldGroupID:
			dst = &s.group
		case FieldRunID:
			dst = &s.run
		default:
			filtered = append(filtered, f)
			continue
		}
		if *dst == "" {
			*dst = renderValue(f.val, false)
		}
	}
	if s.run != "" {
		filtered = append(filtered, field{key: "run", val: slog.StringValue(shortRunID(s.run))})
	}
	return s, filtered
}

func (s subject) label() string {
	if s.component == "" {
		return ""
	}
	var qualifiers []string
	if s.kind != "" {
		qualifiers = append(qualifiers, s.kind)
	}
	if s.group != "" {
		qualifiers = append(qualifiers, "g"+s.group)
	}
	if len(qualifiers) == 0 {
		return s.component
	}
	return s.component + "[" + strings.Join(qualifiers, " ") + "]"
}

func shortRunID(id string) string {
	if len(id) > runIDPrefix {
		return id[:runIDPrefix]
	}
	return id
}
