package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleTimeLayout is the local wall clock shown on console lines.
const consoleTimeLayout = time.DateTime

// field is a flattened attribute with a dotted key.
type field struct {
	key string
	val slog.Value
}

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO  classify[movie g3]: group resolved members=2 run=1a2b3c4d
type consoleHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	addSource bool
	prefix    string
	preset    []field
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) write(p []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := lw.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]field, len(h.preset), len(h.preset)+record.NumAttrs())
	copy(fields, h.preset)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	subj, fields := extractSubject(fields)
	fields = lastWins(fields)

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(when.Local().Format(consoleTimeLayout))
	buf.WriteByte(' ')
	buf.WriteString(levelTag(record.Level))
	buf.WriteByte(' ')
	if label := subj.label(); label != "" {
		buf.WriteString(label)
		buf.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(renderValue(f.val, true))
	}
	buf.WriteByte('\n')
	return h.out.write(buf.Bytes())
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func appendField(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	val := attr.Value.Resolve()
	if val.Kind() != slog.KindGroup {
		return append(dst, field{key: joinKey(prefix, attr.Key), val: val})
	}
	inner := prefix
	if attr.Key != "" {
		inner = joinKey(prefix, attr.Key)
	}
	for _, child := range val.Group() {
		dst = appendField(dst, inner, child)
	}
	return dst
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// lastWins collapses repeated keys to their final value, keeping the
// position of the first occurrence.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	pos := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, seen := pos[f.key]; seen {
			out[i] = f
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
