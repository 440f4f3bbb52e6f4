package media

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format names an entry stream encoding.
type Format string

const (
	FormatJSONLines Format = "jsonl"
	FormatTSV       Format = "tsv"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "jsonl", "json", "ndjson":
		return FormatJSONLines, nil
	case "tsv", "tab":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unsupported entry format %q", value)
	}
}

type jsonEntry struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Year     Year   `json:"year"`
	SourceID string `json:"source_id"`
}

// Decode reads entries from r. Blank lines and lines starting with '#' are
// skipped. A trailing year in the title is extracted when no year column is
// given. A line that cannot be decoded still yields an entry, with Problem
// describing the failure; only read errors are returned.
func Decode(r io.Reader, format Format) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var (
			entry Entry
			err   error
		)
		switch format {
		case FormatTSV:
			entry, err = decodeTSV(line)
		default:
			entry, err = decodeJSON(line)
		}
		if err != nil {
			entry.Problem = fmt.Sprintf("line %d: %v", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}

func decodeJSON(line string) (Entry, error) {
	var raw jsonEntry
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return rawEntry(raw.Kind, raw.Title, raw.SourceID), err
	}
	return newEntry(kind, raw.Title, raw.Year, raw.SourceID), nil
}

func decodeTSV(line string) (Entry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return Entry{}, fmt.Errorf("expected at least kind and title columns, got %d", len(fields))
	}
	var source string
	if len(fields) > 3 {
		source = strings.TrimSpace(fields[3])
	}
	kind, err := ParseKind(fields[0])
	if err != nil {
		return rawEntry(fields[0], fields[1], source), err
	}
	year := NoYear
	if len(fields) > 2 {
		if year, err = ParseYear(fields[2]); err != nil {
			return rawEntry(fields[0], fields[1], source), fmt.Errorf("parse year %q: %w", fields[2], err)
		}
	}
	return newEntry(kind, fields[1], year, source), nil
}

// rawEntry keeps the readable fields of a line that failed to decode.
func rawEntry(kind, title, source string) Entry {
	return Entry{
		Kind:     Kind(strings.ToLower(strings.TrimSpace(kind))),
		Title:    strings.TrimSpace(title),
		SourceID: strings.TrimSpace(source),
	}
}

func newEntry(kind Kind, title string, year Year, source string) Entry {
	title = strings.TrimSpace(title)
	if !year.Known() {
		title, year = SplitTitleYear(title)
	}
	return Entry{Kind: kind, Title: title, Year: year, SourceID: source}
}
