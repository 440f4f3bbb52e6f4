package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"vodsieve/internal/classify"
)

const (
	ansiBold  = "\033[1m"
	ansiBlue  = "\033[34m"
	ansiReset = "\033[0m"
)

func headerLines(title string, colorize bool) []string {
	rule := strings.Repeat("-", len(title))
	if colorize {
		title = ansiBold + ansiBlue + title + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{title, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printSummary(out io.Writer, report *classify.Report) {
	for _, line := range headerLines("Classification summary", shouldColorize(out)) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Run:      %s\n", report.RunID)
	fmt.Fprintf(out, "Duration: %s\n", report.Duration.Round(time.Millisecond))

	s := report.Stats
	rows := [][]string{
		{"Received", itoa(s.Received)},
		{"Allowed", itoa(s.Allowed)},
		{"Excluded", itoa(s.Excluded)},
		{"Unresolved", itoa(s.Unresolved)},
		{"Groups", itoa(s.Groups)},
		{"Cache hits", itoa(s.CacheHits)},
		{"Calls issued", itoa(s.CallsIssued)},
		{"Batch reuses", itoa(s.BatchReuses)},
		{"Calls saved", itoa(s.CallsSaved)},
		{"API requests", strconv.FormatInt(s.APIRequests, 10)},
		{"Retries", strconv.FormatInt(s.Retries, 10)},
		{"Default policy", itoa(s.DefaultPolicy)},
		{"Malformed", itoa(s.Malformed)},
		{"Ignored", itoa(s.Ignored)},
		{"Pre-filtered", itoa(s.PreFiltered)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if failures := nonZero(s.Failures()); len(failures) > 0 {
		fmt.Fprintln(out, "Failures:")
		fmt.Fprintln(out, renderTable([]string{"Kind", "Count"}, failures, []columnAlignment{alignLeft, alignRight}))
	}
	if len(s.PreFilterByDetector) > 0 {
		detectors := make([][]string, 0, len(s.PreFilterByDetector))
		for name, n := range s.PreFilterByDetector {
			detectors = append(detectors, []string{name, itoa(n)})
		}
		sort.Slice(detectors, func(i, j int) bool { return detectors[i][0] < detectors[j][0] })
		fmt.Fprintln(out, "Pre-filter detectors:")
		fmt.Fprintln(out, renderTable([]string{"Detector", "Count"}, detectors, []columnAlignment{alignLeft, alignRight}))
	}
}

func nonZero(counts map[string]int64) [][]string {
	var rows [][]string
	for kind, n := range counts {
		if n > 0 {
			rows = append(rows, []string{kind, strconv.FormatInt(n, 10)})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

func itoa(v int) string { return strconv.Itoa(v) }
