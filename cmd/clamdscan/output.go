package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	clamd "github.com/DevHatRo/clamd-sdk-go"
)

type scanSummary struct {
	scanned  int
	infected int
	errors   int
}

func summarize(results []*clamd.ScanResult) scanSummary {
	var s scanSummary
	for _, r := range results {
		s.scanned++
		switch r.Status {
		case clamd.StatusFound:
			s.infected++
		case clamd.StatusError:
			s.errors++
		}
	}
	return s
}

// renderResults prints a table on terminals and clamdscan-style lines
// otherwise. Results are sorted by label so output is stable.
func renderResults(w io.Writer, results []*clamd.ScanResult, infectedOnly bool) {
	sorted := make([]*clamd.ScanResult, 0, len(results))
	for _, r := range results {
		if infectedOnly && !r.IsInfected() {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Filename < sorted[j].Filename
	})

	if !isTerminal(w) {
		for _, r := range sorted {
			fmt.Fprintln(w, resultLine(r))
		}
		return
	}
	if len(sorted) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Status", "Detail", "Time"})
	for _, r := range sorted {
		elapsed := ""
		if r.ScanTime > 0 {
			elapsed = r.ScanTime.Round(time.Millisecond).String()
		}
		tw.AppendRow(table.Row{r.Filename, r.Status, r.Message, elapsed})
	}
	fmt.Fprintln(w, tw.Render())
}

// resultLine formats a result the way clamd itself reports it.
func resultLine(r *clamd.ScanResult) string {
	switch r.Status {
	case clamd.StatusOK:
		return r.Filename + ": OK"
	case clamd.StatusFound:
		return r.Filename + ": " + r.Message + " FOUND"
	default:
		return r.Filename + ": " + r.Message + " ERROR"
	}
}

func renderSummary(w io.Writer, s scanSummary) {
	fmt.Fprintf(w, "\n----------- SCAN SUMMARY -----------\n")
	fmt.Fprintf(w, "Scanned files: %d\n", s.scanned)
	fmt.Fprintf(w, "Infected files: %d\n", s.infected)
	fmt.Fprintf(w, "Total errors: %d\n", s.errors)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
