package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/wonny/newsviews/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
	}
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintInstrumentTable prints the dense per-instrument report
func PrintInstrumentTable(w io.Writer, results map[string]*pipeline.InstrumentResult) {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTRUMENT\tARTICLES\tPOS\tNEU\tNEG\tSCORE\tBAND\tVIEW")
	for _, id := range ids {
		r := results[id]
		d := r.Aggregate.Distribution
		band := string(r.View.Band)
		if r.Aggregate.UsedFallback {
			band += " (no signal)"
		}
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%+.3f\t%s\t%+.2f%%\n",
			id, r.Aggregate.ArticleCount, d.Positive, d.Neutral, d.Negative,
			r.View.Score, band, r.View.Adjustment*100)
	}
	_ = tw.Flush()
}

// PrintFailures prints instruments skipped during a run
func PrintFailures(failed map[string]string) {
	if len(failed) == 0 {
		return
	}
	ids := make([]string, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	PrintWarning(fmt.Sprintf("%d instrument(s) failed", len(failed)))
	for _, id := range ids {
		fmt.Fprintf(os.Stdout, "  %-8s %s\n", id, failed[id])
	}
}
