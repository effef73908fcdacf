package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var counts = message.NewPrinter(language.English)

func PrintIntro(w io.Writer, r *Report) {
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintln(w, "  Primary Key Strategy Benchmark")
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintf(w, "  Engine       : %s\n", r.Engine)
	fmt.Fprintf(w, "  Insert count : %s\n", counts.Sprintf("%d", r.InsertCount))
	fmt.Fprintf(w, "  Run count    : %d\n", r.RunCount)
	fmt.Fprintf(w, "  Table size   : %s\n", r.Profile)
	fmt.Fprintf(w, "  Strategy     : %s\n", r.Strategy)
	fmt.Fprintf(w, "  Seed         : %d\n\n", r.Seed)
}

func PrintVariantIntro(w io.Writer, insertCount, runCount int, variant string) {
	fmt.Fprintf(w, "\nInserting %s lines using %s %d times\n",
		counts.Sprintf("%d", insertCount), variant, runCount)
}

func PrintSteadyState(w io.Writer, spread, tolerance float64) {
	fmt.Fprintf(w, "\n── Steady-State Check ──\n")
	fmt.Fprintf(w, "  Max insert deviation: %.1f%%\n", spread*100)
	if spread <= tolerance {
		fmt.Fprintf(w, "  ✅ PASSED (within ±%.0f%%)\n", tolerance*100)
	} else {
		fmt.Fprintf(w, "  ⚠️  FAILED (%.1f%% > %.0f%%), results still reported as median\n", spread*100, tolerance*100)
	}
}

func PrintTrials(w io.Writer, a AggregatedResult) {
	fmt.Fprintf(w, "\n╔═════╦══════════╦════════════╦════════════╦════════════╗\n")
	fmt.Fprintf(w, "║ Run ║  Frag %%  ║   Insert   ║  Sel. hit  ║ Sel. miss  ║\n")
	fmt.Fprintf(w, "╠═════╬══════════╬════════════╬════════════╬════════════╣\n")
	for i, t := range a.Trials {
		fmt.Fprintf(w, "║ %3d ║ %8.1f ║ %10s ║ %10s ║ %10s ║\n",
			i+1, t.Fragmentation, FmtDur(t.InsertDuration),
			FmtDur(t.SelectSuccessDuration), FmtDur(t.SelectFailDuration))
	}
	fmt.Fprintf(w, "╠═════╬══════════╬════════════╬════════════╬════════════╣\n")
	m := a.Median
	fmt.Fprintf(w, "║ med ║ %8.1f ║ %10s ║ %10s ║ %10s ║\n",
		m.Fragmentation, FmtDur(m.InsertDuration),
		FmtDur(m.SelectSuccessDuration), FmtDur(m.SelectFailDuration))
	fmt.Fprintf(w, "╚═════╩══════════╩════════════╩════════════╩════════════╝\n")
}

func PrintResult(w io.Writer, a AggregatedResult) {
	m := a.Median
	label := fmt.Sprintf("%s (median of %d runs)", a.Variant, len(a.Trials))

	fmt.Fprintf(w, "\n┌─────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-39s│\n", label)
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Fragmentation:  %-23s│\n", fmt.Sprintf("%.1f %%", m.Fragmentation))
	fmt.Fprintf(w, "│  Insert:         %-23s│\n", FmtDur(m.InsertDuration))
	fmt.Fprintf(w, "│  Select success: %-23s│\n", FmtDur(m.SelectSuccessDuration))
	fmt.Fprintf(w, "│  Select fail:    %-23s│\n", FmtDur(m.SelectFailDuration))
	fmt.Fprintf(w, "│  Samples:        %-23d│\n", m.Sampled)
	fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
}

// PrintComparison lines up the medians of all variants. The variant with the
// fastest median insert is highlighted.
func PrintComparison(w io.Writer, results []AggregatedResult) {
	if len(results) < 2 {
		return
	}
	best := 0
	for i, r := range results {
		if r.Median.InsertDuration < results[best].Median.InsertDuration {
			best = i
		}
	}
	highlight := color.New(color.FgGreen, color.Bold)

	fmt.Fprintf(w, "\n╔══════════════════════╦══════════╦════════════╦════════════╦════════════╗\n")
	fmt.Fprintf(w, "║  Variant             ║  Frag %%  ║   Insert   ║  Sel. hit  ║ Sel. miss  ║\n")
	fmt.Fprintf(w, "╠══════════════════════╬══════════╬════════════╬════════════╬════════════╣\n")
	for i, r := range results {
		marker := "  "
		if i == best {
			marker = "→ "
		}
		m := r.Median
		line := fmt.Sprintf("║%s%-20s║ %8.1f ║ %10s ║ %10s ║ %10s ║",
			marker, r.Variant, m.Fragmentation, FmtDur(m.InsertDuration),
			FmtDur(m.SelectSuccessDuration), FmtDur(m.SelectFailDuration))
		if i == best {
			line = highlight.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "╚══════════════════════╩══════════╩════════════╩════════════╩════════════╝\n")
	fmt.Fprintln(w, "  → = fastest median insert")
}

func PrintTotal(w io.Writer, d time.Duration) {
	fmt.Fprintf(w, "\nTotal Test run duration : %.1fs.\n", d.Seconds())
}

func FmtDur(d time.Duration) string {
	us := float64(d.Microseconds())
	switch {
	case us < 1000:
		return fmt.Sprintf("%.0fµs", us)
	case us < 1_000_000:
		return fmt.Sprintf("%.2fms", us/1000)
	default:
		return fmt.Sprintf("%.2fs", us/1_000_000)
	}
}
