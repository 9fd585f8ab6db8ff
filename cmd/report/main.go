package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/streamops/modsentry/internal/report"
	"github.com/streamops/modsentry/internal/ux"
)

// #region main

func main() {
	logPath := flag.String("log", "logs/run_log.jsonl", "path to JSONL run log")
	jsonOut := flag.Bool("json", false, "output as JSON instead of styled text")
	flag.Parse()

	entries, err := report.LoadLog(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	m := report.Analyze(entries)
	if m.TotalEvents == 0 {
		fmt.Fprintln(os.Stderr, "no events found in log")
		os.Exit(1)
	}

	if *jsonOut {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}
	printMetrics(m)
}

// #endregion main

// #region output

func printMetrics(m report.Metrics) {
	fmt.Println(ux.Title("Run analysis"))
	fmt.Println(ux.RenderTable([]string{"Metric", "Value"}, [][]string{
		{"Total Events", fmt.Sprintf("%d", m.TotalEvents)},
		{"Disagreements", fmt.Sprintf("%d", m.Disagreements)},
		{"Agreement Rate", fmt.Sprintf("%.1f%%", m.AgreementRate*100)},
		{"Final Agreement Rate", fmt.Sprintf("%.1f%%", m.FinalAgreementRate*100)},
		{"Memory Growth", fmt.Sprintf("%d", m.MemoryGrowth)},
		{"Final Memory Size", fmt.Sprintf("%d", m.FinalMemorySize)},
		{"Total Cost", fmt.Sprintf("$%.4f", m.TotalCost)},
		{"Total API Calls", fmt.Sprintf("%d", m.TotalCalls)},
		{"Avg Cost per Event", fmt.Sprintf("$%.6f", m.AvgCostPerEvent)},
	}))

	if len(m.ActionDistribution) > 0 {
		names := make([]string, 0, len(m.ActionDistribution))
		for name := range m.ActionDistribution {
			names = append(names, name)
		}
		sort.Slice(names, func(a, b int) bool {
			if m.ActionDistribution[names[a]] != m.ActionDistribution[names[b]] {
				return m.ActionDistribution[names[a]] > m.ActionDistribution[names[b]]
			}
			return names[a] < names[b]
		})
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, fmt.Sprintf("%d", m.ActionDistribution[name])})
		}
		fmt.Println()
		fmt.Println(ux.Title("Action distribution"))
		fmt.Println(ux.RenderTable([]string{"Action", "Count"}, rows))
	}

	fmt.Println()
	fmt.Println(ux.Title("Checks"))
	for _, c := range m.Checks {
		fmt.Println(ux.CheckLine(c.Pass, c.Name, c.Detail))
	}
}

// #endregion output
