package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/streamops/modsentry/internal/journal"
	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/memory"
	"github.com/streamops/modsentry/internal/ux"
)

// #region main

func main() {
	statePath := flag.String("state", "", "path to user state snapshot (ledger mode)")
	memoryPath := flag.String("memory", "", "path to memory snapshot (memory mode)")
	dbPath := flag.String("db", "", "path to run archive (archive mode)")
	last := flag.Int("last", 20, "show N most recent memory records")
	jsonOut := flag.Bool("json", false, "output as JSON instead of tables")
	flag.Parse()

	modes := 0
	for _, p := range []string{*statePath, *memoryPath, *dbPath} {
		if p != "" {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect --state path/to/user_state.json [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --memory path/to/memory.json [--last N] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --db path/to/runs.db [--json]")
		os.Exit(2)
	}

	var err error
	switch {
	case *statePath != "":
		err = runStateMode(*statePath, *jsonOut)
	case *memoryPath != "":
		err = runMemoryMode(*memoryPath, *last, *jsonOut)
	default:
		err = runArchiveMode(*dbPath, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region state-mode

func runStateMode(path string, jsonOut bool) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("state file not found: %s (run the moderation loop first)", path)
	}
	led := ledger.New()
	if err := led.Load(path); err != nil {
		return err
	}

	ids := led.UserIDs()
	if len(ids) == 0 {
		fmt.Println("no user state found")
		return nil
	}

	users := make([]ledger.UserState, 0, len(ids))
	for _, id := range ids {
		users = append(users, led.FullStats(id))
	}
	// Worst offenders first; UserIDs() is already sorted so ties stay
	// alphabetical.
	sort.SliceStable(users, func(a, b int) bool {
		return users[a].BanCount > users[b].BanCount
	})

	if jsonOut {
		return printJSON(users)
	}

	rows := make([][]string, 0, len(users))
	var bans, warns, timeouts, deleted, replies int
	for _, u := range users {
		last := u.LastAction
		if last == "" {
			last = "none"
		}
		rows = append(rows, []string{
			u.UserID,
			fmt.Sprintf("%d", u.BanCount),
			fmt.Sprintf("%d", u.WarningCount),
			fmt.Sprintf("%d", u.TimeoutCount),
			fmt.Sprintf("%d", u.DeletedComments),
			fmt.Sprintf("%d", u.RepliesSent),
			last,
		})
		bans += u.BanCount
		warns += u.WarningCount
		timeouts += u.TimeoutCount
		deleted += u.DeletedComments
		replies += u.RepliesSent
	}

	fmt.Println(ux.Title("User state"))
	fmt.Println(ux.RenderTable(
		[]string{"User", "Bans", "Warnings", "Timeouts", "Deleted", "Replies", "Last Action"},
		rows,
	))
	fmt.Println()
	fmt.Println(ux.KeyValue("Total users", fmt.Sprintf("%d", len(users))))
	fmt.Println(ux.KeyValue("Total bans", fmt.Sprintf("%d", bans)))
	fmt.Println(ux.KeyValue("Total warnings", fmt.Sprintf("%d", warns)))
	fmt.Println(ux.KeyValue("Total timeouts", fmt.Sprintf("%d", timeouts)))
	fmt.Println(ux.KeyValue("Total deleted comments", fmt.Sprintf("%d", deleted)))
	fmt.Println(ux.KeyValue("Total replies sent", fmt.Sprintf("%d", replies)))
	return nil
}

// #endregion state-mode

// #region memory-mode

func runMemoryMode(path string, last int, jsonOut bool) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("memory snapshot not found: %s", path)
	}
	idx := memory.New(memory.NewLexical())
	if err := idx.Load(context.Background(), path); err != nil {
		return err
	}

	records := idx.Records()
	tail := records
	if last > 0 && len(tail) > last {
		tail = tail[len(tail)-last:]
	}

	if jsonOut {
		return printJSON(tail)
	}

	fmt.Println(ux.Title("Memory snapshot"))
	fmt.Println(ux.KeyValue("Records", fmt.Sprintf("%d", len(records))))
	if len(tail) < len(records) {
		fmt.Println(ux.KeyValue("Showing", fmt.Sprintf("last %d", len(tail))))
	}
	if len(tail) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(tail))
	for _, r := range tail {
		rows = append(rows, []string{
			ux.Truncate(r.Key, 50),
			ux.Truncate(r.Plan, 40),
			r.Persona,
		})
	}
	fmt.Println(ux.RenderTable([]string{"Key", "Plan", "Persona"}, rows))
	return nil
}

// #endregion memory-mode

// #region archive-mode

type archiveOutput struct {
	Runs     []journal.RunSummary   `json:"runs"`
	TopUsers []journal.UserActivity `json:"top_users"`
	Actions  map[string]int         `json:"action_distribution"`
}

func runArchiveMode(path string, jsonOut bool) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("archive not found: %s", path)
	}
	arch, err := journal.OpenArchive(path)
	if err != nil {
		return err
	}
	defer arch.Close()

	out := archiveOutput{}
	if out.Runs, err = arch.RunSummaries(); err != nil {
		return err
	}
	if out.TopUsers, err = arch.TopUsers(10); err != nil {
		return err
	}
	if out.Actions, err = arch.ActionDistribution(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Println(ux.Title("Runs"))
	if len(out.Runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	runRows := make([][]string, 0, len(out.Runs))
	for _, r := range out.Runs {
		runRows = append(runRows, []string{
			shortID(r.RunID),
			fmt.Sprintf("%d", r.Events),
			fmt.Sprintf("%.3f", r.AgreementRate),
			fmt.Sprintf("%d", r.MemoryAdds),
			fmt.Sprintf("%d", r.FinalMemorySize),
			fmt.Sprintf("$%.4f", r.TotalCost),
			fmt.Sprintf("%d", r.TotalCalls),
		})
	}
	fmt.Println(ux.RenderTable(
		[]string{"Run", "Events", "Agreement", "Mem Adds", "Mem Size", "Cost", "Calls"},
		runRows,
	))

	if len(out.TopUsers) > 0 {
		fmt.Println()
		fmt.Println(ux.Title("Most disputed users"))
		userRows := make([][]string, 0, len(out.TopUsers))
		for _, u := range out.TopUsers {
			userRows = append(userRows, []string{
				u.UserID,
				fmt.Sprintf("%d", u.Events),
				fmt.Sprintf("%d", u.Disagreements),
			})
		}
		fmt.Println(ux.RenderTable([]string{"User", "Events", "Disagreements"}, userRows))
	}

	if len(out.Actions) > 0 {
		fmt.Println()
		fmt.Println(ux.Title("Action distribution"))
		names := make([]string, 0, len(out.Actions))
		for name := range out.Actions {
			names = append(names, name)
		}
		sort.Slice(names, func(a, b int) bool {
			if out.Actions[names[a]] != out.Actions[names[b]] {
				return out.Actions[names[a]] > out.Actions[names[b]]
			}
			return names[a] < names[b]
		})
		actionRows := make([][]string, 0, len(names))
		for _, name := range names {
			actionRows = append(actionRows, []string{name, fmt.Sprintf("%d", out.Actions[name])})
		}
		fmt.Println(ux.RenderTable([]string{"Action", "Count"}, actionRows))
	}
	return nil
}

// #endregion archive-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
