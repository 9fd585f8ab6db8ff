package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/streamops/modsentry/internal/actions"
	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/config"
	"github.com/streamops/modsentry/internal/dataset"
	"github.com/streamops/modsentry/internal/journal"
	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/llm"
	"github.com/streamops/modsentry/internal/memory"
	"github.com/streamops/modsentry/internal/pipeline"
	"github.com/streamops/modsentry/internal/session"
	"github.com/streamops/modsentry/internal/ux"
)

// #region main

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sess := session.New()
	ctx := context.Background()

	led := ledger.New()
	if cfg.Loop.StatePath != "" {
		if err := led.Load(cfg.Loop.StatePath); err != nil {
			log.Fatalf("load user state: %v", err)
		}
	}

	idx := buildIndex(cfg, sess.Costs)
	if cfg.Memory.PersistPath != "" {
		if err := idx.Load(ctx, cfg.Memory.PersistPath); err != nil {
			log.Fatalf("load memory snapshot: %v", err)
		}
	}

	proposer, reviewer, err := buildAgents(cfg, sess.Costs)
	if err != nil {
		log.Fatalf("wire agents: %v", err)
	}

	deps := pipeline.Deps{
		Memory:   idx,
		Ledger:   led,
		Applier:  actions.NewApplier(led),
		Proposer: proposer,
		Reviewer: reviewer,
		Session:  sess,
	}
	if cfg.Loop.LogPath != "" {
		w, err := journal.NewWriter(cfg.Loop.LogPath)
		if err != nil {
			log.Fatalf("open journal: %v", err)
		}
		defer w.Close()
		deps.Journal = w
	}
	if cfg.Loop.ArchivePath != "" {
		arch, err := journal.OpenArchive(cfg.Loop.ArchivePath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer arch.Close()
		deps.Archive = arch
	}

	var rows [][]string
	deps.OnEvent = func(e journal.Entry) {
		rows = append(rows, auditRow(e))
		if len(rows)%cfg.Loop.AuditEvery == 0 {
			fmt.Println(ux.RenderTable(auditHeaders, rows))
		}
	}

	events, err := dataset.Load(cfg.DataPath)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	loop, err := pipeline.New(deps, pipeline.Options{
		TopK:                cfg.Memory.TopK,
		MinSimilarity:       cfg.Memory.MinSimilarity,
		IncludeStateInQuery: cfg.Loop.IncludeStateInQuery,
		MaxEvents:           cfg.Loop.MaxEvents,
		Propose: agents.Options{
			UseState:     cfg.Loop.UseState,
			UseRetrieval: cfg.Loop.UseRetrieval,
		},
	})
	if err != nil {
		log.Fatalf("wire loop: %v", err)
	}

	fmt.Println(ux.Title("Moderation loop"))
	fmt.Println(ux.KeyValue("Run", sess.RunID))
	fmt.Println(ux.KeyValue("Dataset", cfg.DataPath))
	fmt.Println(ux.KeyValue("Proposer", describeAgent(cfg.Proposer)))
	fmt.Println(ux.KeyValue("Reviewer", describeAgent(cfg.Reviewer)))
	fmt.Println(ux.KeyValue("Memory backend", cfg.Memory.Backend))
	fmt.Println()

	res, err := loop.Run(ctx, toPipelineEvents(events))
	if err != nil {
		log.Printf("run aborted: %v", err)
	}

	printSummary(res, led, idx, sess)

	if cfg.Loop.StatePath != "" {
		if err := led.Save(cfg.Loop.StatePath); err != nil {
			log.Printf("save user state: %v", err)
		}
	}
	if cfg.Memory.PersistPath != "" {
		if err := idx.Save(cfg.Memory.PersistPath); err != nil {
			log.Printf("save memory snapshot: %v", err)
		}
	}
}

// #endregion main

// #region wiring

// buildIndex picks the retrieval backend. The embedding backend needs
// API credentials; without them the run falls back to lexical scoring
// rather than failing.
func buildIndex(cfg config.Config, costs *session.CostTracker) *memory.Index {
	if cfg.Memory.Backend == config.MemoryBackendEmbedding {
		if key := cfg.Proposer.APIKey(); key != "" {
			client := llm.New(llm.Config{
				BaseURL:    cfg.Proposer.BaseURL,
				APIKey:     key,
				EmbedModel: cfg.Memory.EmbedModel,
			}, costs)
			return memory.New(memory.NewDense(client))
		}
		log.Printf("embedding backend needs %s, falling back to lexical", cfg.Proposer.APIKeyEnv)
	}
	return memory.New(memory.NewLexical())
}

func buildAgents(cfg config.Config, costs *session.CostTracker) (agents.Proposer, agents.Reviewer, error) {
	var proposer agents.Proposer
	if cfg.Proposer.Backend == config.AgentBackendHeuristic {
		proposer = agents.NewHeuristic(false)
	} else {
		client, err := agentClient(cfg.Proposer, costs)
		if err != nil {
			return nil, nil, fmt.Errorf("proposer: %w", err)
		}
		proposer = agents.NewGenerativeProposer(client)
	}

	var reviewer agents.Reviewer
	if cfg.Reviewer.Backend == config.AgentBackendHeuristic {
		reviewer = agents.NewHeuristic(true)
	} else {
		client, err := agentClient(cfg.Reviewer, costs)
		if err != nil {
			return nil, nil, fmt.Errorf("reviewer: %w", err)
		}
		reviewer = agents.NewGenerativeReviewer(client)
	}
	return proposer, reviewer, nil
}

func agentClient(a config.AgentConfig, costs *session.CostTracker) (*llm.Client, error) {
	key := a.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%s is not set", a.APIKeyEnv)
	}
	return llm.New(llm.Config{
		BaseURL:     a.BaseURL,
		APIKey:      key,
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}, costs), nil
}

func describeAgent(a config.AgentConfig) string {
	if a.Backend == config.AgentBackendHeuristic {
		return "heuristic"
	}
	return a.Model
}

func toPipelineEvents(rows []dataset.Event) []pipeline.Event {
	events := make([]pipeline.Event, 0, len(rows))
	for _, r := range rows {
		ev := pipeline.Event{
			User:    r.Meta.User,
			Comment: r.Comment,
			Persona: r.Persona,
			Context: ledger.ContextUpdate{
				FollowerCount: r.Meta.FollowerCount,
				ViewerCount:   r.Meta.ViewerCount,
			},
		}
		if r.Meta.Topic != "" {
			topic := r.Meta.Topic
			ev.Context.CurrentTopic = &topic
		}
		events = append(events, ev)
	}
	return events
}

// #endregion wiring

// #region audit

var auditHeaders = []string{"User", "Comment", "Proposed Plan", "Effective Plan", "Actions Executed", "Memory Added"}

func auditRow(e journal.Entry) []string {
	memAdded := "no"
	if e.MemAdded {
		memAdded = "yes"
	}
	return []string{
		e.User,
		ux.Truncate(e.Comment, 50),
		ux.Truncate(e.ProposedPlan, 40),
		ux.Truncate(e.EffectivePlan, 40),
		actionSummary(e.ActionResults),
		memAdded,
	}
}

// actionSummary shows the first two outcome messages and a count of
// the rest.
func actionSummary(results []actions.Outcome) string {
	parts := make([]string, 0, 2)
	for i, r := range results {
		if i == 2 {
			break
		}
		parts = append(parts, ux.Truncate(r.Message, 50))
	}
	summary := strings.Join(parts, "; ")
	if len(results) > 2 {
		summary += fmt.Sprintf(" (+%d more)", len(results)-2)
	}
	return ux.Truncate(summary, 60)
}

// #endregion audit

// #region summary

func printSummary(res pipeline.Result, led *ledger.Ledger, idx *memory.Index, sess *session.Session) {
	fmt.Println()
	fmt.Println(ux.Title("Run summary"))
	fmt.Println(ux.KeyValue("Events processed", fmt.Sprintf("%d", res.Processed)))
	fmt.Println(ux.KeyValue("Agreements", fmt.Sprintf("%d", res.Agreements)))
	fmt.Println(ux.KeyValue("Disagreements", fmt.Sprintf("%d", res.Disagreements)))
	fmt.Println(ux.KeyValue("Memory adds", fmt.Sprintf("%d", res.MemoryAdds)))
	fmt.Println(ux.KeyValue("Final memory size", fmt.Sprintf("%d", idx.Size())))

	var bans, warns, timeouts, deleted, replies int
	ids := led.UserIDs()
	for _, id := range ids {
		st := led.FullStats(id)
		bans += st.BanCount
		warns += st.WarningCount
		timeouts += st.TimeoutCount
		deleted += st.DeletedComments
		replies += st.RepliesSent
	}
	fmt.Println()
	fmt.Println(ux.Title("Moderation totals"))
	fmt.Println(ux.KeyValue("Users tracked", fmt.Sprintf("%d", len(ids))))
	fmt.Println(ux.KeyValue("Bans", fmt.Sprintf("%d", bans)))
	fmt.Println(ux.KeyValue("Warnings", fmt.Sprintf("%d", warns)))
	fmt.Println(ux.KeyValue("Timeouts", fmt.Sprintf("%d", timeouts)))
	fmt.Println(ux.KeyValue("Deleted comments", fmt.Sprintf("%d", deleted)))
	fmt.Println(ux.KeyValue("Replies", fmt.Sprintf("%d", replies)))

	stats := sess.Costs.Stats()
	fmt.Println()
	fmt.Println(ux.Title("API cost"))
	fmt.Println(ux.KeyValue("Calls", fmt.Sprintf("%d", stats.TotalCalls)))
	fmt.Println(ux.KeyValue("Tokens", fmt.Sprintf("%d", stats.TotalTokens)))
	fmt.Println(ux.KeyValue("Total", fmt.Sprintf("$%.4f", stats.TotalCost)))

	models := make([]string, 0, len(stats.ByModel))
	for m := range stats.ByModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		ms := stats.ByModel[m]
		fmt.Println(ux.KeyValue(m, fmt.Sprintf("%d calls, %d tokens, $%.4f", ms.Calls, ms.Tokens, ms.Cost)))
	}
}

// #endregion summary
