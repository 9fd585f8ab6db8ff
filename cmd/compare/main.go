package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/compare"
	"github.com/streamops/modsentry/internal/config"
	"github.com/streamops/modsentry/internal/dataset"
	"github.com/streamops/modsentry/internal/llm"
	"github.com/streamops/modsentry/internal/memory"
	"github.com/streamops/modsentry/internal/session"
)

// #region main

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	events, err := dataset.Load(cfg.DataPath)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}

	sess := session.New()
	proposer, err := buildProposer(cfg.Proposer, false, sess.Costs)
	if err != nil {
		log.Fatalf("wire proposer: %v", err)
	}
	reference, err := buildProposer(cfg.Reviewer, true, sess.Costs)
	if err != nil {
		log.Fatalf("wire reference: %v", err)
	}

	h, err := compare.New(compare.Config{
		Proposer:      proposer,
		Reference:     reference,
		Memory:        buildIndex(cfg, sess.Costs),
		TopK:          cfg.Memory.TopK,
		MinSimilarity: cfg.Memory.MinSimilarity,
		MaxEvents:     cfg.Loop.MaxEvents,
	})
	if err != nil {
		log.Fatalf("wire harness: %v", err)
	}

	stats, err := h.Run(context.Background(), events)
	if err != nil {
		log.Fatalf("run comparison: %v", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		log.Fatalf("encode stats: %v", err)
	}
	fmt.Println(string(data))
}

// #endregion main

// #region wiring

// buildProposer wires one decision tier. The reviewer's config doubles
// as the reference tier here, so its heuristic form is strict.
func buildProposer(a config.AgentConfig, strict bool, costs *session.CostTracker) (agents.Proposer, error) {
	if a.Backend == config.AgentBackendHeuristic {
		return agents.NewHeuristic(strict), nil
	}
	key := a.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%s is not set", a.APIKeyEnv)
	}
	client := llm.New(llm.Config{
		BaseURL:     a.BaseURL,
		APIKey:      key,
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}, costs)
	return agents.NewGenerativeProposer(client), nil
}

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

// #endregion wiring
