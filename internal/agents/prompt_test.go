package agents

import (
	"fmt"
	"strings"
	"testing"

	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/memory"
)

func TestProposerUserFullContext(t *testing.T) {
	req := Request{
		Comment: "go kys lol",
		State:   ledger.View{BanCount: 1, WarningCount: 2},
		Retrieved: []memory.SearchResult{
			{
				Record: memory.Record{
					Key:          "go kys lol",
					Comment:      "go kys lol",
					StateMetrics: "bans:0, warnings:1",
					Reasoning:    "direct harassment",
					Plan:         "ban user for severe abuse",
				},
				Similarity: 1.0,
			},
		},
	}
	prompt := proposerUser(req, FullContext())

	if !strings.Contains(prompt, `"ban_count": 1`) {
		t.Fatalf("state block missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Current Comment: go kys lol") {
		t.Fatal("comment missing")
	}
	if !strings.Contains(prompt, "Example Case:") ||
		!strings.Contains(prompt, "Action Plan: ban user for severe abuse") {
		t.Fatalf("exemplar block missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"confidence": "low|medium|high"`) {
		t.Fatal("response shape missing")
	}
}

func TestProposerUserStateOnly(t *testing.T) {
	req := Request{Comment: "hello", State: ledger.View{WarningCount: 1}}
	prompt := proposerUser(req, Options{UseState: true})

	if !strings.Contains(prompt, `"warning_count": 1`) {
		t.Fatal("state block missing")
	}
	if strings.Contains(prompt, "Similar Past Cases") {
		t.Fatal("exemplar section should be absent without retrieval")
	}
}

func TestProposerUserBaseline(t *testing.T) {
	req := Request{
		Comment:   "hello",
		State:     ledger.View{BanCount: 3},
		Retrieved: []memory.SearchResult{{Record: memory.Record{Key: "x", Plan: "y"}}},
	}
	prompt := proposerUser(req, Options{})

	if strings.Contains(prompt, "User State") || strings.Contains(prompt, "ban_count") {
		t.Fatal("baseline prompt leaked state")
	}
	if strings.Contains(prompt, "Example Case") {
		t.Fatal("baseline prompt leaked exemplars")
	}
	if !strings.Contains(prompt, "Current Comment: hello") {
		t.Fatal("comment missing")
	}
}

func TestExemplarBlockCapAndDefaults(t *testing.T) {
	var retrieved []memory.SearchResult
	for i := 0; i < 8; i++ {
		retrieved = append(retrieved, memory.SearchResult{
			Record: memory.Record{Key: "k", Plan: fmt.Sprintf("plan-%d", i)},
		})
	}
	req := Request{Comment: "c", Retrieved: retrieved}
	block := exemplarBlock(req, FullContext())

	if got := strings.Count(block, "Example Case:"); got != maxExemplars {
		t.Fatalf("exemplar count = %d, want %d", got, maxExemplars)
	}
	// Records written by the comparison harness have no comment or
	// state fields; they render as N/A.
	if !strings.Contains(block, "Comment: N/A") || !strings.Contains(block, "User State: N/A") {
		t.Fatalf("missing N/A defaults:\n%s", block)
	}
}

func TestExemplarBlockEmpty(t *testing.T) {
	if got := exemplarBlock(Request{Comment: "c"}, FullContext()); got != "No similar cases found." {
		t.Fatalf("empty exemplar block = %q", got)
	}
	req := Request{Retrieved: []memory.SearchResult{{Record: memory.Record{Key: "k"}}}}
	if got := exemplarBlock(req, Options{UseRetrieval: false}); got != "No similar cases found." {
		t.Fatalf("retrieval-off exemplar block = %q", got)
	}
}

func TestReviewerUserIncludesProposal(t *testing.T) {
	req := Request{Comment: "spam spam", State: ledger.View{DeletedComments: 1}}
	proposal := Decision{Plan: "warn user", Reasoning: "mildly rude"}
	prompt := reviewerUser(req, proposal)

	if !strings.Contains(prompt, "Proposed Plan: warn user") {
		t.Fatal("proposal plan missing")
	}
	if !strings.Contains(prompt, "Proposer's Reasoning: mildly rude") {
		t.Fatal("proposal reasoning missing")
	}
	if !strings.Contains(prompt, `"deleted_comments": 1`) {
		t.Fatal("state block missing")
	}
	if !strings.Contains(prompt, `"agrees": true`) || !strings.Contains(prompt, `"agrees": false`) {
		t.Fatal("agree/disagree shapes missing")
	}
}
