package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/streamops/modsentry/internal/actions"
	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/journal"
	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/memory"
	"github.com/streamops/modsentry/internal/session"
)

// #region fakes

type scriptedProposer struct {
	decision agents.Decision
	err      error
	lastReq  agents.Request
	lastOpts agents.Options
	calls    int
}

func (p *scriptedProposer) Propose(_ context.Context, req agents.Request, opts agents.Options) (agents.Decision, error) {
	p.calls++
	p.lastReq = req
	p.lastOpts = opts
	if p.err != nil {
		return agents.Decision{}, p.err
	}
	return p.decision, nil
}

type scriptedReviewer struct {
	reviews      []agents.Review
	err          error
	lastProposal agents.Decision
	calls        int
}

func (r *scriptedReviewer) Review(_ context.Context, _ agents.Request, proposal agents.Decision) (agents.Review, error) {
	r.calls++
	r.lastProposal = proposal
	if r.err != nil {
		return agents.Review{}, r.err
	}
	if len(r.reviews) == 0 {
		return agents.Review{Agrees: true}, nil
	}
	rev := r.reviews[0]
	if len(r.reviews) > 1 {
		r.reviews = r.reviews[1:]
	}
	return rev, nil
}

// #endregion fakes

// #region helpers

func testDeps(t *testing.T, led *ledger.Ledger, proposer agents.Proposer, reviewer agents.Reviewer) Deps {
	t.Helper()
	if led == nil {
		led = ledger.New()
	}
	return Deps{
		Memory:   memory.New(memory.NewLexical()),
		Ledger:   led,
		Applier:  actions.NewApplier(led),
		Proposer: proposer,
		Reviewer: reviewer,
		Session:  session.New(),
	}
}

func defaultOpts() Options {
	return Options{TopK: 3, MinSimilarity: 0.05, MaxEvents: 50, Propose: agents.FullContext()}
}

func mustLoop(t *testing.T, deps Deps, opts Options) *Loop {
	t.Helper()
	l, err := New(deps, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func collector(deps *Deps) *[]journal.Entry {
	var entries []journal.Entry
	deps.OnEvent = func(e journal.Entry) { entries = append(entries, e) }
	return &entries
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

// #endregion helpers

func TestNewValidatesDeps(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	if _, err := New(deps, defaultOpts()); err != nil {
		t.Fatalf("complete deps rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"memory", func(d *Deps) { d.Memory = nil }},
		{"ledger", func(d *Deps) { d.Ledger = nil }},
		{"applier", func(d *Deps) { d.Applier = nil }},
		{"proposer", func(d *Deps) { d.Proposer = nil }},
		{"reviewer", func(d *Deps) { d.Reviewer = nil }},
		{"session", func(d *Deps) { d.Session = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			broken := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
			tc.mutate(&broken)
			if _, err := New(broken, defaultOpts()); err == nil {
				t.Fatal("expected wiring error")
			}
		})
	}
}

func TestRunAgreementLeavesMemoryEmpty(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	res, err := loop.Run(context.Background(), []Event{
		{User: "viewer1", Comment: "what game is this", Persona: "firm_professional"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 1 || res.Agreements != 1 || res.Disagreements != 0 || res.MemoryAdds != 0 {
		t.Fatalf("result = %+v", res)
	}
	if deps.Memory.Size() != 0 {
		t.Fatalf("memory size = %d, want 0", deps.Memory.Size())
	}

	e := (*entries)[0]
	if !e.Agreed || e.MemAdded {
		t.Fatalf("entry = %+v", e)
	}
	if e.EffectivePlan != e.ProposedPlan {
		t.Fatalf("agreement changed plan: %q vs %q", e.EffectivePlan, e.ProposedPlan)
	}
	if len(e.ActionsExecuted) != 1 || e.ActionsExecuted[0] != "let_comment_stand" {
		t.Fatalf("actions = %v", e.ActionsExecuted)
	}
}

func TestRunDisagreementWritesMemoryAndAppliesReviewerPlan(t *testing.T) {
	led := ledger.New()
	deps := testDeps(t, led, agents.NewHeuristic(false), agents.NewHeuristic(true))
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	// First rude comment: both tiers warn, agreement. Second: the
	// strict reviewer escalates on the recorded warning, disagreement.
	events := []Event{
		{User: "heckler", Comment: "this stream is trash", Persona: "firm_professional"},
		{User: "heckler", Comment: "still watching this trash stream", Persona: "firm_professional"},
	}
	res, err := loop.Run(context.Background(), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 2 || res.Agreements != 1 || res.Disagreements != 1 || res.MemoryAdds != 1 {
		t.Fatalf("result = %+v", res)
	}

	second := (*entries)[1]
	if second.Agreed {
		t.Fatal("expected disagreement on second event")
	}
	if second.ProposedPlan != "warn user" {
		t.Fatalf("proposed plan = %q", second.ProposedPlan)
	}
	if second.EffectivePlan != "timeout user after repeated warnings" {
		t.Fatalf("effective plan = %q", second.EffectivePlan)
	}
	if !second.MemAdded || second.MemorySize != 1 {
		t.Fatalf("entry memory fields = %+v", second)
	}

	// The reviewer's actions, not the proposer's, reach the ledger.
	state := led.FullStats("heckler")
	if state.WarningCount != 1 || state.TimeoutCount != 1 {
		t.Fatalf("ledger state = %+v", state)
	}
	if state.LastAction != "timeout" {
		t.Fatalf("last action = %q", state.LastAction)
	}

	recs := deps.Memory.Records()
	if len(recs) != 1 {
		t.Fatalf("memory records = %d", len(recs))
	}
	rec := recs[0]
	if rec.Key != "still watching this trash stream" {
		t.Fatalf("record key = %q", rec.Key)
	}
	if rec.Comment != "still watching this trash stream" {
		t.Fatalf("record comment = %q", rec.Comment)
	}
	// Decision-time state: the first event's warning is visible, the
	// timeout this event applies is not.
	if !strings.Contains(rec.StateMetrics, "warnings:1") || strings.Contains(rec.StateMetrics, "timeouts:1") {
		t.Fatalf("record state metrics = %q", rec.StateMetrics)
	}
	if rec.Plan != "timeout user after repeated warnings" {
		t.Fatalf("record plan = %q", rec.Plan)
	}
	if rec.Persona != "firm_professional" {
		t.Fatalf("record persona = %q", rec.Persona)
	}
}

func TestMemoryGrowthEqualsDisagreements(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	loop := mustLoop(t, deps, defaultOpts())

	events := []Event{
		{User: "a", Comment: "great stream today"},
		{User: "b", Comment: "this stream is trash"},
		{User: "b", Comment: "your content is garbage"},
		{User: "b", Comment: "totally boring stuff"},
		{User: "c", Comment: "buy followers at my page"},
		{User: "c", Comment: "buy followers cheap promo code inside"},
		{User: "a", Comment: "what game is this"},
	}
	res, err := loop.Run(context.Background(), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.MemoryAdds != res.Disagreements {
		t.Fatalf("memory adds %d != disagreements %d", res.MemoryAdds, res.Disagreements)
	}
	if deps.Memory.Size() != res.Disagreements {
		t.Fatalf("memory size %d != disagreements %d", deps.Memory.Size(), res.Disagreements)
	}
	if res.Agreements+res.Disagreements != res.Processed {
		t.Fatalf("inconsistent result: %+v", res)
	}
}

func TestProposerFailureUsesConservativeDefault(t *testing.T) {
	proposer := &scriptedProposer{err: errors.New("model down")}
	reviewer := &scriptedReviewer{reviews: []agents.Review{{Agrees: true}}}
	led := ledger.New()
	deps := testDeps(t, led, proposer, reviewer)
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	res, err := loop.Run(context.Background(), []Event{{User: "u", Comment: "whatever"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("result = %+v", res)
	}

	e := (*entries)[0]
	def := agents.ConservativeDefault()
	if e.ProposedPlan != def.Plan {
		t.Fatalf("proposed plan = %q, want conservative default", e.ProposedPlan)
	}
	if len(e.ActionsExecuted) != 1 || e.ActionsExecuted[0] != "log_incident" {
		t.Fatalf("actions = %v", e.ActionsExecuted)
	}
	// log_incident touches no counters.
	if led.FullStats("u").WarningCount != 0 {
		t.Fatal("conservative default mutated the ledger")
	}
	// The reviewer still audits the substituted decision.
	if reviewer.calls != 1 || reviewer.lastProposal.Plan != def.Plan {
		t.Fatalf("reviewer saw %+v", reviewer.lastProposal)
	}
}

func TestReviewerFailureCountsAsAgreement(t *testing.T) {
	proposer := &scriptedProposer{decision: agents.Decision{
		Plan: "warn user", Actions: []string{"warn_user"}, Confidence: agents.ConfidenceMedium,
	}}
	reviewer := &scriptedReviewer{err: errors.New("reviewer down")}
	deps := testDeps(t, nil, proposer, reviewer)
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	res, err := loop.Run(context.Background(), []Event{{User: "u", Comment: "meh"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Disagreements != 0 || res.MemoryAdds != 0 {
		t.Fatalf("result = %+v", res)
	}
	e := (*entries)[0]
	if !e.Agreed || e.EffectivePlan != "warn user" {
		t.Fatalf("entry = %+v", e)
	}
	if deps.Memory.Size() != 0 {
		t.Fatal("reviewer failure must not write memory")
	}
}

func TestDisagreementFeedsLaterRetrieval(t *testing.T) {
	led := ledger.New()
	led.Increment("ranter", ledger.CounterWarning)

	deps := testDeps(t, led, agents.NewHeuristic(false), agents.NewHeuristic(true))
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	events := []Event{
		// Pre-seeded warning: lenient warns, strict escalates. Disagreement.
		{User: "ranter", Comment: "worst stream i have ever seen"},
		// Fresh user, same wording: exact-match retrieval must surface
		// the stored correction.
		{User: "newbie", Comment: "worst stream i have ever seen"},
	}
	if _, err := loop.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}

	first, second := (*entries)[0], (*entries)[1]
	if first.Agreed {
		t.Fatal("expected disagreement on first event")
	}
	if first.RetrievedCount != 0 {
		t.Fatalf("first retrieval count = %d", first.RetrievedCount)
	}
	if second.RetrievedCount != 1 {
		t.Fatalf("second retrieval count = %d, want the stored record", second.RetrievedCount)
	}
}

func TestIncludeStateInQueryComposesKey(t *testing.T) {
	led := ledger.New()
	led.Increment("ranter", ledger.CounterWarning)

	deps := testDeps(t, led, agents.NewHeuristic(false), agents.NewHeuristic(true))
	opts := defaultOpts()
	opts.IncludeStateInQuery = true
	loop := mustLoop(t, deps, opts)

	if _, err := loop.Run(context.Background(), []Event{
		{User: "ranter", Comment: "worst stream i have ever seen"},
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs := deps.Memory.Records()
	if len(recs) != 1 {
		t.Fatalf("memory records = %d", len(recs))
	}
	key := recs[0].Key
	if !strings.Contains(key, "worst stream i have ever seen | state: ") {
		t.Fatalf("key = %q", key)
	}
	if !strings.Contains(key, "warnings:1") {
		t.Fatalf("key missing state summary: %q", key)
	}
	if recs[0].Comment != "worst stream i have ever seen" {
		t.Fatalf("comment field should stay bare: %q", recs[0].Comment)
	}
}

func TestContextUpdateVisibleAtDecisionTime(t *testing.T) {
	proposer := &scriptedProposer{decision: agents.Decision{
		Plan: "no action needed", Actions: []string{"let_comment_stand"},
	}}
	deps := testDeps(t, nil, proposer, &scriptedReviewer{})
	loop := mustLoop(t, deps, defaultOpts())

	ev := Event{
		User:    "regular",
		Comment: "what game is this",
		Context: ledger.ContextUpdate{
			FollowerCount: intPtr(150),
			ViewerCount:   intPtr(42),
			CurrentTopic:  strPtr("speedrun"),
		},
	}
	if _, err := loop.Run(context.Background(), []Event{ev}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if proposer.lastReq.State.FollowerCount != 150 || proposer.lastReq.State.ViewerCount != 42 {
		t.Fatalf("state view = %+v", proposer.lastReq.State)
	}
	if !strings.Contains(proposer.lastReq.StateString, "topic:speedrun") {
		t.Fatalf("state string = %q", proposer.lastReq.StateString)
	}
}

func TestMaxEventsCapsRun(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	opts := defaultOpts()
	opts.MaxEvents = 2
	loop := mustLoop(t, deps, opts)

	events := []Event{
		{User: "a", Comment: "one"},
		{User: "b", Comment: "two"},
		{User: "c", Comment: "three"},
	}
	res, err := loop.Run(context.Background(), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 2 {
		t.Fatalf("processed = %d, want 2", res.Processed)
	}
}

func TestCancelledContextStopsRun(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	loop := mustLoop(t, deps, defaultOpts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := loop.Run(ctx, []Event{{User: "a", Comment: "hello"}})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if res.Processed != 0 {
		t.Fatalf("processed = %d", res.Processed)
	}
}

func TestEmptyCommentsAreSkipped(t *testing.T) {
	deps := testDeps(t, nil, agents.NewHeuristic(false), agents.NewHeuristic(true))
	entries := collector(&deps)
	loop := mustLoop(t, deps, defaultOpts())

	events := []Event{
		{User: "a", Comment: "   "},
		{User: "b", Comment: "hello there"},
	}
	res, err := loop.Run(context.Background(), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("processed = %d, want 1", res.Processed)
	}
	// The surviving event keeps its dataset position.
	if len(*entries) != 1 || (*entries)[0].Idx != 1 {
		t.Fatalf("entries = %+v", *entries)
	}
}

func TestJournalAndArchiveReceiveEntries(t *testing.T) {
	led := ledger.New()
	led.Increment("ranter", ledger.CounterWarning)

	deps := testDeps(t, led, agents.NewHeuristic(false), agents.NewHeuristic(true))

	w, err := journal.NewWriter(filepath.Join(t.TempDir(), "run.jsonl"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()
	arch, err := journal.OpenArchive(":memory:")
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer arch.Close()
	deps.Journal = w
	deps.Archive = arch

	loop := mustLoop(t, deps, defaultOpts())
	events := []Event{
		{User: "ranter", Comment: "worst stream i have ever seen"},
		{User: "fan", Comment: "great stream today"},
	}
	res, err := loop.Run(context.Background(), events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	summaries, err := arch.RunSummaries()
	if err != nil {
		t.Fatalf("RunSummaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %+v", summaries)
	}
	s := summaries[0]
	if s.RunID != deps.Session.RunID {
		t.Fatalf("run id = %q, want %q", s.RunID, deps.Session.RunID)
	}
	if s.Events != res.Processed || s.MemoryAdds != res.MemoryAdds {
		t.Fatalf("summary = %+v vs result %+v", s, res)
	}
}
