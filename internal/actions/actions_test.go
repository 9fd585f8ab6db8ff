package actions

import (
	"strings"
	"testing"

	"github.com/streamops/modsentry/internal/ledger"
)

func TestParse(t *testing.T) {
	cases := []struct {
		token string
		want  Parsed
	}{
		{"ban_user", Parsed{Kind: KindBan}},
		{"BAN_USER immediately", Parsed{Kind: KindBan}},
		{"timeout_user_10m", Parsed{Kind: KindTimeout, Duration: "10m"}},
		{"timeout_user_5m", Parsed{Kind: KindTimeout, Duration: "5m"}},
		{"timeout", Parsed{Kind: KindTimeout, Duration: "5m"}},
		{"warn_user", Parsed{Kind: KindWarn}},
		{"warn", Parsed{Kind: KindWarn}},
		{"delete_comment", Parsed{Kind: KindDelete}},
		{"delete", Parsed{Kind: KindDelete}},
		{"reply('Please be kind')", Parsed{Kind: KindReply, Message: "Please be kind"}},
		{`reply("Stay on topic")`, Parsed{Kind: KindReply, Message: "Stay on topic"}},
		{"reply(thanks for the report)", Parsed{Kind: KindReply, Message: "thanks for the report"}},
		{"reply()", Parsed{Kind: KindReply, Message: "Please follow community guidelines"}},
		{"reply", Parsed{Kind: KindReply, Message: "Please follow community guidelines"}},
		{"log_incident", Parsed{Kind: KindLogIncident}},
		{"let_comment_stand", Parsed{Kind: KindLetStand}},
		{"let_stand", Parsed{Kind: KindLetStand}},
		{"frobnicate_xyz", Parsed{Kind: KindUnknown}},
		{"", Parsed{Kind: KindUnknown}},
	}
	for _, tc := range cases {
		if got := Parse(tc.token); got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.token, got, tc.want)
		}
	}
}

func TestApplyIncrementsCounters(t *testing.T) {
	led := ledger.New()
	app := NewApplier(led)

	outcomes := app.Apply([]string{"warn_user", "warn_user", "timeout_user_10m"}, "u1", "spamming emotes")
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for i, out := range outcomes {
		if !out.Succeeded {
			t.Fatalf("outcome %d failed: %s", i, out.Message)
		}
		if out.UserID != "u1" {
			t.Fatalf("outcome %d user = %q, want u1", i, out.UserID)
		}
	}
	wantCounts := []int{1, 2, 1}
	for i, want := range wantCounts {
		if outcomes[i].NewCount != want {
			t.Fatalf("outcome %d new count = %d, want %d", i, outcomes[i].NewCount, want)
		}
	}
	if !strings.Contains(outcomes[1].Message, "total warnings: 2") {
		t.Fatalf("second warning message = %q", outcomes[1].Message)
	}
	if !strings.Contains(outcomes[2].Message, "timed out for 10m") {
		t.Fatalf("timeout message = %q", outcomes[2].Message)
	}

	state := led.FullStats("u1")
	if state.WarningCount != 2 || state.TimeoutCount != 1 {
		t.Fatalf("ledger state = %+v", state)
	}
	if state.LastAction != "timeout" {
		t.Fatalf("last action = %q, want timeout", state.LastAction)
	}
}

func TestApplyUnknownTokenFailsButContinues(t *testing.T) {
	led := ledger.New()
	app := NewApplier(led)

	outcomes := app.Apply([]string{"ban_user", "frobnicate_xyz"}, "u2", "go kys lol")
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if !outcomes[0].Succeeded {
		t.Fatalf("ban outcome failed: %s", outcomes[0].Message)
	}
	if outcomes[0].NewCount != 1 {
		t.Fatalf("ban new count = %d, want 1", outcomes[0].NewCount)
	}
	if outcomes[1].Succeeded {
		t.Fatal("unknown token reported success")
	}
	if outcomes[1].Message != "unknown action: frobnicate_xyz" {
		t.Fatalf("unknown message = %q", outcomes[1].Message)
	}
	if outcomes[1].UserID != "u2" || outcomes[1].NewCount != 0 {
		t.Fatalf("unknown outcome = %+v", outcomes[1])
	}
	if got := led.FullStats("u2").BanCount; got != 1 {
		t.Fatalf("ban count = %d, want 1", got)
	}
}

func TestApplyReplyRecordsMessage(t *testing.T) {
	led := ledger.New()
	app := NewApplier(led)

	outcomes := app.Apply([]string{"reply('Welcome back!')"}, "u3", "hi chat, long time no see")
	if !strings.Contains(outcomes[0].Message, `"Welcome back!"`) {
		t.Fatalf("reply message = %q", outcomes[0].Message)
	}
	if outcomes[0].NewCount != 1 {
		t.Fatalf("reply new count = %d, want 1", outcomes[0].NewCount)
	}
	if got := led.FullStats("u3").RepliesSent; got != 1 {
		t.Fatalf("replies sent = %d, want 1", got)
	}
}

func TestApplyPassiveActionsLeaveLedgerUntouched(t *testing.T) {
	led := ledger.New()
	app := NewApplier(led)

	outcomes := app.Apply([]string{"log_incident", "let_comment_stand"}, "u4", "what game is this")
	for i, out := range outcomes {
		if !out.Succeeded {
			t.Fatalf("outcome %d failed: %s", i, out.Message)
		}
		if out.NewCount != 0 {
			t.Fatalf("outcome %d new count = %d, want 0", i, out.NewCount)
		}
	}
	state := led.FullStats("u4")
	if state.BanCount+state.WarningCount+state.TimeoutCount+state.DeletedComments+state.RepliesSent != 0 {
		t.Fatalf("passive actions changed counters: %+v", state)
	}
}
