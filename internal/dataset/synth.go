package dataset

import (
	"fmt"
	"math/rand"
)

// #region templates

type template struct {
	comment string
	strikes int
}

// personaOrder fixes the draw order so a seed always yields the same
// dataset regardless of map iteration.
var personaOrder = []string{"firm_professional", "lenient_supportive", "nuanced_patient"}

var personaTemplates = map[string][]template{
	"lenient_supportive": {
		{"yo stream was fire last night!!", 0},
		{"sorry if that was rude earlier, just hyped", 1},
		{"gg that clutch was insane", 0},
		{"love this stream, keep it up!!", 0},
	},
	"firm_professional": {
		{"go kys lol", 2},
		{"follow me for free coins!!! http://spam.link", 1},
		{"why are mods sleeping this chat is wilding", 1},
		{"this streamer is trash and so is everyone watching", 2},
		{"buy followers cheap, promo code STREAM50", 1},
	},
	"nuanced_patient": {
		{"that's sus but maybe they meant it as a joke?", 0},
		{"your mic is clipping bro, hurts my ears", 0},
		{"chat is moving kinda fast, did i miss something?", 0},
		{"not sure that callout was fair tbh", 1},
	},
}

var topics = []string{"speedrun", "ranked grind", "irl chat", "charity marathon"}

// #endregion templates

// Synthesize builds n synthetic chat events, deterministic for a given
// seed. Users come from a small repeating pool so the same accounts
// reoffend and runs exercise the per-user escalation ladder.
func Synthesize(n int, seed int64) []Event {
	rng := rand.New(rand.NewSource(seed))
	userPool := n / 4
	if userPool < 3 {
		userPool = 3
	}

	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		persona := personaOrder[rng.Intn(len(personaOrder))]
		pool := personaTemplates[persona]
		tmpl := pool[rng.Intn(len(pool))]

		ev := Event{
			Comment: tmpl.comment,
			Meta: Meta{
				User:           fmt.Sprintf("user_%03d", rng.Intn(userPool)+1),
				AccountAgeDays: rng.Intn(891) + 10,
				Strikes:        tmpl.strikes,
			},
			Persona: persona,
		}
		// Roughly a quarter of events refresh the channel context.
		if rng.Intn(4) == 0 {
			followers := rng.Intn(5000)
			viewers := rng.Intn(2000)
			ev.Meta.FollowerCount = &followers
			ev.Meta.ViewerCount = &viewers
			ev.Meta.Topic = topics[rng.Intn(len(topics))]
		}
		events = append(events, ev)
	}
	return events
}
