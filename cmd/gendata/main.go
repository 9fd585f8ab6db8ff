package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/streamops/modsentry/internal/dataset"
)

// #region main

func main() {
	out := flag.String("out", "data/synthetic_comments.json", "output path")
	num := flag.Int("num", 50, "number of events to generate")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	events := dataset.Synthesize(*num, *seed)
	if err := dataset.Save(*out, events); err != nil {
		log.Fatalf("save dataset: %v", err)
	}
	fmt.Printf("Wrote %d events to %s\n", len(events), *out)
}

// #endregion main
