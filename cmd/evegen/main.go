package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eveview/eveview/internal/gen"
)

func main() {
	count := flag.Int("count", 1000, "number of events to generate")
	seed := flag.Uint64("seed", 0, "random seed (0 seeds from entropy)")
	window := flag.Duration("window", 24*time.Hour, "time span to spread events over, ending now")
	output := flag.String("output", "", "output file (default stdout)")
	flag.Parse()

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := gen.Generate(gen.Config{
		Count:  *count,
		Seed:   *seed,
		Window: *window,
	}, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
