// Command chaos drives random edit storms against an editor session and
// checks that the scene stays consistent and that history replays exactly.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

func main() {
	seed := flag.Int64("seed", 1, "Random seed")
	steps := flag.Int("steps", 2000, "Number of random gestures")
	checkEvery := flag.Int("check", 100, "Run the sanity checks every N gestures (0 = only at the end)")
	symmetryOn := flag.Bool("symmetry", true, "Allow symmetry operators in the storm")
	history := flag.Int("history", 200, "History limit")
	verbose := flag.Bool("v", false, "Log every gesture")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := Config{
		Seed:         *seed,
		Steps:        *steps,
		CheckEvery:   *checkEvery,
		Symmetry:     *symmetryOn,
		HistoryLimit: *history,
		Logger:       logger,
	}
	fmt.Printf("Storm: seed=%d steps=%d check=%d symmetry=%v\n", cfg.Seed, cfg.Steps, cfg.CheckEvery, cfg.Symmetry)

	report, err := Run(cfg)
	fmt.Printf("\nGestures:\n")
	for _, g := range gestureNames {
		if n := report.Counts[g]; n > 0 {
			fmt.Printf("  %-10s %d\n", g, n)
		}
	}
	fmt.Printf("Final: %d cells, %d orbits, %d undo steps verified\n", report.Cells, report.Orbits, report.Replayed)

	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}
