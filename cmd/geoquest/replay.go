package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/questmap/geoquest/internal/client"
	"github.com/questmap/geoquest/internal/engine"
	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/locate"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded trace against a catalog server",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().String("server", "http://localhost:8080", "Base URL of the task catalog server")
	replayCmd.Flags().String("username", "", "Username to track as (required)")
	replayCmd.Flags().String("trace", "", "Path to a JSON trace file (required)")
	replayCmd.Flags().Float64("speed", 1, "Replay speed multiplier; 0 replays with no delays")
	replayCmd.Flags().Bool("verbose", false, "Log engine internals to stderr")
	replayCmd.MarkFlagRequired("username")
	replayCmd.MarkFlagRequired("trace")
}

func runReplay(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	username, _ := cmd.Flags().GetString("username")
	tracePath, _ := cmd.Flags().GetString("trace")
	speed, _ := cmd.Flags().GetFloat64("speed")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	api, err := client.New(server, username)
	if err != nil {
		return err
	}
	src, err := locate.LoadTrace(tracePath, speed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	start := time.Now()

	sess, err := engine.NewSession(engine.SessionConfig{
		Source:  src,
		Catalog: api,
		OnArrival: func(ev engine.ArrivalEvent) {
			fmt.Fprintf(out, "%8s  arrived at %s (%.1fm)\n",
				time.Since(start).Round(time.Millisecond), ev.TaskID, ev.Distance)
		},
		OnReady: func(pos geo.Position) {
			fmt.Fprintf(out, "%8s  tracking from %.4f, %.4f\n",
				time.Since(start).Round(time.Millisecond), pos.Lat, pos.Lng)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	// Run returns nil when the trace is exhausted.
	if err := sess.Run(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(out, "%8s  trace finished, %d arrivals\n",
		time.Since(start).Round(time.Millisecond), sess.State().TriggeredCount())
	return nil
}
