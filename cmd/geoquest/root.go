package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geoquest",
	Short: "Proximity engine tooling",
	Long:  "Geoquest replays recorded location traces against a task catalog server and prints the arrivals the engine detects.",
}

func init() {
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(distanceCmd)
}
