package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/questmap/geoquest/internal/geo"
)

var distanceCmd = &cobra.Command{
	Use:   "distance LAT1 LNG1 LAT2 LNG2",
	Short: "Compute the great-circle distance between two coordinates",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords := make([]float64, 4)
		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("parsing coordinate %q: %w", arg, err)
			}
			coords[i] = v
		}

		d := geo.DistanceMeters(coords[0], coords[1], coords[2], coords[3])
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f m\n", d)
		return nil
	},
}
