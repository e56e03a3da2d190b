package main

import (
	"fmt"

	"github.com/benmeehan/location-tracker/internal/geojson"
	"github.com/benmeehan/location-tracker/internal/presentation"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyGeoJSON bool
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "List recorded locations, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		samples, err := repo.All(cmd.Context())
		if err != nil {
			return err
		}

		if historyGeoJSON {
			data, err := geojson.History(samples).ToJSONIndent()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(samples) == 0 {
			fmt.Println(color.New(color.Faint).Sprint("No locations recorded"))
			return nil
		}

		shown := samples
		if historyLimit > 0 && len(shown) > historyLimit {
			shown = shown[:historyLimit]
		}
		for _, s := range shown {
			fmt.Printf("%s  %s  %s\n",
				color.New(color.Faint).Sprintf("#%d", s.ID),
				s.Time().Format("Jan 2 15:04:05"),
				color.CyanString(presentation.FormatCoordinates(s)))
		}
		if len(shown) < len(samples) {
			fmt.Println(color.New(color.Faint).Sprintf("... %d more", len(samples)-len(shown)))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most n entries")
	historyCmd.Flags().BoolVar(&historyGeoJSON, "geojson", false, "print the history as a GeoJSON FeatureCollection")
	rootCmd.AddCommand(historyCmd)
}
