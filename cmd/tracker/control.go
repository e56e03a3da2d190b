package main

import (
	"fmt"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/benmeehan/location-tracker/internal/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	startChoice   string
	startInterval time.Duration
	clearLocal    bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start tracking, or change the interval of a running session",
	Example: `  tracker start --choice medium
  tracker start --interval 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := resolveInterval(startChoice, startInterval)
		if err != nil {
			return err
		}

		ctrl, done, err := controller()
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.StartTracking(interval); err != nil {
			return err
		}
		fmt.Printf("%s saving location every %s\n", color.GreenString("Tracking started:"), utils.FormatInterval(interval))
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := controller()
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.StopTracking(); err != nil {
			return err
		}
		fmt.Println(color.RedString("Tracking stopped"))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole location history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if clearLocal {
			repo, err := openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.ClearAll(cmd.Context()); err != nil {
				return err
			}
		} else if err := newAPIClient().clearHistory(); err != nil {
			return err
		}
		fmt.Println(color.YellowString("History cleared"))
		return nil
	},
}

// resolveInterval picks the interval from a named choice or an explicit
// duration, defaulting to the short choice.
func resolveInterval(choice string, interval time.Duration) (time.Duration, error) {
	if choice != "" && interval != 0 {
		return 0, fmt.Errorf("use either --choice or --interval, not both")
	}
	if interval < 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	if interval > 0 {
		return interval, nil
	}
	if choice == "" {
		return constants.IntervalShort, nil
	}
	d, ok := constants.IntervalChoices[choice]
	if !ok {
		return 0, fmt.Errorf("unknown choice %q (short, medium or long)", choice)
	}
	return d, nil
}

func init() {
	startCmd.Flags().StringVar(&startChoice, "choice", "", "interval choice: short (10s), medium (60s) or long (5m)")
	startCmd.Flags().DurationVar(&startInterval, "interval", 0, "explicit sampling interval")
	clearCmd.Flags().BoolVar(&clearLocal, "local", false, "clear the database file directly instead of asking the running agent")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(clearCmd)
}
