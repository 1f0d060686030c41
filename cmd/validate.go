package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <faction-id> [version]",
	Short: "Validate a faction's unit index",
	Long:  `Loads a faction index from storage and reports units with missing or nonsensical fields.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		factionID := args[0]
		version := ""
		if len(args) > 1 {
			version = args[1]
		}

		cache, logg, err := buildCache()
		if err != nil {
			return err
		}
		defer logg.Sync()

		index, err := cache.LoadFaction(cmd.Context(), factionID, version)
		if err != nil {
			return fmt.Errorf("faction load failed: %w", err)
		}

		var problems int
		for _, entry := range index {
			if msg := entry.Unit.Validate(); msg != "" {
				problems++
				fmt.Printf("  %-32s %s\n", entry.Identifier, msg)
			}
		}

		fmt.Printf("%d unit(s) checked, %d problem(s)\n", len(index), problems)
		if problems > 0 {
			return fmt.Errorf("%d unit(s) failed validation", problems)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
