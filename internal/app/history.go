package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/internal/output"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List rides loaded through the server",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultRecentLimit, "Number of rides to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("ride history is disabled (database.path is empty)")
	}
	db, err := history.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rides, err := db.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rides)
	}
	fmt.Fprint(out, output.History(rides, cfg.UnitPolicy()))
	return nil
}
