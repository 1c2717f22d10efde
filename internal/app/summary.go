package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/ridechat/internal/log"
	"github.com/lucasjlepore/ridechat/internal/output"
)

var (
	summaryFlags rideFlags
	summaryJSON  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Print the headline metrics of a ride",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

func init() {
	summaryFlags.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	samples, summary, source, err := summaryFlags.loadRide(args)
	if err != nil {
		return err
	}

	engine := newEngine(log.Named("engine"))
	engine.Load(samples, summary)
	headline := engine.HeadlineMetrics()
	out := cmd.OutOrStdout()

	if summaryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(headline)
	}

	title := fmt.Sprintf("%s (%d data points)", source, samples.Len())
	fmt.Fprint(out, output.Headline(title, headline, engine.Units()))
	return nil
}
