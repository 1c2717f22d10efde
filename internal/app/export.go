package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/ridechat/export"
	"github.com/lucasjlepore/ridechat/internal/log"
)

var (
	exportFlags     rideFlags
	exportOutDir    string
	exportFormat    string
	exportOverwrite bool
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a ride's samples and headline metrics to disk",
	Long: `Write samples.<format> (with the computed gradient column) and
headline.json into the output directory. Formats: parquet, csv, jsonl.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Output directory (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatParquet, "Sample format: parquet|csv|jsonl")
	exportCmd.Flags().BoolVar(&exportOverwrite, "overwrite", false, "Allow writing into a non-empty directory")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	samples, summary, _, err := exportFlags.loadRide(args)
	if err != nil {
		return err
	}

	engine := newEngine(log.Named("engine"))
	engine.Load(samples, summary)
	ride := engine.Ride()

	res, err := export.Write(ride.Samples, ride.Headline, export.Options{
		OutDir:    exportOutDir,
		Format:    exportFormat,
		Overwrite: exportOverwrite,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples to %s\nwrote %s\n", res.Rows, res.SamplesPath, res.HeadlinePath)
	return nil
}
