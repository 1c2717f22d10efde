// Package app contains the Cobra command tree for ridechat.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/internal/config"
	"github.com/lucasjlepore/ridechat/internal/log"
	"github.com/lucasjlepore/ridechat/internal/output"
	"github.com/lucasjlepore/ridechat/narrative"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with the ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagConfig  string
	flagUnits   string
	flagDebug   bool
	flagNoColor bool
)

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ridechat",
	Short: "Ask questions about a cycling ride",
	Long: `ridechat loads a FIT activity file (or a zip holding one) and answers
questions about it: segment averages, climbs, power zones, heart rate.

Use 'ridechat ask' for a one-off question or an interactive prompt, and
'ridechat serve' to run the HTTP API.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.Error(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/ridechat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagUnits, "units", "", "Display units: imperial or metric (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagUnits != "" {
		loaded.Units = flagUnits
	}
	if flagDebug {
		loaded.Log.Debug = true
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	if err := log.Init(cfg.Log.Debug); err != nil {
		return err
	}
	output.AutoColor(flagNoColor)
	return nil
}

// newEngine builds an engine from the loaded configuration.
func newEngine(logger *zap.SugaredLogger) *ridechat.Engine {
	opts := []ridechat.Option{
		ridechat.WithUnits(cfg.UnitPolicy()),
		ridechat.WithClimbThreshold(cfg.ClimbThreshold),
		ridechat.WithLogger(logger),
	}
	if cfg.NarrativeActive() {
		client := narrative.NewClient(narrative.Config{
			Endpoint: cfg.Narrative.Endpoint,
			Model:    cfg.Narrative.Model,
			Token:    cfg.Narrative.Token,
			Timeout:  cfg.Narrative.Timeout,
			Retries:  cfg.Narrative.Retries,
		}, narrative.WithLogger(logger.Named("narrative")))

		budget := time.Duration(max(cfg.Narrative.Retries, 1)) * (cfg.Narrative.Timeout + narrative.DefaultLoadingBackoff)
		opts = append(opts, ridechat.WithNarrator(client), ridechat.WithNarrativeTimeout(budget))
	}
	return ridechat.New(opts...)
}
