package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/ridechat/decode"
	"github.com/lucasjlepore/ridechat/demo"
	"github.com/lucasjlepore/ridechat/table"
)

// rideFlags are shared by the commands that read one ride.
type rideFlags struct {
	demo bool
	seed uint64
}

func (f *rideFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.demo, "demo", false, "Use a generated one-hour demo ride instead of a file")
	cmd.Flags().Uint64Var(&f.seed, "seed", demo.DefaultSeed, "Random seed for --demo")
}

// loadRide returns samples and summary from the file argument or the demo
// generator, plus a display name for the source.
func (f *rideFlags) loadRide(args []string) (*table.Table, table.Summary, string, error) {
	if f.demo {
		samples, summary := demo.Generate(demo.Options{Seed: f.seed})
		return samples, summary, "demo", nil
	}
	if len(args) == 0 {
		return nil, nil, "", fmt.Errorf("a .fit or .zip file is required (or use --demo)")
	}
	activity, err := decode.DecodeFile(args[0])
	if err != nil {
		return nil, nil, "", err
	}
	return activity.Samples, activity.Summary, activity.Source, nil
}
