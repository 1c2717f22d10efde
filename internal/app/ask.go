package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasjlepore/ridechat/internal/log"
	"github.com/lucasjlepore/ridechat/internal/output"
)

var askFlags rideFlags

var askCmd = &cobra.Command{
	Use:   "ask [file] [question...]",
	Short: "Answer questions about a ride",
	Long: `Load a ride and answer a question about it. With no question, questions
are read from standard input one per line until EOF or "quit".

With --demo every argument is part of the question.`,
	RunE: runAsk,
}

func init() {
	askFlags.register(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	fileArgs, questionArgs := args, []string(nil)
	if askFlags.demo {
		fileArgs, questionArgs = nil, args
	} else if len(args) > 1 {
		fileArgs, questionArgs = args[:1], args[1:]
	}

	samples, summary, source, err := askFlags.loadRide(fileArgs)
	if err != nil {
		return err
	}

	engine := newEngine(log.Named("engine"))
	engine.Load(samples, summary)
	out := cmd.OutOrStdout()

	if len(questionArgs) > 0 {
		reply := engine.Ask(cmd.Context(), strings.Join(questionArgs, " "))
		fmt.Fprintln(out, output.Reply(reply))
		return nil
	}

	fmt.Fprintf(out, "%s %s (%d data points). Ask away, or type quit.\n",
		output.StyleHeader.Render("Loaded"), source, samples.Len())
	return repl(cmd.Context(), cmd.InOrStdin(), out, func(q string) string {
		return output.Reply(engine.Ask(cmd.Context(), q))
	})
}

func repl(ctx context.Context, in io.Reader, out io.Writer, answer func(string) string) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, output.StyleMuted.Render("> "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		fmt.Fprintln(out, answer(q))
		fmt.Fprintln(out)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
