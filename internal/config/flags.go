package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all receiver flags
// configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "feedbench <group> <port>",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Receive path flags
	flags.StringP("mode", "m", string(ModeSocket), "Receive strategy: 'socket' (blocking) or 'poll' (busy-poll burst)")
	flags.IntP("burst", "b", 32, "Max packets per poll-mode burst")
	flags.Int("pool-size", 64, "Receive buffer pool size for poll mode")

	// Run control flags
	flags.DurationP("interval", "i", 5*time.Second, "Interval between periodic statistics reports")
	flags.DurationP("duration", "d", 0, "How long to receive (0 means until interrupted)")

	// Multi-stream flags
	flags.String("streams", "", "Path to YAML file listing multicast streams to receive concurrently")

	// Output flags
	flags.Bool("json-output", false, "Emit the final report as JSON")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.BoolP("quiet", "q", false, "Suppress periodic progress lines")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
