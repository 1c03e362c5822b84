package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/torosent/feedbench/internal/feed"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil
		}
		return err
	}

	flags := cmd.Flags()
	if helpFlag := flags.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil
		}
	}

	opt, err := optionsFromFlags(flags)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Publishing to %s:%d at %d msg/sec\n", opt.Group, opt.Port, opt.Rate)

	result, err := feed.New(opt).Run(ctx)
	if err != nil {
		return err
	}

	avg := 0.0
	if result.Elapsed > 0 {
		avg = float64(result.Sent) / result.Elapsed.Seconds()
	}
	fmt.Printf("Final stats: %d messages in %.1fs (avg: %.0f msg/sec)\n",
		result.Sent, result.Elapsed.Seconds(), avg)
	return nil
}

func optionsFromFlags(flags *pflag.FlagSet) (feed.Options, error) {
	group, _ := flags.GetString("group")
	port, _ := flags.GetInt("port")
	symbol, _ := flags.GetString("symbol")
	rate, _ := flags.GetInt("rate")
	total, _ := flags.GetInt("total")
	duration, _ := flags.GetDuration("duration")
	ttl, _ := flags.GetInt("ttl")

	ip := net.ParseIP(group)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return feed.Options{}, fmt.Errorf("group must be an IPv4 multicast address, got %q", group)
	}
	if port < 1 || port > 65535 {
		return feed.Options{}, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	if rate < 0 {
		return feed.Options{}, fmt.Errorf("rate must not be negative, got %d", rate)
	}
	if len(symbol) == 0 || len(symbol) > 4 {
		return feed.Options{}, fmt.Errorf("symbol must be 1 to 4 characters, got %q", symbol)
	}

	return feed.Options{
		Group:    group,
		Port:     port,
		Symbol:   symbol,
		Rate:     rate,
		Total:    total,
		Duration: duration,
		TTL:      ttl,
		Progress: os.Stdout,
	}, nil
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "feedsim",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	flags.StringP("group", "g", "239.1.1.1", "Multicast group to publish to")
	flags.IntP("port", "p", 12345, "UDP port to publish on")
	flags.StringP("symbol", "s", "AAPL", "Ticker symbol embedded in every record (max 4 chars)")
	flags.IntP("rate", "r", 10000, "Messages per second (0 means unpaced)")
	flags.IntP("total", "t", 0, "Total messages to send (0 means unlimited)")
	flags.DurationP("duration", "d", 60*time.Second, "How long to publish")
	flags.Int("ttl", 2, "Multicast TTL")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
