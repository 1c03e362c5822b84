package main

import (
	"testing"
	"time"
)

func TestOptionsFromFlagsDefaults(t *testing.T) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	opt, err := optionsFromFlags(cmd.Flags())
	if err != nil {
		t.Fatalf("optionsFromFlags() error = %v", err)
	}
	if opt.Group != "239.1.1.1" {
		t.Errorf("Group = %q, want 239.1.1.1", opt.Group)
	}
	if opt.Port != 12345 {
		t.Errorf("Port = %d, want 12345", opt.Port)
	}
	if opt.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", opt.Symbol)
	}
	if opt.Rate != 10000 {
		t.Errorf("Rate = %d, want 10000", opt.Rate)
	}
	if opt.Duration != 60*time.Second {
		t.Errorf("Duration = %v, want 60s", opt.Duration)
	}
	if opt.TTL != 2 {
		t.Errorf("TTL = %d, want 2", opt.TTL)
	}
}

func TestOptionsFromFlagsOverrides(t *testing.T) {
	cmd := newFlagCommand()
	args := []string{"-g", "239.2.2.2", "-p", "9000", "-s", "MSFT", "-r", "500", "-t", "100", "-d", "5s", "--ttl", "1"}
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	opt, err := optionsFromFlags(cmd.Flags())
	if err != nil {
		t.Fatalf("optionsFromFlags() error = %v", err)
	}
	if opt.Group != "239.2.2.2" || opt.Port != 9000 || opt.Symbol != "MSFT" {
		t.Errorf("unexpected options: %+v", opt)
	}
	if opt.Rate != 500 || opt.Total != 100 || opt.Duration != 5*time.Second || opt.TTL != 1 {
		t.Errorf("unexpected options: %+v", opt)
	}
}

func TestOptionsFromFlagsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unicast group", []string{"-g", "192.168.1.1"}},
		{"ipv6 group", []string{"-g", "ff02::1"}},
		{"not an address", []string{"-g", "feed"}},
		{"port too low", []string{"-p", "0"}},
		{"port too high", []string{"-p", "70000"}},
		{"negative rate", []string{"-r", "-1"}},
		{"symbol too long", []string{"-s", "TOOLONG"}},
		{"empty symbol", []string{"-s", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newFlagCommand()
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if _, err := optionsFromFlags(cmd.Flags()); err == nil {
				t.Error("optionsFromFlags() error = nil, want error")
			}
		})
	}
}
