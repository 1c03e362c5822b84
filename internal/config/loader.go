package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from files and command-line
// arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Positional arguments are the multicast group and UDP port.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	streamsPath := flagSet.Lookup("streams").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Mode:           ModeSocket,
		ReportInterval: 5 * time.Second,
		Burst:          32,
		PoolSize:       64,
		ConfigFile:     configPath,
	}

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}
	if err := applyPositionalArgs(cfg, flagSet.Args()); err != nil {
		return nil, err
	}

	if streamsPath != "" {
		cfg.StreamsFile = streamsPath
	}
	if cfg.StreamsFile != "" {
		streams, err := loadStreamsFile(cfg.StreamsFile)
		if err != nil {
			return nil, err
		}
		cfg.Streams = streams
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "group"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("group: %w", err)
		}
		cfg.Group = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "port"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = val
	}

	if raw, ok := lookupSetting(settings, "mode"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("mode: %w", err)
		}
		if val != "" {
			cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "reportinterval", "report_interval", "report-interval", "interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("reportInterval: %w", err)
		}
		if dur > 0 {
			cfg.ReportInterval = dur
		}
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = dur
	}

	if raw, ok := lookupSetting(settings, "burst"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("burst: %w", err)
		}
		if val > 0 {
			cfg.Burst = val
		}
	}

	if raw, ok := lookupSetting(settings, "poolsize", "pool_size", "pool-size"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("poolSize: %w", err)
		}
		if val > 0 {
			cfg.PoolSize = val
		}
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "quiet"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("quiet: %w", err)
		}
		cfg.Quiet = val
	}

	if raw, ok := lookupSetting(settings, "streamsfile", "streams_file", "streams-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("streamsFile: %w", err)
		}
		cfg.StreamsFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "streams"); ok {
		streams, err := parseStreams(raw)
		if err != nil {
			return fmt.Errorf("streams: %w", err)
		}
		cfg.Streams = streams
	}

	return nil
}

func parseStreams(value interface{}) ([]Stream, error) {
	if value == nil {
		return nil, nil
	}
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	streams := make([]Stream, 0, len(items))
	for idx, item := range items {
		entry, err := toStringKeyMap(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		var stream Stream
		if raw, ok := lookupSetting(entry, "group"); ok {
			val, err := asString(raw)
			if err != nil {
				return nil, fmt.Errorf("index %d group: %w", idx, err)
			}
			stream.Group = strings.TrimSpace(val)
		}
		if raw, ok := lookupSetting(entry, "port"); ok {
			val, err := asInt(raw)
			if err != nil {
				return nil, fmt.Errorf("index %d port: %w", idx, err)
			}
			stream.Port = val
		}
		streams = append(streams, stream)
	}
	return streams, nil
}

// applyFlagOverrides applies explicitly set command-line flags on top of
// file settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "mode":
			val, _ := flags.GetString("mode")
			cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(val)))
		case "interval":
			cfg.ReportInterval, _ = flags.GetDuration("interval")
		case "duration":
			cfg.Duration, _ = flags.GetDuration("duration")
		case "burst":
			cfg.Burst, _ = flags.GetInt("burst")
		case "pool-size":
			cfg.PoolSize, _ = flags.GetInt("pool-size")
		case "json-output":
			cfg.JSONOutput, _ = flags.GetBool("json-output")
		case "dashboard":
			cfg.Dashboard, _ = flags.GetBool("dashboard")
		case "quiet":
			cfg.Quiet, _ = flags.GetBool("quiet")
		}
	})
	return err
}

// applyPositionalArgs fills group and port from the positional
// `<group> <port>` form of the receiver CLI.
func applyPositionalArgs(cfg *Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) > 2 {
		return fmt.Errorf("unexpected arguments after <group> <port>: %v", args[2:])
	}
	cfg.Group = strings.TrimSpace(args[0])
	if len(args) == 2 {
		port, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	}
	return nil
}

// streamsFile is the YAML shape of a multi-stream definition:
//
//	streams:
//	  - group: 239.1.1.1
//	    port: 12345
//	  - group: 239.1.1.2
//	    port: 12345
type streamsFile struct {
	Streams []Stream `yaml:"streams"`
}

func loadStreamsFile(path string) ([]Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("streams file: %w", err)
	}
	var parsed streamsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("streams file: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return nil, fmt.Errorf("streams file %s defines no streams", path)
	}
	return parsed.Streams, nil
}
