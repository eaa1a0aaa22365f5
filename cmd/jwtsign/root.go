package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bionicotaku/lingo-utils-jwtsign"
)

const (
	flagConfig    = "config"
	flagEnvPrefix = "env-config-prefix"
	flagLogLevel  = "log-level"
	flagKey       = "key"
	flagKeyFile   = "key-file"
	flagComplete  = "complete"
)

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	conf   config
	logger zerolog.Logger
}

func (a *app) settings() jwtsign.Settings {
	settings := jwtsign.DefaultSettings()
	settings.Logger = a.logger
	return settings
}

func newRootCommand() *cobra.Command {
	state := &app{conf: defaultConfig(), logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "jwtsign",
		Short:         "Sign, verify and decode compact JSON Web Tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString(flagConfig)
			envPrefix, _ := cmd.Flags().GetString(flagEnvPrefix)

			conf, err := loadConfig(configFile, envPrefix)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(flagLogLevel) {
				raw, _ := cmd.Flags().GetString(flagLogLevel)
				level, err := zerolog.ParseLevel(raw)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", flagLogLevel, err)
				}
				conf.Log.Level = level
			}

			state.conf = conf
			state.logger = newLogger(conf.Log.Level)
			return nil
		},
	}

	cmd.PersistentFlags().StringP(flagConfig, "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().String(flagEnvPrefix, defaultEnvPrefix, "Prefix of configuration environment variables")
	cmd.PersistentFlags().String(flagLogLevel, "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newSignCommand(state),
		newVerifyCommand(state),
		newDecodeCommand(state),
	)

	return cmd
}

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagKey, "", "Key material given inline (HMAC secret or PEM)")
	cmd.Flags().String(flagKeyFile, "", "File holding the key material; overrides key.file from config")
}

// readKey resolves the key from --key, --key-file or key.file, in that order.
func (a *app) readKey(cmd *cobra.Command) ([]byte, error) {
	if inline, _ := cmd.Flags().GetString(flagKey); inline != "" {
		return []byte(inline), nil
	}

	path, _ := cmd.Flags().GetString(flagKeyFile)
	if path == "" {
		path = a.conf.Key.File
	}
	if path == "" {
		return nil, errors.New("no key given: use --key, --key-file or key.file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

// readInput returns arg, or the trimmed contents of in when arg is "-" or empty.
func readInput(arg string, in io.Reader) (string, error) {
	if arg != "" && arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func toAlgorithms(names []string) []jwtsign.Algorithm {
	out := make([]jwtsign.Algorithm, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, jwtsign.Algorithm(strings.ToUpper(name)))
		}
	}
	return out
}
