package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys lists the settings that may be stored in the config file.
var configKeys = []string{"on_error", "workers", "header", "input_format", "db", "log_level"}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage xb2bismark configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.xb2bismark.yaml.
Environment variables prefixed with XB2BISMARK_ override the file.`,
		Example: `  xb2bismark config                      # show all config
  xb2bismark config set on_error skip    # skip malformed records by default
  xb2bismark config get workers          # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	settings := make(map[string]any, len(configKeys))
	for _, k := range configKeys {
		settings[k] = viper.Get(k)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	if !slices.Contains(configKeys, key) {
		return usageError{fmt.Errorf("unknown config key %q (valid: %v)", key, configKeys)}
	}

	switch key {
	case "header":
		b, err := parseBool(value)
		if err != nil {
			return usageError{err}
		}
		viper.Set(key, b)
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return usageError{fmt.Errorf("invalid worker count %q", value)}
		}
		viper.Set(key, n)
	default:
		viper.Set(key, value)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName+".yaml")
	}

	if err := writeConfig(cfgFile, key); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

// writeConfig stores the keys already present in the config file plus
// key itself.
func writeConfig(path, key string) error {
	settings := make(map[string]any)
	for _, k := range configKeys {
		if k == key || viper.InConfig(k) {
			settings[k] = viper.Get(k)
		}
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func runConfigGet(w io.Writer, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
