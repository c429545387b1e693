// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollachat/internal/config"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func (c *cliContext) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change settings in the config file. show and get report the
effective values, including environment overrides; set writes the file.
The Gemini API key is never printed.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				fmt.Fprint(c.opts.Stdout, cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every setting with its effective value",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				safe := cfg.Redacted()
				w := tabwriter.NewWriter(c.opts.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tVALUE")
				for _, key := range config.Keys() {
					v, _ := safe.Get(key)
					fmt.Fprintf(w, "%s\t%v\n", key, v)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				v, err := cfg.Redacted().Get(args[0])
				if err != nil {
					return newUsageError("%v (see 'ollachat config keys')", err)
				}
				fmt.Fprintln(c.opts.Stdout, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting in the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.setConfig(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				fmt.Fprintln(c.opts.Stdout, describeConfig(c.flags.configPath))
			},
		},
	)
	return cmd
}

// loadConfig returns the effective configuration without building the App.
func (c *cliContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.flags.configPath)
	if cfg == nil {
		return nil, &CommandError{Command: "config", Code: ExitConfigError, Err: err}
	}
	if err != nil {
		fmt.Fprintln(c.opts.Stderr, "Warning:", err)
	}
	return cfg, nil
}

// setConfig updates key in the config file only. Environment overrides are
// left out so they never end up saved.
func (c *cliContext) setConfig(key, value string) error {
	path := c.flags.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return &CommandError{Command: "config", Code: ExitConfigError, Err: err}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return newUsageError("%v (see 'ollachat config keys')", err)
		}
		return newUsageError("%v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return &CommandError{Command: "config", Code: ExitConfigError, Err: err}
	}

	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(c.opts.Stdout, "Set %s in %s\n", key, path)
	return nil
}
