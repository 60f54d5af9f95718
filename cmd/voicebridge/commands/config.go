package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/cmd/voicebridge/internal/config"
	"github.com/haivivi/voicebridge/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage contexts and bridge settings",
	Long: `Manage contexts and their bridge.yaml.

A context is a named directory holding bridge.yaml. Commands use the
current context unless --context is given.

Examples:
  voicebridge config add-context dev
  voicebridge config use-context dev
  voicebridge config set voice shimmer
  voicebridge config set modalities text,audio
  voicebridge config show`,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "list-contexts"},
	Short:   "List contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured.")
			fmt.Fprintln(cmd.OutOrStdout(), "Create one with: voicebridge config add-context <name>")
			return nil
		}
		t := cli.NewTable("CURRENT", "NAME")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			t.Append(current, name)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q created.", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and its bridge.yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q deleted.", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Switched to context %q.", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show bridge.yaml of the context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		dir, err := cfg.ResolveContext(contextName)
		if err != nil {
			return err
		}
		b, err := config.LoadBridge(dir)
		if err != nil {
			return err
		}
		b.APIKey = cli.MaskSecret(b.APIKey)
		return output(cmd, b)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a bridge.yaml value in the context",
	Long: `Set a bridge.yaml value. port, max_pending_marks and temperature are
numbers; modalities takes a comma separated list.

Keys: ` + strings.Join(config.BridgeKeys, ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		key, raw := args[0], args[1]
		if !config.IsBridgeKey(key) {
			return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(config.BridgeKeys, ", "))
		}
		dir, err := cfg.ResolveContext(contextName)
		if err != nil {
			return err
		}

		m := map[string]any{}
		existing, err := config.LoadService[map[string]any](dir, config.BridgeService)
		switch {
		case err == nil && *existing != nil:
			m = *existing
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("cannot read existing bridge config: %w", err)
		}
		m[key] = parseValue(key, raw)

		// Reject values that would not load back into the typed settings.
		data, err := yaml.Marshal(m)
		if err != nil {
			return err
		}
		var check config.Bridge
		if err := yaml.Unmarshal(data, &check); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}

		if err := config.SaveService(dir, config.BridgeService, &m); err != nil {
			return err
		}
		shown := raw
		if key == "api_key" {
			shown = cli.MaskSecret(raw)
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Set %s = %s", key, shown)
		return nil
	},
}

func parseValue(key, raw string) any {
	switch key {
	case "modalities":
		var out []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case "port", "max_pending_marks":
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case "temperature":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}
