package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/dexter/internal/app"
	appconfig "github.com/doeshing/dexter/internal/application/config"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/infrastructure/config"
	"github.com/doeshing/dexter/internal/pkg/filesystem"
)

// NewConfigCommand creates the config command. It reads the file directly
// and never builds the full container.
func NewConfigCommand(lazy *app.Lazy) *cobra.Command {
	loader := func() *config.FileLoader { return config.NewFileLoader(lazy.Options().ConfigPath) }

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect Dexter configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, loader())
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, loader())
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), loader().Path())
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write ~/.dexter/config.yaml with Gemini and a local Ollama provider.

Afterwards export GEMINI_API_KEY (or edit the providers list) and run
'dexter targets' to see the order completions will be tried in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := loader().Path()
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)

			rulesPath := config.DefaultConfig().Safety.RulesFile
			if cfg, err := loader().Load(cmd.Context()); err == nil && cfg.Safety.RulesFile != "" {
				rulesPath = cfg.Safety.RulesFile
			}
			wrote, err := config.WriteDefaultRules(rulesPath)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter safety rules to %s\n", filesystem.ExpandPath(rulesPath))
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader().Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := appconfig.Validate(cfg); err != nil {
				return err
			}
			for _, warning := range appconfig.Warnings(cfg) {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value (e.g. models.router_model)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader().Load(cmd.Context())
			if err != nil {
				return err
			}
			return printConfigValue(cmd.OutOrStdout(), cfg, args[0])
		},
	}

	configCmd.AddCommand(showCmd, pathCmd, initCmd, validateCmd, getCmd)
	return configCmd
}

func showConfig(cmd *cobra.Command, loader *config.FileLoader) error {
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(redactKeys(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", loader.Path(), data)
	return nil
}

// redactKeys hides inline API keys when printing.
func redactKeys(cfg domain.Config) domain.Config {
	providers := make([]domain.ProviderConfig, len(cfg.Providers))
	for i, p := range cfg.Providers {
		if p.APIKey != "" {
			p.APIKey = "********"
		}
		providers[i] = p
	}
	cfg.Providers = providers
	return cfg
}

func printConfigValue(out io.Writer, cfg domain.Config, key string) error {
	raw, err := yaml.Marshal(redactKeys(cfg))
	if err != nil {
		return err
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	value, ok := traverseKey(generic, strings.Split(key, "."))
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

func traverseKey(data interface{}, path []string) (interface{}, bool) {
	current := data
	for _, segment := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
