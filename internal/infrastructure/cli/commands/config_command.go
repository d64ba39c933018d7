package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/wintool/internal/app"
	configapp "github.com/doeshing/wintool/internal/application/config"
	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/wintool/internal/infrastructure/config"
)

const envKeyEditor = "EDITOR"

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change ~/.wintool/config.yaml",
	}

	configCmd.AddCommand(
		newConfigShowCommand(container),
		newConfigGetCommand(container),
		newConfigSetCommand(container),
		newConfigEditCommand(container),
		newConfigValidateCommand(container),
		newConfigResetCommand(container),
		newConfigDiffCommand(container),
		newConfigPathCommand(container),
	)

	return configCmd
}

func newConfigShowCommand(container *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration, defaults filled in",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := helpers.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if outputFormat == helpers.FormatTable {
				outputFormat = helpers.FormatYAML
			}
			return helpers.WriteStructured(cmd.OutOrStdout(), outputFormat, cfg, nil)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", helpers.FormatYAML, "Output format: yaml or json")
	return cmd
}

func newConfigGetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value from the config file (e.g. executor.default_timeout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfigDocument(cmd.Context(), container)
			if err != nil {
				return err
			}
			node, found := doc.Lookup(helpers.SplitKeyPath(args[0]))
			if !found {
				return fmt.Errorf("key %s not found in configuration", args[0])
			}
			data, err := yaml.Marshal(node)
			if err != nil {
				return fmt.Errorf("failed to marshal value: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value, keeping comments in the file (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigurationValue(cmd.Context(), cmd.OutOrStdout(), container, args[0], strings.Join(args[1:], " "))
		},
	}
}

func newConfigEditCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the config in $EDITOR and validate the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigurationInEditor(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

func newConfigValidateCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			if err := configapp.Validate(cfg); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
			return nil
		},
	}
}

func newConfigResetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Back up the config and restore the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := helpers.GetConfigLoader(container)
			if err != nil {
				return err
			}
			backup := ""
			if _, statErr := os.Stat(loader.Path()); statErr == nil {
				if backup, err = loader.Backup(); err != nil {
					return fmt.Errorf("failed to create configuration backup: %w", err)
				}
			}
			if _, err := loader.Reset(); err != nil {
				return fmt.Errorf("failed to reset configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration reset at %s\n", loader.Path())
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Previous file saved as %s\n", backup)
			}
			return nil
		},
	}
}

func newConfigDiffCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show how the config differs from the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load current configuration: %w", err)
			}
			diff := diffFromDefaults(current)
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoDifferencesFromDefault)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}

func newConfigPathCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location and related paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := helpers.GetConfigLoader(container)
			if err != nil {
				return err
			}
			w := helpers.NewTable(cmd.OutOrStdout())
			writeConfigPaths(w, loader.Path(), container)
			return w.Flush()
		},
	}
}

// diffFromDefaults reports changes relative to the built-in config; a nil and
// an empty list count as equal.
func diffFromDefaults(current domain.Config) string {
	return cmp.Diff(configinfra.DefaultConfig(), current, cmpopts.EquateEmpty())
}

func writeConfigPaths(w *tabwriter.Writer, configPath string, container *app.Container) {
	fmt.Fprintf(w, "config\t%s\n", configPath)
	if container.HistoryStore != nil {
		fmt.Fprintf(w, "journal\t%s\n", container.HistoryStore.Path())
	}
	if container.Classifier != nil {
		fmt.Fprintf(w, "rules\t%s\n", container.Classifier.Source())
	}
}

// loadConfigDocument makes sure the file exists, then reads it as a node tree.
func loadConfigDocument(ctx context.Context, container *app.Container) (*helpers.ConfigDocument, error) {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return nil, err
	}
	if _, err := loader.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return helpers.ReadConfigDocument(loader.Path())
}

// setConfigurationValue edits one key in place, validates the whole file and
// writes it back after a backup.
func setConfigurationValue(ctx context.Context, out io.Writer, container *app.Container, keyPath, value string) error {
	doc, err := loadConfigDocument(ctx, container)
	if err != nil {
		return err
	}
	if err := doc.Set(helpers.SplitKeyPath(keyPath), value); err != nil {
		return fmt.Errorf("unable to set key %s: %w", keyPath, err)
	}

	updated, err := doc.Decode()
	if err != nil {
		return fmt.Errorf("%s: %w", keyPath, err)
	}
	if err := configapp.Validate(updated); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	loader := container.ConfigLoader
	if _, err := loader.Backup(); err != nil {
		return fmt.Errorf("failed to create configuration backup: %w", err)
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(loader.Path(), data, domain.SecureFilePermissions); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "%s updated in %s\n", keyPath, loader.Path())
	return nil
}

// editConfigurationInEditor opens the config in the user's editor and checks
// the saved result, pointing at the backup when it no longer validates.
func editConfigurationInEditor(ctx context.Context, out io.Writer, container *app.Container) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}
	if _, err := loader.Load(ctx); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	backup, err := loader.Backup()
	if err != nil {
		return fmt.Errorf("failed to create configuration backup: %w", err)
	}

	editorCommand := getEditorCommand()
	cmd := exec.CommandContext(ctx, editorCommand, loader.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editorCommand, err)
	}

	cfg, err := loader.Load(ctx)
	if err == nil {
		err = configapp.Validate(cfg)
	}
	if err != nil {
		return fmt.Errorf("edited configuration is invalid (previous version in %s): %w", backup, err)
	}
	fmt.Fprintln(out, MsgConfigurationValid)
	return nil
}

func getEditorCommand() string {
	if editor := os.Getenv(envKeyEditor); editor != "" {
		return editor
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}
