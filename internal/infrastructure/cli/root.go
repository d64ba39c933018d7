package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
	"github.com/doeshing/wintool/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra root command. The returned cleanup func stops
// pending commands and closes the journal; call it once Execute returns.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func(), error) {
	opts = applyGlobalFlags(opts)

	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := container.Close(); err != nil {
			container.Logger.Warn("closing journal failed", map[string]interface{}{"error": err.Error()})
		}
	}

	root := &cobra.Command{
		Use:           "wintool",
		Short:         "WinTool - Windows command toolkit",
		Long:          "WinTool runs PowerShell, CMD and WMIC commands with fallback strategies, a short-lived result cache and expected-failure detection.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Parsed by applyGlobalFlags before the container exists; registered
	// here so they show up in help and are accepted anywhere on the line.
	root.PersistentFlags().BoolP("verbose", "v", opts.Verbose, "Enable debug logging")
	root.PersistentFlags().String("config", opts.ConfigPath, "Config file (default ~/.wintool/config.yaml)")

	root.AddCommand(
		commands.NewPowerShellCommand(container),
		commands.NewCmdCommand(container),
		commands.NewElevateCommand(container),
		commands.NewServicesCommand(container),
		commands.NewDiskCommand(container),
		commands.NewOverviewCommand(container),
		commands.NewMonitorCommand(container),
		commands.NewRegistryCommand(container),
		commands.NewClassifyCommand(container),
		commands.NewCacheCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, cleanup, nil
}
