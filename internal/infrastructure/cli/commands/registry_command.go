package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/wintool/internal/app"
)

// NewRegistryCommand creates the `reg` command
func NewRegistryCommand(container *app.Container) *cobra.Command {
	regCmd := &cobra.Command{
		Use:   "reg",
		Short: "Read values from the Windows registry",
	}

	regCmd.AddCommand(newRegistryGetCommand(container))
	return regCmd
}

func newRegistryGetCommand(container *app.Container) *cobra.Command {
	var integer bool

	cmd := &cobra.Command{
		Use:   "get <key> <name>",
		Short: `Print one value, e.g. reg get "HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion" CurrentBuild`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Registry == nil {
				return errors.New(ErrRegistryUnavailable)
			}
			key, name := args[0], args[1]
			if integer {
				value, err := container.Registry.ReadInteger(key, name)
				if err != nil {
					return fmt.Errorf("read %s\\%s: %w", key, name, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}
			value, err := container.Registry.ReadString(key, name)
			if err != nil {
				return fmt.Errorf("read %s\\%s: %w", key, name, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&integer, "int", false, "Read a DWORD/QWORD value")
	return cmd
}
