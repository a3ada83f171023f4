package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/chatagent/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the user config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := config.NewManager()
			if err != nil {
				return err
			}
			if m.Exists() && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", m.Path())
			}
			cfg := a.cfg
			if err := m.Save(&cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", m.Path())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			redacted := config.Redacted(a.cfg)
			data, err := config.Marshal(&redacted)
			if err != nil {
				return err
			}
			if a.loadedFile != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", a.loadedFile)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
