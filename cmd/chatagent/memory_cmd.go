package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/chatagent/internal/memory"
)

func newMemoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear what the agent remembers about you",
	}

	open := func(cmd *cobra.Command) (memory.Store, error) {
		return memory.Open(cmd.Context(), a.cfg.Memory.Backend, a.cfg.Memory.Path, a.logger)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			text, err := store.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			if text == "" {
				text = "Nothing remembered yet."
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget everything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Memory cleared.")
			return nil
		},
	})
	return cmd
}
