package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/chatagent/internal/knowledge"
)

func newIndexCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the knowledge index and print statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kc := a.cfg.Knowledge
			maxSize, err := kc.MaxFileSizeBytes()
			if err != nil {
				return err
			}
			ix, err := knowledge.Open(kc.DocsDir, knowledge.Options{
				IndexPath:   kc.IndexPath,
				Extensions:  kc.Extensions,
				MaxFileSize: maxSize,
			}, a.logger)
			if err != nil {
				return err
			}
			defer ix.Close()

			if !ix.RootExists() {
				return errors.Errorf("knowledge base directory not found: %s", ix.Root())
			}
			stats, err := ix.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %s\n", ix.Root(), stats)
			if kc.IndexPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "knowledge.index_path is empty, so the index was built in memory only.")
			}
			return nil
		},
	}
}
