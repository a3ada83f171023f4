package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

type toolInfo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func newToolsCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := prepareRuntimeEnv(cmd.Context(), a.cfg, a.logger, runtimeOptions{SkipLLM: true})
			if err != nil {
				return err
			}
			defer env.Close()
			return printTools(cmd.OutOrStdout(), env.Tools, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}

func printTools(w io.Writer, reg *engine.Registry, output string) error {
	switch output {
	case "text":
		_, err := fmt.Fprintln(w, reg.Description())
		return err
	case "yaml":
		list := make([]toolInfo, 0, reg.Len())
		for _, t := range reg.All() {
			list = append(list, toolInfo{Name: t.Name(), Description: t.Description()})
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(list)
	default:
		return errors.Errorf("unknown output format %q (use text or yaml)", output)
	}
}
