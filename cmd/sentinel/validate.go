package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milk9111/sentinel/prefabs"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate scenario...",
		Short: "Load and validate scenarios without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, name := range args {
				spec, err := prefabs.LoadScenario(name)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d squads, %d ticks at %d/s)\n", spec.Name, len(spec.Squads), spec.Ticks, spec.TickRate)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List embedded scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := prefabs.Scenarios()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
