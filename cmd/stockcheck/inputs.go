package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"StockCheck/internal/inputs"
)

func newInputsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inputs",
		Short: "Show or change the stored qualitative inputs",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current qualitative inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := inputs.NewFileStore(cfg.Inputs.File)
			in, err := store.Load()
			if err != nil {
				return err
			}
			key, err := store.APIKey()
			if err != nil {
				return err
			}
			keyState := "not set"
			if key != "" {
				keyState = "set"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-26s %s\n", inputs.KeyMarketPulse, in.MarketPulse)
			fmt.Fprintf(out, "%-26s %d\n", inputs.KeyATRPercentile, in.ATRPercentile)
			fmt.Fprintf(out, "%-26s %d\n", inputs.KeyAccumulation, in.AccumulationDistribution)
			fmt.Fprintf(out, "%-26s %d\n", inputs.KeyInsiderActivity, in.InsiderActivity)
			fmt.Fprintf(out, "%-26s %t\n", inputs.KeyTopRated, in.TopRatedGroup)
			fmt.Fprintf(out, "%-26s %t\n", inputs.KeyNewDevelopment, in.NewDevelopment)
			fmt.Fprintf(out, "%-26s %s\n", inputs.KeyAlphaVantageKey, keyState)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Validate and store one input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := inputs.NewFileStore(cfg.Inputs.File)
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], store.Path())
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
