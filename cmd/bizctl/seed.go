package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"bizledger/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var seedValue uint64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace clients, products and sales with the demo data set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seedValue = uint64(time.Now().UnixNano())
			}
			rng := rand.New(rand.NewPCG(seedValue, seedValue))
			summary, err := seed.Run(cmd.Context(), a.store, rng, time.Now().UTC(), a.logger)
			if err != nil {
				return err
			}
			if err := a.cache.Invalidate(context.WithoutCancel(cmd.Context())); err != nil {
				return fmt.Errorf("invalidate cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded %d clients, %d products, %d sales (revenue %s, profit %s, seed %d)\n",
				summary.Clients, summary.Products, summary.Sales,
				summary.Revenue.StringFixed(2), summary.Profit.StringFixed(2), seedValue,
			)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed for reproducible sales")
	return cmd
}
