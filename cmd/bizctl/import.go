package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newImportProductsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-products FILE",
		Short: "Create products from an xlsx or csv sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			result, err := a.svc.ImportProducts(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d, created: %d, skipped: %d\n", result.TotalRows, result.Created, result.Skipped)
			for _, msg := range result.Errors {
				fmt.Fprintln(out, "  "+msg)
			}
			return nil
		},
	}
}
