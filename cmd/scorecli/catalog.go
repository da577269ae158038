package main

import (
	"encoding/json"
	"io"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/catalog"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/penalty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type catalogResult struct {
	Operations []catalog.Operation `json:"operations"`
	Penalties  []penalty.Entry     `json:"penalties"`
}

func newCatalogCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the clearance operations and the penalty table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd.OutOrStdout(), v.GetString("format"))
		},
	}
}

func runCatalog(w io.Writer, format string) error {
	result := catalogResult{Operations: catalog.Operations(), Penalties: penalty.All()}
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderCatalog(w, result)
	return nil
}
