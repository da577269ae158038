package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatConsole = "console"
	formatJSON    = "json"
)

// exitFunc is swapped in tests
var exitFunc = os.Exit

// newRootCmd builds the command tree around its own viper instance so flags,
// SCORER_* variables and defaults resolve the same way on every invocation.
func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "scorecli",
		Short: "Score line-clearance operations from the command line",
		Long: `scorecli scores line-clearance operation records with the same penalty
table and threshold rules as the web console. Records are read from a YAML file
and the per-operation table, daily averages and overall averages are printed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v.SetEnvPrefix(config.EnvPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()

			switch v.GetString("format") {
			case formatConsole, formatJSON:
				return nil
			default:
				return fmt.Errorf("unknown format %q (want %s or %s)", v.GetString("format"), formatConsole, formatJSON)
			}
		},
	}

	rootCmd.PersistentFlags().StringP("format", "o", formatConsole, "Output format: console or json")
	_ = v.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))

	rootCmd.AddCommand(newScoreCmd(v))
	rootCmd.AddCommand(newCatalogCmd(v))
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(1)
	}
}
