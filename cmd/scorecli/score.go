package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/analysis"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// timeNow supplies the default record date
var timeNow = time.Now

// recordFile is the on-disk batch format
type recordFile struct {
	Records []session.Entry `yaml:"records"`
}

// scoreResult is what the score command prints
type scoreResult struct {
	Operations report.TableView     `json:"operations"`
	Daily      []report.DailySeries `json:"daily"`
	Overall    report.OverallBars   `json:"overall"`
}

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every record in a YAML file",
		Long: `Reads a YAML file with a top-level "records" list, adds each record in
order and runs one scoring pass. Records without a date use today's date.`,
		Example: `  scorecli score -f records.yaml
  scorecli score -f records.yaml --employee E001 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.OutOrStdout(), v.GetString("file"), v.GetString("employee"), v.GetString("format"))
		},
	}

	cmd.Flags().StringP("file", "f", "", "YAML file with operation records")
	cmd.Flags().StringP("employee", "e", "", "Only show the daily series of this employee")
	_ = cmd.MarkFlagRequired("file")
	_ = v.BindPFlag("file", cmd.Flags().Lookup("file"))
	_ = v.BindPFlag("employee", cmd.Flags().Lookup("employee"))

	return cmd
}

func runScore(w io.Writer, path, employee, format string) error {
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}

	snap, err := scoreEntries(entries, analysis.DateOf(timeNow()))
	if err != nil {
		return err
	}

	result := buildResult(snap, strings.TrimSpace(employee))
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderResult(w, result)
	return nil
}

func loadEntries(path string) ([]session.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}

	var file recordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return file.Records, nil
}

// scoreEntries replays the entries through a fresh session state, the same
// command sequence the web console issues.
func scoreEntries(entries []session.Entry, today analysis.Date) (session.Snapshot, error) {
	var state session.State
	for i, e := range entries {
		if _, err := state.Apply(session.Command{Kind: session.AddRecord, Entry: e, Today: today}); err != nil {
			return session.Snapshot{}, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	if _, err := state.Apply(session.Command{Kind: session.RunScoring}); err != nil {
		return session.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

func buildResult(snap session.Snapshot, employee string) scoreResult {
	employees := report.Employees(snap.Daily)
	if employee != "" {
		employees = []string{employee}
	}

	daily := make([]report.DailySeries, 0, len(employees))
	for _, e := range employees {
		daily = append(daily, report.BuildDailySeries(snap.Daily, e))
	}

	return scoreResult{
		Operations: report.OperationTable(snap.Scored),
		Daily:      daily,
		Overall:    report.BuildOverallBars(snap.Overall),
	}
}
