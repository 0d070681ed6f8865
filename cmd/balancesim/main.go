package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"clay.game/internal/sim/catalogs"
)

var (
	days        int
	seed        uint64
	asJSON      bool
	autoPlan    bool
	contentPath string
	schemaPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "balancesim",
		Short: "Offline balance simulator",
		Long: `Plays the content pack for a number of days in one-hour offline steps
and reports production, waste, crew usage, raid pressure and era pacing.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalogs.LoadFile(contentPath, schemaPath)
			if err != nil {
				return fmt.Errorf("load content: %w", err)
			}
			s := runBalance(cat, simConfig{Days: days, Seed: seed, AutoPlan: autoPlan})
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			writeReport(cmd.OutOrStdout(), cat, s)
			return nil
		},
	}

	rootCmd.Flags().IntVar(&days, "days", 7, "days to simulate")
	rootCmd.Flags().Uint64Var(&seed, "seed", 42, "rng seed")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	rootCmd.Flags().BoolVar(&autoPlan, "autoplan", false, "enable the auto planner with every domain tag")
	rootCmd.Flags().StringVar(&contentPath, "content", "./configs/content.json", "content pack path")
	rootCmd.Flags().StringVar(&schemaPath, "schema", "./schemas/content.schema.json", "content schema path (empty to skip)")

	if err := rootCmd.Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, s Summary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeReport(w io.Writer, cat *catalogs.Catalog, s Summary) {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Fprintf(w, "Balance simulation: %d days (seed %d)\n\n", s.Days, s.Seed)

	metrics := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Metric", "Value"}))
	rows := [][]string{
		{"Energy produced", fmt.Sprintf("%.2f", s.EnergyProduced)},
		{"Overflow waste", fmt.Sprintf("%.2f%%", s.WastePct)},
		{"Crew idle", fmt.Sprintf("%.2f%%", s.CrewIdlePct)},
		{"Raid rate", fmt.Sprintf("%.2f per day", s.RaidRatePerDay)},
		{"Dispatches completed", strconv.Itoa(s.DispatchesCompleted)},
		{"Cache collects", strconv.Itoa(s.CacheCollects)},
	}
	for _, r := range rows {
		_ = metrics.Append(r)
	}
	_ = metrics.Render()

	if len(s.TimeToEraHours) > 0 {
		fmt.Fprintln(w)
		infoColor.Fprintln(w, "Era pacing:")
		eras := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Era", "Hours", "Days"}))
		for _, era := range cat.Eras() {
			h, ok := s.TimeToEraHours[era.ID]
			if !ok {
				continue
			}
			_ = eras.Append([]string{era.Name, strconv.Itoa(h), fmt.Sprintf("%.2f", float64(h)/24)})
		}
		_ = eras.Render()
	}

	if len(cat.Domains()) > 0 {
		fmt.Fprintln(w)
		infoColor.Fprintln(w, "Domains:")
		domains := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Domain", "Points", "Tier"}))
		for _, d := range cat.Domains() {
			_ = domains.Append([]string{d.Name, strconv.Itoa(s.DomainPoints.Get(d.ID)), strconv.Itoa(s.DomainTiers.Get(d.ID))})
		}
		_ = domains.Render()
	}
}
