package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"minidash/app"
	"minidash/domain/dashboard"
	"minidash/internal/config"
	"minidash/internal/container"
	"minidash/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "minidash-cli",
		Short: "Inspect minidash dashboards from the terminal",
	}

	rootCmd.AddCommand(
		newListCmd(),
		newSummaryCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode returns 2 for bad filters or unknown dashboards, 1 for everything else
func exitCode(err error) int {
	if errors.Is(err, errors.CodeInvalidInput) || errors.Is(err, errors.CodeNotFound) {
		return 2
	}
	return 1
}

// loadService builds the dashboards without a database; sql: sources are unavailable
func loadService(ctx context.Context) (*app.DashboardService, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.Service, nil
}

// parseFilters turns repeated --filter column=value flags into a selection
func parseFilters(filters []string, chart string) (dashboard.Selection, error) {
	sel := dashboard.NewSelection()
	for _, f := range filters {
		column, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return sel, errors.Newf(errors.CodeInvalidInput, "invalid --filter %q (use column=value)", f)
		}
		sel.Add(strings.TrimSpace(column), value)
	}
	sel.Chart = dashboard.ChartKind(strings.ToLower(chart))
	return sel, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured dashboards and their datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), svc.List())
		},
	}
}

func printList(out io.Writer, loaded []*app.Loaded) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROWS\tSOURCE\tTITLE")
	for _, l := range loaded {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.Definition.ID, l.Rows(), l.Source, l.Definition.Title)
	}
	return w.Flush()
}

func newSummaryCmd() *cobra.Command {
	var filters []string
	var chart string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary [dashboard-id]",
		Short: "Print KPIs and chart series for a filtered view",
		Long: `Apply filters to a dashboard and print what the page would show.

Example: minidash-cli summary enrollments --filter Department=Engineering --filter Semester=A`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseFilters(filters, chart)
			if err != nil {
				return err
			}
			svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}
			view, err := svc.View(cmd.Context(), args[0], sel)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return printSummary(cmd.OutOrStdout(), view, limit)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as column=value; repeat for more values")
	cmd.Flags().StringVar(&chart, "chart", "", "Primary chart type: bar|line")
	cmd.Flags().IntVar(&limit, "limit", 10, "Preview rows to print (0 for none)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full view as JSON")
	return cmd
}

func printSummary(out io.Writer, view *app.View, limit int) error {
	fmt.Fprintf(out, "%s\n%d of %d rows\n\n", view.Title, view.Rows, view.TotalRows)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, k := range view.KPIs {
		fmt.Fprintf(w, "%s\t%s\n", k.Label, k.Display)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nPrimary chart (%s)\n", view.PrimaryKind)
	for _, tr := range view.Primary.Data {
		fmt.Fprintf(out, "  %s: %v = %v\n", traceName(tr.Name), tr.X, tr.Y)
	}
	fmt.Fprintln(out, "\nSecondary chart")
	for _, tr := range view.Secondary.Data {
		if tr.Type == "box" {
			fmt.Fprintf(out, "  %s: median %v\n", traceName(tr.Name), tr.Median)
			continue
		}
		fmt.Fprintf(out, "  %s: %v = %v\n", traceName(tr.Name), tr.X, tr.Y)
	}

	if limit <= 0 || len(view.Preview) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(view.Columns, "\t"))
	for i, row := range view.Preview {
		if i == limit {
			break
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func traceName(name string) string {
	if name == "" {
		return "(all)"
	}
	return name
}

func newExportCmd() *cobra.Command {
	var filters []string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export [dashboard-id]",
		Short: "Write the filtered rows as CSV",
		Long: `Export the rows matching the filters.

Example: minidash-cli export crimes --filter alcaldia_hecho=COYOACAN --out coyoacan.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseFilters(filters, "")
			if err != nil {
				return err
			}
			svc, err := loadService(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return svc.Export(cmd.Context(), args[0], sel, out)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as column=value; repeat for more values")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}
