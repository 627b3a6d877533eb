package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/matheusmosca/sales-portal/internal/portal"
	"github.com/matheusmosca/sales-portal/pkg/client"
)

const defaultAPIURL = "http://localhost:8080"

// NewReportCmd cria o comando report, que consulta uma API em execução
func NewReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print sales reports from a running API",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	reportCmd.PersistentFlags().String("url", defaultAPIURL, "Base URL of the sales portal API")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals and average sale value for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dateRangeFlags(cmd)
			if err != nil {
				return err
			}
			report, err := apiClient(cmd).Summary(commandContext(cmd), r)
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	summaryCmd.Flags().String("start", "", "First day (YYYY-MM-DD)")
	summaryCmd.Flags().String("end", "", "Last day (YYYY-MM-DD)")

	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "List the sales made today",
		RunE: func(cmd *cobra.Command, args []string) error {
			sales, err := apiClient(cmd).SalesToday(commandContext(cmd))
			if err != nil {
				return err
			}
			renderSales(cmd.OutOrStdout(), sales)
			return nil
		},
	}

	reportCmd.AddCommand(summaryCmd, todayCmd)
	return reportCmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func apiClient(cmd *cobra.Command) *client.Client {
	url, _ := cmd.Flags().GetString("url")
	return client.New(url)
}

func dateRangeFlags(cmd *cobra.Command) (portal.DateRange, error) {
	var r portal.DateRange
	for _, f := range []struct {
		name   string
		target **time.Time
	}{
		{"start", &r.Start},
		{"end", &r.End},
	} {
		raw, _ := cmd.Flags().GetString(f.name)
		if raw == "" {
			continue
		}
		day, err := time.Parse(portal.DateLayout, raw)
		if err != nil {
			return r, fmt.Errorf("--%s must be YYYY-MM-DD: %w", f.name, err)
		}
		*f.target = &day
	}
	return r, nil
}

func periodLabel(p portal.Period) string {
	start, end := "*", "*"
	if p.StartDate != nil {
		start = *p.StartDate
	}
	if p.EndDate != nil {
		end = *p.EndDate
	}
	return start + " .. " + end
}

func renderSummary(w io.Writer, report *client.SummaryReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Sales summary " + periodLabel(report.Period))
	t.AppendHeader(table.Row{"Sales", "Quantity", "Total Value", "Average Sale"})
	t.AppendRow(table.Row{
		report.Summary.TotalSales,
		report.Summary.TotalQuantity,
		report.Summary.TotalValue.StringFixed(2),
		report.Summary.AverageSaleValue.StringFixed(2),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func renderSales(w io.Writer, sales []portal.Sale) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Sale", "User", "Product", "Qty", "Unit Price", "Total", "Date"})
	total := 0
	for _, s := range sales {
		t.AppendRow(table.Row{
			s.ID, s.UserID, s.ProductID, s.Quantity,
			s.UnitPrice.StringFixed(2), s.TotalPrice.StringFixed(2),
			s.SaleDate.Format(time.RFC3339),
		})
		total += s.Quantity
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d sale(s)", len(sales)), "", "", total, "", portal.Summarize(sales).TotalValue.StringFixed(2), ""})
	t.Render()
}
