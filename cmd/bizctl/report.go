package main

import (
	"io"
	"time"

	"bizledger/internal/domain"
	"bizledger/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	report := &cobra.Command{
		Use:   "report",
		Short: "Print analytics reports",
	}

	var month string
	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Daily revenue and profit for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at, err := service.ParseMonthParam(month, a.cfg.Location, time.Now())
			if err != nil {
				return err
			}
			points, err := a.svc.MonthlyAnalytics(cmd.Context(), at)
			if err != nil {
				return err
			}
			renderMonthly(cmd.OutOrStdout(), service.MonthStart(at, a.cfg.Location), points)
			return nil
		},
	}
	monthly.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	report.AddCommand(monthly)
	return report
}

func renderMonthly(w io.Writer, month time.Time, points []domain.ChartPoint) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Sales " + month.Format("January 2006"))
	t.AppendHeader(table.Row{"Date", "Day", "Revenue", "Profit"})

	revenue, profit := decimal.Zero, decimal.Zero
	for _, p := range points {
		t.AppendRow(table.Row{p.Date, p.Day, p.Revenue.StringFixed(2), p.Profit.StringFixed(2)})
		revenue = revenue.Add(p.Revenue)
		profit = profit.Add(p.Profit)
	}
	t.AppendFooter(table.Row{"Total", "", revenue.StringFixed(2), profit.StringFixed(2)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}
