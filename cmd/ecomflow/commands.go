package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ecomflow/internal/export"
	"ecomflow/internal/model"
	"ecomflow/internal/pipeline"
)

var flags struct {
	date       string
	start      string
	end        string
	recordType string
	stock      string
	stockFile  string
	year       int
	month      int
	xlsx       string
	noExport   bool
}

func recordTypes() ([]model.RecordType, error) {
	if flags.recordType == "" {
		return nil, nil
	}
	rt, err := model.ParseRecordType(flags.recordType)
	if err != nil {
		return nil, err
	}
	return []model.RecordType{rt}, nil
}

func dateFlag() (time.Time, error) { return model.ParseDay(flags.date) }

func rangeFlags() (time.Time, time.Time, error) {
	start, err := model.ParseDay(flags.start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start
	if flags.end != "" {
		if end, err = model.ParseDay(flags.end); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the raw partitions of a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag()
		if err != nil {
			return err
		}
		rts, err := recordTypes()
		if err != nil {
			return err
		}
		rep, err := app.svc.Clean(cmd.Context(), date, rts...)
		if err != nil {
			return err
		}
		return app.print(rep)
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich the clean partitions of a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag()
		if err != nil {
			return err
		}
		rts, err := recordTypes()
		if err != nil {
			return err
		}
		rep, err := app.svc.Enrich(cmd.Context(), date, rts...)
		if err != nil {
			return err
		}
		return app.print(rep)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise the enriched orders of a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag()
		if err != nil {
			return err
		}
		sum, err := app.svc.DailySummary(cmd.Context(), date)
		if err != nil {
			return err
		}
		sum.TotalRevenue = sum.TotalRevenue.Round(2)
		sum.AvgOrderValue = sum.AvgOrderValue.Round(2)
		return app.print(sum)
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Remaining stock per product for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag()
		if err != nil {
			return err
		}
		stocks, err := stocksFrom(flags.stock, flags.stockFile)
		if err != nil {
			return err
		}
		rows, err := app.svc.DailyStock(cmd.Context(), date, stocks)
		if err != nil {
			return err
		}
		return app.print(rows)
	},
}

var newCustomersCmd = &cobra.Command{
	Use:   "new-customers",
	Short: "New customers per day over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := rangeFlags()
		if err != nil {
			return err
		}
		rows, err := app.svc.NewCustomers(cmd.Context(), start, end)
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].RevenusNouveauxClients = rows[i].RevenusNouveauxClients.Round(2)
		}
		return app.print(rows)
	},
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Revenue summary of a calendar month",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := app.svc.MonthlyRevenue(cmd.Context(), flags.year, flags.month)
		if err != nil {
			return err
		}
		return app.print(rep.Rounded())
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Every report over a date range, exported as a workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := rangeFlags()
		if err != nil {
			return err
		}
		stocks, err := stocksFrom(flags.stock, flags.stockFile)
		if err != nil {
			return err
		}
		rep, err := app.svc.ComprehensiveReport(cmd.Context(), start, end, stocks)
		if err != nil {
			return err
		}
		if !flags.noExport {
			path := flags.xlsx
			if path == "" {
				path = filepath.Join(app.cfg.Sinks.ExportDir, fmt.Sprintf("report_%s_%s.xlsx",
					rep.Start.Format(model.DateLayout), rep.End.Format(model.DateLayout)))
			}
			if err := ensureDir(filepath.Dir(path)); err != nil {
				return err
			}
			if err := export.WriteWorkbook(rep, path); err != nil {
				return err
			}
			app.logger.InfoContext(cmd.Context(), "workbook written", slog.String("path", path))
		}
		for i := range rep.Monthly {
			rep.Monthly[i] = rep.Monthly[i].Rounded()
		}
		return app.print(rep)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean, enrich and summarise every date of a range",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := rangeFlags()
		if err != nil {
			return err
		}
		days, err := model.DaysInRange(start, end)
		if err != nil {
			return err
		}
		rts, err := recordTypes()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		var conditions []model.Condition
		for _, d := range days {
			cleaned, err := app.svc.Clean(ctx, d, rts...)
			if err != nil {
				if conditions, err = skip(conditions, "clean", d, err); err != nil {
					return err
				}
				continue
			}
			conditions = append(conditions, cleaned.Conditions...)
			enriched, err := app.svc.Enrich(ctx, d, rts...)
			if err != nil {
				if conditions, err = skip(conditions, "enrich", d, err); err != nil {
					return err
				}
				continue
			}
			conditions = append(conditions, enriched.Conditions...)
			if !hasOrders(enriched) {
				continue
			}
			if _, err := app.svc.DailySummary(ctx, d); err != nil {
				if conditions, err = skip(conditions, "summary", d, err); err != nil {
					return err
				}
			}
		}
		return app.print(struct {
			Days       int               `json:"days"`
			Conditions []model.Condition `json:"conditions"`
		}{len(days), conditions})
	},
}

// skip records a data condition for d, or returns err when it is not one.
func skip(conds []model.Condition, stage string, d time.Time, err error) ([]model.Condition, error) {
	var kind string
	switch {
	case errors.Is(err, model.ErrMissingSource):
		kind = model.ConditionMissingSource
	case errors.Is(err, model.ErrEmptyDataset):
		kind = model.ConditionEmptyDataset
	default:
		return conds, err
	}
	app.logger.Warn("date skipped", slog.String("stage", stage), slog.String("date", d.Format(model.DateLayout)), slog.String("err", err.Error()))
	return append(conds, model.Condition{Date: d, Stage: stage, Kind: kind, Message: err.Error()}), nil
}

func hasOrders(rep pipeline.RunReport) bool {
	for _, r := range rep.Results {
		if r.RecordType == model.Orders {
			return true
		}
	}
	return false
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{cleanCmd, enrichCmd, summaryCmd, stockCmd} {
		c.Flags().StringVar(&flags.date, "date", "", "partition date YYYY-MM-DD")
		_ = c.MarkFlagRequired("date")
	}
	for _, c := range []*cobra.Command{cleanCmd, enrichCmd, runCmd} {
		c.Flags().StringVar(&flags.recordType, "type", "", "record type: orders|clients|products (default all)")
	}
	for _, c := range []*cobra.Command{newCustomersCmd, reportCmd, runCmd} {
		c.Flags().StringVar(&flags.start, "start", "", "first date YYYY-MM-DD")
		c.Flags().StringVar(&flags.end, "end", "", "last date YYYY-MM-DD (default start)")
		_ = c.MarkFlagRequired("start")
	}
	for _, c := range []*cobra.Command{stockCmd, reportCmd} {
		c.Flags().StringVar(&flags.stock, "stock", "", "initial stock as product=quantity pairs, e.g. 1=100,4=200")
		c.Flags().StringVar(&flags.stockFile, "stock-file", "", "YAML file mapping product_id to initial stock")
	}
	revenueCmd.Flags().IntVar(&flags.year, "year", time.Now().Year(), "year")
	revenueCmd.Flags().IntVar(&flags.month, "month", int(time.Now().Month()), "month 1-12")
	reportCmd.Flags().StringVar(&flags.xlsx, "xlsx", "", "workbook path (default <export dir>/report_<start>_<end>.xlsx)")
	reportCmd.Flags().BoolVar(&flags.noExport, "no-export", false, "skip the workbook")

	rootCmd.AddCommand(cleanCmd, enrichCmd, summaryCmd, stockCmd, newCustomersCmd, revenueCmd, reportCmd, runCmd)
}
