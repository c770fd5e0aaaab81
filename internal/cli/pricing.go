package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nurpe/erp-console/internal/apiclient"
	"github.com/nurpe/erp-console/internal/model"
)

func importPricesCmd(a *app) *cobra.Command {
	var (
		region    string
		validFrom string
		wait      bool
		commit    bool
		number    string
	)

	cmd := &cobra.Command{
		Use:   "import-prices <file>",
		Short: "Upload a PDF or XLSX price list for matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDay(validFrom)
			if err != nil {
				return fmt.Errorf("--valid-from: %w", err)
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			imports := a.client.Imports()
			job, err := imports.Upload(cmd.Context(), apiclient.UploadRequest{
				FileName:  filepath.Base(args[0]),
				Content:   content,
				Region:    region,
				ValidFrom: from,
			})
			if err != nil {
				return a.describe(err)
			}
			a.printf("import %s %s\n", job.ID, job.Status)
			if !wait && !commit {
				return nil
			}

			job, err = imports.WaitImport(cmd.Context(), job.ID, a.cfg.PollInterval)
			if err != nil {
				return a.describe(err)
			}
			if job.Status != model.ImportStatusReady {
				if job.Error != "" {
					return fmt.Errorf("import %s: %s", job.Status, job.Error)
				}
				return fmt.Errorf("import ended %s", job.Status)
			}
			printRows(a, job.Rows)

			if !commit {
				return nil
			}
			bulletin, err := imports.Commit(cmd.Context(), job.ID, number)
			if err != nil {
				return a.describe(err)
			}
			a.printf("draft bulletin %s (%s v%d) created with %d items\n",
				bulletin.Number, bulletin.Region, bulletin.Version, len(bulletin.Items))
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "bulletin region")
	cmd.Flags().StringVar(&validFrom, "valid-from", "", "first day the prices apply (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until parsing is done and print the rows")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the rows into a draft bulletin once ready")
	cmd.Flags().StringVar(&number, "number", "", "bulletin number used by --commit")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("valid-from")
	return cmd
}

func printRows(a *app, rows []model.PriceImportRow) {
	counts := map[model.RowStatus]int{}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tSTATUS\tCODE\tNAME\tPRICE\tSUGGESTIONS")
	for _, row := range rows {
		counts[row.Status]++
		suggestions := ""
		for i, s := range row.Suggestions {
			if i > 0 {
				suggestions += ", "
			}
			suggestions += fmt.Sprintf("%s (%.2f)", s.Code, s.Score)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.2f\t%s\n",
			row.LineNo, row.Status, row.ProductCode, row.ProductName, row.UnitPrice, suggestions)
	}
	_ = w.Flush()
	a.printf("matched %d, suggested %d, unmatched %d, invalid %d\n",
		counts[model.RowStatusMatched], counts[model.RowStatusSuggested],
		counts[model.RowStatusUnmatched], counts[model.RowStatusInvalid])
}

func quoteCmd(a *app) *cobra.Command {
	var region, date string

	cmd := &cobra.Command{
		Use:   "quote <product-id>...",
		Short: "Resolve unit prices from published bulletins",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid product id %q", arg)
				}
				ids = append(ids, id)
			}

			quotes, err := a.client.Purchases().Quote(cmd.Context(), apiclient.QuoteRequest{
				Region:     region,
				Date:       apiclient.FormatDate(day),
				ProductIDs: ids,
			})
			if err != nil {
				return a.describe(err)
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tUNIT PRICE\tBULLETIN")
			for _, q := range quotes {
				if !q.Found {
					fmt.Fprintf(w, "%s\t-\t-\n", q.ProductID)
					continue
				}
				bulletin := "-"
				if q.BulletinID != nil {
					bulletin = q.BulletinID.String()
				}
				fmt.Fprintf(w, "%s\t%.2f\t%s\n", q.ProductID, q.UnitPrice, bulletin)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "price region")
	cmd.Flags().StringVar(&date, "date", "", "pricing day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("region")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func parseDay(raw string) (t time.Time, err error) {
	if raw == "" {
		return t, errors.New("date is required")
	}
	return time.Parse("2006-01-02", raw)
}
