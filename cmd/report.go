package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/hotel-billing/internal/report"
	"github.com/frahmantamala/hotel-billing/internal/storage"
	"github.com/frahmantamala/hotel-billing/pkg/logger"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial report tools",
}

var exportReportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the financial report for a period",
	Long:  `Render the completed payments between --from and --to as PDF or XLSX. With --out the file is written locally, otherwise it is archived to the configured storage and its URL printed.`,
	RunE:  runReportExport,
}

var (
	reportFrom   string
	reportTo     string
	reportFormat string
	reportOut    string
)

func runReportExport(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	config, err := loadConfig(".")
	if err != nil {
		return err
	}
	logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	renderer, ok := report.RendererFor(format)
	if !ok {
		return fmt.Errorf("export needs a file format (pdf or xlsx), got %q", reportFormat)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := initGorm(db, true)
	if err != nil {
		return err
	}

	// exports never mail anything
	svc := newPaymentService(config, db, gdb, nil, nil, lg)
	fin, err := svc.GetFinancialReport(ctx, reportFrom, reportTo)
	if err != nil {
		return err
	}

	data := fin.ToReportData()
	var buf bytes.Buffer
	if err := renderer.Render(&buf, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if reportOut != "" {
		if err := os.WriteFile(reportOut, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), reportOut)
		return nil
	}

	store, err := storage.New(ctx, storage.Config{
		Driver:        config.Storage.Driver,
		LocalDir:      config.Storage.LocalDir,
		URLPrefix:     config.Storage.URLPrefix,
		S3Region:      config.Storage.S3Region,
		S3Bucket:      config.Storage.S3Bucket,
		S3Prefix:      config.Storage.S3Prefix,
		PublicBaseURL: config.Storage.PublicBaseURL,
	})
	if err != nil {
		return err
	}
	res, err := store.Put(ctx, &buf, storage.PutInput{
		Filename:    report.FileName(data, renderer),
		ContentType: renderer.ContentType(),
	})
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}

	lg.Info("financial report archived", "key", res.Key, "count", fin.Count, "total", fin.Total.StringFixed(2))
	fmt.Fprintln(cmd.OutOrStdout(), res.URL)
	return nil
}

func init() {
	exportReportCmd.Flags().StringVar(&reportFrom, "from", "", "First day of the period (YYYY-MM-DD)")
	exportReportCmd.Flags().StringVar(&reportTo, "to", "", "Last day of the period (YYYY-MM-DD)")
	exportReportCmd.Flags().StringVar(&reportFormat, "format", string(report.FormatPDF), "pdf or xlsx")
	exportReportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write to this path instead of the archive")
	_ = exportReportCmd.MarkFlagRequired("from")
	_ = exportReportCmd.MarkFlagRequired("to")

	reportCmd.AddCommand(exportReportCmd)
	rootCmd.AddCommand(reportCmd)
}
