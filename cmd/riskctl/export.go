package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	riskapp "github.com/erp/customer-risk/internal/application/risk"
	"github.com/erp/customer-risk/internal/infrastructure/cache"
	"github.com/erp/customer-risk/internal/infrastructure/export"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type exportOptions struct {
	date      string
	customers []string
	format    string
	out       string
	name      string
	lang      string
}

func newExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compute a customer risk report and write it to a file",
		Example: `  riskctl export --date 2026-01-31
  riskctl export --date 2026-01-31 --customer 3f6c... --format pdf --out reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "reference date (YYYY-MM-DD); without it every amount is zero")
	f.StringArrayVar(&opts.customers, "customer", nil, "customer ID to include (repeatable); default: every ranked customer")
	f.StringVar(&opts.format, "format", "xlsx", "output format: xlsx or pdf")
	f.StringVar(&opts.out, "out", "", "output file or directory (default: conventional file name in the current directory)")
	f.StringVar(&opts.name, "name", "", "report title")
	f.StringVar(&opts.lang, "lang", "en", "language tag for PDF number formatting")
	return cmd
}

func (o *exportOptions) input() (riskapp.GenerateInput, error) {
	input := riskapp.GenerateInput{Name: o.name}
	if o.date != "" {
		d, err := time.Parse("2006-01-02", o.date)
		if err != nil {
			return input, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", o.date)
		}
		input.ReferenceDate = &d
	}
	for _, raw := range o.customers {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, fmt.Errorf("invalid --customer %q: %w", raw, err)
		}
		input.CustomerIDs = append(input.CustomerIDs, id)
	}
	return input, nil
}

// outputPath resolves --out against the conventional file name
func (o *exportOptions) outputPath(fileName string) string {
	if o.out == "" {
		return fileName
	}
	if info, err := os.Stat(o.out); err == nil && info.IsDir() {
		return filepath.Join(o.out, fileName)
	}
	return o.out
}

func runExport(cmd *cobra.Command, global *globalOptions, opts *exportOptions) error {
	input, err := opts.input()
	if err != nil {
		return err
	}
	lang, err := language.Parse(opts.lang)
	if err != nil {
		return fmt.Errorf("invalid --lang %q: %w", opts.lang, err)
	}

	sess, err := openSession(global)
	if err != nil {
		return err
	}
	defer sess.Close()

	policy, err := riskapp.PolicyFromConfig(sess.cfg.Risk)
	if err != nil {
		return err
	}

	// One-shot runs never read the report back
	store := cache.NewInMemoryReportStore(0)
	defer func() { _ = store.Close() }()

	service := riskapp.NewService(sess.db.Sources(), store,
		riskapp.WithPolicy(policy),
		riskapp.WithExporter(export.NewXLSXExporter()),
		riskapp.WithExporter(export.NewPDFExporter(lang)),
		riskapp.WithLogger(sess.log),
	)

	ctx := cmd.Context()
	report, err := service.Compute(ctx, input)
	if err != nil {
		return err
	}
	file, err := service.ExportReport(ctx, report, opts.format)
	if err != nil {
		return err
	}

	path := opts.outputPath(file.FileName)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	sess.log.Info("Report exported",
		zap.String("path", path),
		zap.Int("rows", len(report.Rows)),
		zap.Int("failures", len(report.Failures)),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d rows", path, len(report.Rows))
	if len(report.Failures) > 0 {
		fmt.Fprintf(out, ", %d customers failed", len(report.Failures))
	}
	fmt.Fprintln(out)
	for _, f := range report.Failures {
		name := f.CustomerName
		if name == "" && f.CustomerID != uuid.Nil {
			name = f.CustomerID.String()
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", name, f.Message)
	}
	if !report.HasReferenceDate() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no --date given, every amount is zero")
	}
	return nil
}
