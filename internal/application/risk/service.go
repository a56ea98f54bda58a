package risk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/erp/customer-risk/internal/infrastructure/logger"
	"github.com/erp/customer-risk/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentPrefix is the storage key prefix of exported report files
const AttachmentPrefix = "reports/customer-risk"

// GenerateInput is the input of a report run.
// A nil ReferenceDate means the date was not given.
type GenerateInput struct {
	Name          string
	ReferenceDate *time.Time
	CustomerIDs   []uuid.UUID
}

// ExportFile is a rendered report file
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Attachment is an export stored in the attachment store
type Attachment struct {
	StorageKey  string    `json:"storage_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service runs customer risk reports and serves their rows, drill-downs and exports
type Service struct {
	sources     risk.Sources
	policy      risk.Policy
	store       ReportStore
	attachments AttachmentStore
	exporters   map[string]Exporter
	metrics     Metrics
	logger      *zap.Logger
	clock       func() time.Time
	downloadTTL time.Duration
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithPolicy sets the aggregation rules
func WithPolicy(p risk.Policy) ServiceOption {
	return func(s *Service) {
		s.policy = p
	}
}

// WithExporter registers an exporter under its format
func WithExporter(e Exporter) ServiceOption {
	return func(s *Service) {
		s.exporters[strings.ToLower(e.Format())] = e
	}
}

// WithAttachmentStore sets where exported files are uploaded
func WithAttachmentStore(a AttachmentStore) ServiceOption {
	return func(s *Service) {
		s.attachments = a
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used to stamp reports
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithDownloadTTL sets how long attachment download links stay valid
func WithDownloadTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.downloadTTL = d
	}
}

// NewService creates a new Service
func NewService(sources risk.Sources, store ReportStore, opts ...ServiceOption) *Service {
	s := &Service{
		sources:   sources,
		policy:    risk.DefaultPolicy(),
		store:     store,
		exporters: make(map[string]Exporter),
		metrics:   nopMetrics{},
		logger:    zap.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) aggregator() *risk.Aggregator {
	return risk.NewAggregator(s.sources,
		risk.WithPolicy(s.policy),
		risk.WithClock(s.clock),
		risk.WithObserver(&evaluationObserver{logger: s.logger, metrics: s.metrics}),
	)
}

// Generate computes a new report and stores it
func (s *Service) Generate(ctx context.Context, input GenerateInput) (*risk.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_risk", "generate")
	defer span.End()

	req := risk.ReportRequest{Name: input.Name, CustomerIDs: input.CustomerIDs}
	if input.ReferenceDate != nil {
		req.ReferenceDate = *input.ReferenceDate
	}
	log := logger.WithLogger(ctx, s.logger)
	if !req.HasReferenceDate() {
		log.Warn("Customer risk report requested without reference date, date-gated amounts will be zero")
	}

	started := s.clock()
	report, err := s.aggregator().Compute(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Customer risk report failed", zap.Error(err))
		return nil, err
	}
	s.finishRun(ctx, report, len(req.UniqueCustomerIDs()), started)

	if err := s.store.Save(ctx, report); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrReportID, report.ID.String())
	return report, nil
}

// Compute runs a report without storing it
func (s *Service) Compute(ctx context.Context, input GenerateInput) (*risk.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_risk", "compute")
	defer span.End()

	req := risk.ReportRequest{Name: input.Name, CustomerIDs: input.CustomerIDs}
	if input.ReferenceDate != nil {
		req.ReferenceDate = *input.ReferenceDate
	}
	started := s.clock()
	report, err := s.aggregator().Compute(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.finishRun(ctx, report, len(req.UniqueCustomerIDs()), started)
	return report, nil
}

// Recompute re-runs a stored report and replaces its rows
func (s *Service) Recompute(ctx context.Context, id uuid.UUID) (*risk.Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_risk", "recompute",
		telemetry.WithAttribute(telemetry.SpanAttrReportID, id.String()))
	defer span.End()

	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(report.SelectedCustomers))
	for _, c := range report.SelectedCustomers {
		ids = append(ids, c.ID)
	}
	for _, f := range report.Failures {
		if f.CustomerID != uuid.Nil && f.Source == risk.SourceCustomers {
			ids = append(ids, f.CustomerID)
		}
	}

	started := s.clock()
	if err := s.aggregator().Recompute(ctx, report, ids); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.finishRun(ctx, report, len(ids), started)

	if err := s.store.Save(ctx, report); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	return report, nil
}

func (s *Service) finishRun(ctx context.Context, report *risk.Report, requested int, started time.Time) {
	elapsed := s.clock().Sub(started)
	s.metrics.RecordRun(ctx, requested, len(report.Rows), len(report.Failures), elapsed)
	logger.WithLogger(ctx, s.logger).Info("Customer risk report computed",
		zap.String("report_id", report.ID.String()),
		zap.String("reference_date", formatDate(report.ReferenceDate)),
		zap.Int("requested_customers", requested),
		zap.Int("rows", len(report.Rows)),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("elapsed", elapsed),
	)
}

// Get returns a stored report with its drill-down accessors bound
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*risk.Report, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Bind(s.sources)
	return report, nil
}

// Delete discards a stored report
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) row(ctx context.Context, id, customerID uuid.UUID) (*risk.ReportRow, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	row, err := report.Row(customerID)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("customer %s has no row in report %s", customerID, id))
	}
	return row, nil
}

// PendingLines lists the sales lines behind a row's pending amount
func (s *Service) PendingLines(ctx context.Context, id, customerID uuid.UUID) ([]risk.SalesOrderLine, error) {
	row, err := s.row(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return row.PendingLines(ctx)
}

// LedgerEntries lists the receivable entries behind a row's balance
func (s *Service) LedgerEntries(ctx context.Context, id, customerID uuid.UUID) ([]risk.LedgerEntry, error) {
	row, err := s.row(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return row.LedgerEntries(ctx)
}

// Cheques lists the in-hand checks behind a row's checks amount
func (s *Service) Cheques(ctx context.Context, id, customerID uuid.UUID) ([]risk.Payment, error) {
	row, err := s.row(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return row.ChequePayments(ctx)
}

// Formats lists the registered export formats
func (s *Service) Formats() []string {
	formats := make([]string, 0, len(s.exporters))
	for f := range s.exporters {
		formats = append(formats, f)
	}
	return formats
}

// Export renders a stored report
func (s *Service) Export(ctx context.Context, id uuid.UUID, format string) (*ExportFile, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ExportReport(ctx, report, format)
}

// ExportReport renders a report that may not be stored
func (s *Service) ExportReport(ctx context.Context, report *risk.Report, format string) (*ExportFile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_risk", "export",
		telemetry.WithAttribute(telemetry.SpanAttrReportID, report.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrFormat, format),
	)
	defer span.End()

	exporter, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return nil, shared.NewDomainError(risk.CodeInvalidRequest, fmt.Sprintf("unsupported export format %q", format))
	}

	var buf bytes.Buffer
	err := exporter.Export(&buf, report)
	s.metrics.RecordExport(ctx, exporter.Format(), err)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Error("Customer risk export failed",
			zap.String("report_id", report.ID.String()),
			zap.String("format", exporter.Format()),
			zap.Error(err),
		)
		if !errors.Is(err, risk.ErrExportFailure) {
			err = risk.NewExportError(err)
		}
		return nil, err
	}

	return &ExportFile{
		FileName:    risk.ExportFileName(report.ReferenceDate, exporter.Format()),
		ContentType: exporter.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Attach exports a stored report and uploads the file to the attachment store
func (s *Service) Attach(ctx context.Context, id uuid.UUID, format string) (*Attachment, error) {
	if s.attachments == nil {
		return nil, shared.NewDomainError(risk.CodeExportFailure, "attachment storage is not configured")
	}
	file, err := s.Export(ctx, id, format)
	if err != nil {
		return nil, err
	}

	key := AttachmentKey(id, file.FileName)
	if err := s.attachments.Upload(ctx, key, file.Data, file.ContentType); err != nil {
		return nil, risk.NewExportError(err)
	}
	url, expiresAt, err := s.attachments.GenerateDownloadURL(ctx, key, s.downloadTTL)
	if err != nil {
		return nil, risk.NewExportError(err)
	}

	logger.WithLogger(ctx, s.logger).Info("Customer risk export attached",
		zap.String("report_id", id.String()),
		zap.String("storage_key", key),
		zap.Int("size", len(file.Data)),
	)
	return &Attachment{
		StorageKey:  key,
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Size:        len(file.Data),
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

// AttachmentKey returns the storage key of an exported file
func AttachmentKey(reportID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", AttachmentPrefix, reportID, fileName)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
