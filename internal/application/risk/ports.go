package risk

import (
	"context"
	"io"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
)

// ReportStore keeps transient reports between requests.
// Get returns risk.ErrReportNotFound when the report is unknown or expired.
type ReportStore interface {
	Save(ctx context.Context, report *risk.Report) error
	Get(ctx context.Context, id uuid.UUID) (*risk.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttachmentStore persists exported files and hands out download links
type AttachmentStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// Exporter renders a report into a file format
type Exporter interface {
	// Format is the file extension, e.g. "xlsx"
	Format() string
	ContentType() string
	Export(w io.Writer, report *risk.Report) error
}

// Metrics records aggregation outcomes
type Metrics interface {
	RecordRun(ctx context.Context, customers, rows, failures int, elapsed time.Duration)
	RecordCustomer(ctx context.Context, included bool, err error)
	RecordExport(ctx context.Context, format string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(context.Context, int, int, int, time.Duration) {}
func (nopMetrics) RecordCustomer(context.Context, bool, error)             {}
func (nopMetrics) RecordExport(context.Context, string, error)             {}
