package persistence

import (
	"context"
	"fmt"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerDirectory implements risk.CustomerDirectory over the customers table
type GormCustomerDirectory struct {
	db *gorm.DB
}

// NewGormCustomerDirectory creates a new GormCustomerDirectory
func NewGormCustomerDirectory(db *gorm.DB) *GormCustomerDirectory {
	return &GormCustomerDirectory{db: db}
}

// ListRanked returns customers with a positive customer rank ordered by name
func (r *GormCustomerDirectory) ListRanked(ctx context.Context) ([]risk.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("customer_rank > ?", 0).
		Order("name, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ranked customers: %w", err)
	}
	return customersToDomain(rows), nil
}

// FindByIDs returns the customers among ids that exist
func (r *GormCustomerDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]risk.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	return customersToDomain(rows), nil
}

func customersToDomain(rows []models.CustomerModel) []risk.Customer {
	customers := make([]risk.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, rows[i].ToDomain())
	}
	return customers
}

// GormOrderProvider implements risk.OrderProvider over sales_orders and sales_order_lines
type GormOrderProvider struct {
	db *gorm.DB
}

// NewGormOrderProvider creates a new GormOrderProvider
func NewGormOrderProvider(db *gorm.DB) *GormOrderProvider {
	return &GormOrderProvider{db: db}
}

const pendingLineColumns = `l.id, l.order_id, o.order_number, o.customer_id, o.order_date,
o.state AS order_state, l.product_id, l.product_name, l.quantity_ordered,
l.quantity_delivered, l.quantity_invoiced, l.unit_price, l.line_subtotal`

// FindPendingLines returns the confirmed lines still open at the query date,
// to deliver or to invoice depending on the query's remainder basis
func (p *GormOrderProvider) FindPendingLines(ctx context.Context, query risk.PendingLineQuery) ([]risk.SalesOrderLine, error) {
	if query.AsOf.IsZero() {
		return nil, nil
	}

	tx := p.db.WithContext(ctx).
		Table("sales_order_lines AS l").
		Select(pendingLineColumns).
		Joins("JOIN sales_orders AS o ON o.id = l.order_id").
		Where("o.customer_id = ?", query.CustomerID).
		Where("o.order_date < ?", risk.DateOf(query.AsOf).AddDate(0, 0, 1)).
		Where("o.state IN ?", query.OrderStates())
	if query.Remainder == risk.RemainderToInvoice {
		tx = tx.Where("l.quantity_ordered > l.quantity_invoiced")
	} else {
		tx = tx.Where("l.quantity_ordered > l.quantity_delivered")
	}
	if len(query.ExcludedProductIDs) > 0 {
		tx = tx.Where("l.product_id NOT IN ?", query.ExcludedProductIDs)
	}

	var rows []models.PendingLineRow
	if err := tx.Order("o.order_date, o.order_number, l.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("find pending lines: %w", err)
	}

	lines := make([]risk.SalesOrderLine, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].ToDomain())
	}
	return lines, nil
}

// GormLedgerProvider implements risk.LedgerProvider over ledger_entries
type GormLedgerProvider struct {
	db *gorm.DB
}

// NewGormLedgerProvider creates a new GormLedgerProvider
func NewGormLedgerProvider(db *gorm.DB) *GormLedgerProvider {
	return &GormLedgerProvider{db: db}
}

// FindLedgerEntries returns posted receivable entries dated on or before the query date
func (p *GormLedgerProvider) FindLedgerEntries(ctx context.Context, query risk.LedgerEntryQuery) ([]risk.LedgerEntry, error) {
	if query.AsOf.IsZero() || len(query.AccountIDs) == 0 {
		return nil, nil
	}

	var rows []models.LedgerEntryModel
	if err := p.db.WithContext(ctx).
		Where("customer_id = ?", query.CustomerID).
		Where("account_id IN ?", query.AccountIDs).
		Where("parent_state = ?", risk.MoveStatePosted).
		Where("date < ?", risk.DateOf(query.AsOf).AddDate(0, 0, 1)).
		Order("date, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find ledger entries: %w", err)
	}

	entries := make([]risk.LedgerEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries, nil
}

// GormPaymentProvider implements risk.PaymentProvider over payments
type GormPaymentProvider struct {
	db *gorm.DB
}

// NewGormPaymentProvider creates a new GormPaymentProvider
func NewGormPaymentProvider(db *gorm.DB) *GormPaymentProvider {
	return &GormPaymentProvider{db: db}
}

// FindCheques returns posted third-party checks, optionally only those not yet due
func (p *GormPaymentProvider) FindCheques(ctx context.Context, query risk.ChequeQuery) ([]risk.Payment, error) {
	if len(query.MethodCodes) == 0 {
		return nil, nil
	}
	if query.DateGated() && query.AsOf.IsZero() {
		return nil, nil
	}

	tx := p.db.WithContext(ctx).
		Where("customer_id = ?", query.CustomerID).
		Where("state = ?", risk.PaymentStatePosted).
		Where("payment_method_code IN ?", query.MethodCodes)
	if query.DateGated() {
		tx = tx.Where("due_date >= ?", risk.DateOf(query.AsOf))
	}

	var rows []models.PaymentModel
	if err := tx.Order("due_date, payment_number, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find cheques: %w", err)
	}

	payments := make([]risk.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, rows[i].ToDomain())
	}
	return payments, nil
}

// NewGormSources wires the GORM providers into a risk.Sources bundle
func NewGormSources(db *gorm.DB) risk.Sources {
	return risk.Sources{
		Customers: NewGormCustomerDirectory(db),
		Orders:    NewGormOrderProvider(db),
		Ledger:    NewGormLedgerProvider(db),
		Payments:  NewGormPaymentProvider(db),
	}
}

// AutoMigrateReadModels creates the read model tables. Used for SQLite
// development databases and tests; production schemas belong to the ERP.
func AutoMigrateReadModels(db *gorm.DB) error {
	return db.AutoMigrate(models.ReadModels()...)
}
