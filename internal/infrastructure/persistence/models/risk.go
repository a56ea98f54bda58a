package models

import (
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the read model of an ERP partner acting as customer.
type CustomerModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key"`
	Code                string     `gorm:"type:varchar(50);not null;index"`
	Name                string     `gorm:"type:varchar(200);not null"`
	CustomerRank        int        `gorm:"not null;default:0;index"`
	ReceivableAccountID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the read model to a risk Customer.
func (m *CustomerModel) ToDomain() risk.Customer {
	c := risk.Customer{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		CustomerRank: m.CustomerRank,
	}
	if m.ReceivableAccountID != nil && *m.ReceivableAccountID != uuid.Nil {
		c.ReceivableAccountIDs = []uuid.UUID{*m.ReceivableAccountID}
	}
	return c
}

// SalesOrderModel is the read model of a sales order header.
type SalesOrderModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderNumber string          `gorm:"type:varchar(50);not null"`
	OrderDate   time.Time       `gorm:"not null;index"`
	State       risk.OrderState `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderLineModel is the read model of a sales order line.
type SalesOrderLineModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName       string          `gorm:"type:varchar(200)"`
	QuantityOrdered   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityDelivered decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityInvoiced  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineSubtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// PendingLineRow is the projection of a line joined with its order header.
type PendingLineRow struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	OrderNumber       string
	CustomerID        uuid.UUID
	OrderDate         time.Time
	OrderState        risk.OrderState
	ProductID         uuid.UUID
	ProductName       string
	QuantityOrdered   decimal.Decimal
	QuantityDelivered decimal.Decimal
	QuantityInvoiced  decimal.Decimal
	UnitPrice         decimal.Decimal
	LineSubtotal      decimal.Decimal
}

// ToDomain converts the projection to a risk SalesOrderLine.
func (r *PendingLineRow) ToDomain() risk.SalesOrderLine {
	return risk.SalesOrderLine{
		ID:                r.ID,
		OrderID:           r.OrderID,
		OrderNumber:       r.OrderNumber,
		CustomerID:        r.CustomerID,
		OrderDate:         r.OrderDate,
		OrderState:        r.OrderState,
		ProductID:         r.ProductID,
		ProductName:       r.ProductName,
		QuantityOrdered:   r.QuantityOrdered,
		QuantityToDeliver: r.QuantityOrdered.Sub(r.QuantityDelivered),
		QuantityInvoiced:  r.QuantityInvoiced,
		UnitPrice:         r.UnitPrice,
		LineSubtotal:      r.LineSubtotal,
	}
}

// LedgerEntryModel is the read model of a journal item.
type LedgerEntryModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_customer_account,priority:1"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_customer_account,priority:2"`
	MoveName    string          `gorm:"type:varchar(64)"`
	Date        time.Time       `gorm:"not null;index"`
	ParentState risk.MoveState  `gorm:"type:varchar(20);not null"`
	Debit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Credit      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the read model to a risk LedgerEntry.
func (m *LedgerEntryModel) ToDomain() risk.LedgerEntry {
	return risk.LedgerEntry{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		AccountID:   m.AccountID,
		MoveName:    m.MoveName,
		Date:        m.Date,
		ParentState: m.ParentState,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Balance:     m.Balance,
	}
}

// PaymentModel is the read model of a customer payment.
type PaymentModel struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key"`
	CustomerID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	PaymentNumber     string            `gorm:"type:varchar(50)"`
	State             risk.PaymentState `gorm:"type:varchar(20);not null"`
	PaymentMethodCode string            `gorm:"type:varchar(50);not null"`
	CheckNumber       string            `gorm:"type:varchar(50)"`
	Amount            decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	DueDate           *time.Time        `gorm:"index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the read model to a risk Payment.
func (m *PaymentModel) ToDomain() risk.Payment {
	p := risk.Payment{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		PaymentNumber: m.PaymentNumber,
		State:         m.State,
		MethodCode:    m.PaymentMethodCode,
		CheckNumber:   m.CheckNumber,
		Amount:        m.Amount,
	}
	if m.DueDate != nil {
		p.DueDate = *m.DueDate
	}
	return p
}

// ReadModels lists the models the risk providers read, in migration order.
func ReadModels() []any {
	return []any{
		&CustomerModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&LedgerEntryModel{},
		&PaymentModel{},
	}
}
