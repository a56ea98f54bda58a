// Package models contains GORM read models for the ERP tables the customer
// risk report queries. They are kept apart from the risk domain types so the
// domain stays free of ORM tags.
//
// Structure:
// - risk.go: customers, sales orders and lines, ledger entries, payments
//
// Each model exposes ToDomain to map a row into its risk counterpart.
package models
