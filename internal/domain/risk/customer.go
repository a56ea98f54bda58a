package risk

import (
	"github.com/google/uuid"
)

// Customer is a sales counterparty as seen by the credit-risk report.
// CustomerRank counts how many times the partner has been invoiced as a customer;
// only ranked customers are picked up when a request does not name any.
type Customer struct {
	ID                   uuid.UUID   `json:"id"`
	Code                 string      `json:"code"`
	Name                 string      `json:"name"`
	CustomerRank         int         `json:"customer_rank"`
	ReceivableAccountIDs []uuid.UUID `json:"receivable_account_ids,omitempty"`
}

// IsRanked reports whether the customer has been invoiced at least once
func (c Customer) IsRanked() bool {
	return c.CustomerRank > 0
}

// HasReceivableAccount reports whether a receivable account is configured
func (c Customer) HasReceivableAccount() bool {
	return len(c.ReceivableAccountIDs) > 0
}

// DisplayName returns the name used in exports, falling back to the code
func (c Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}
