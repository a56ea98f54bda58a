package risk

import (
	"fmt"
	"strings"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/infrastructure/config"
	"github.com/google/uuid"
)

// PolicyFromConfig builds the aggregation rules from the risk configuration section
func PolicyFromConfig(cfg config.RiskConfig) (risk.Policy, error) {
	policy := risk.DefaultPolicy()

	for _, raw := range cfg.ExcludedProductIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return risk.Policy{}, fmt.Errorf("invalid excluded product id %q: %w", raw, err)
		}
		policy.ExcludedProductIDs = append(policy.ExcludedProductIDs, id)
	}

	if len(cfg.ChequeMethodCodes) > 0 {
		policy.ChequeMethodCodes = append([]string(nil), cfg.ChequeMethodCodes...)
	}
	if cfg.BalanceConvention != "" {
		policy.BalanceConvention = risk.BalanceConvention(cfg.BalanceConvention)
	}
	if cfg.PendingFormula != "" {
		policy.PendingFormula = risk.PendingFormula(cfg.PendingFormula)
	}
	if cfg.Inclusion != "" {
		policy.Inclusion = risk.InclusionPolicy(cfg.Inclusion)
	}
	policy.ChequeDueDateFilter = cfg.ChequeDueDateFilter
	policy.FailFast = cfg.FailFast

	if err := policy.Validate(); err != nil {
		return risk.Policy{}, err
	}
	return policy, nil
}
