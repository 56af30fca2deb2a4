package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// ConnectorPair names a market on a connector.
type ConnectorPair struct {
	Connector string       `json:"connector"`
	Pair      pricing.Pair `json:"pair"`
}

// String returns connector:BASE-QUOTE.
func (c ConnectorPair) String() string {
	return c.Connector + ":" + c.Pair.String()
}

// CreateExecutionAction asks the execution subsystem to buy OrderAmount on
// Buying and sell it on Selling.
type CreateExecutionAction struct {
	ID                 string          `json:"id"`
	Buying             ConnectorPair   `json:"buying_market"`
	Selling            ConnectorPair   `json:"selling_market"`
	OrderAmount        decimal.Decimal `json:"order_amount"`
	MinProfitability   decimal.Decimal `json:"min_profitability"`
	GasConversionPrice decimal.Decimal `json:"gas_conversion_price"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewCreateExecutionAction builds the CEX-buy/DEX-sell action for amount.
// GasConversionPrice is the inverse gas token price.
func NewCreateExecutionAction(cfg StrategyConfig, amount decimal.Decimal, now time.Time) CreateExecutionAction {
	return CreateExecutionAction{
		ID:                 uuid.NewString(),
		Buying:             ConnectorPair{Connector: cfg.CEXConnector, Pair: cfg.CEXPair},
		Selling:            ConnectorPair{Connector: cfg.DEXConnector, Pair: cfg.DEXPair},
		OrderAmount:        amount,
		MinProfitability:   cfg.MinProfitability,
		GasConversionPrice: decimal.NewFromInt(1).DivRound(cfg.GasTokenPriceQuote, ratePrecision),
		CreatedAt:          now,
	}
}

// StopExecutionAction asks the execution subsystem to stop an execution.
type StopExecutionAction struct {
	ExecutionID string `json:"execution_id"`
}

// ExecutionRecord is the strategy's view of an execution.
type ExecutionRecord struct {
	ID     string
	Active bool
}

// FilterExecutions returns the records matching keep.
func FilterExecutions(records []ExecutionRecord, keep func(ExecutionRecord) bool) []ExecutionRecord {
	out := make([]ExecutionRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// IsActive is a FilterExecutions predicate.
func IsActive(r ExecutionRecord) bool {
	return r.Active
}
