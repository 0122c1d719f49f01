// README: Negotiation service: objection detection, rule lookup and stage advance.
package negotiation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"concierge/internal/types"
)

type RuleSource interface {
	GetRule(ctx context.Context, storeID string, productID types.ID) (*Rule, error)
}

type Service struct {
	rules RuleSource
	log   *zap.Logger
}

func NewService(rules RuleSource, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{rules: rules, log: log}
}

type Command struct {
	StoreID   string
	ProductID types.ID
	Message   string
	Price     *types.Money
}

// Handle advances prev when the message is a price objection about a product with a rule.
// It returns prev unchanged and a nil outcome when the machine does not activate.
func (s *Service) Handle(ctx context.Context, prev *State, cmd Command) (*State, *Outcome, error) {
	if cmd.ProductID == "" || !DetectPriceObjection(cmd.Message) {
		return prev, nil, nil
	}
	rule, err := s.rules.GetRule(ctx, cmd.StoreID, cmd.ProductID)
	if err != nil {
		return prev, nil, fmt.Errorf("%w: %w", ErrRuleLookup, err)
	}
	if rule == nil {
		s.log.Debug("no negotiation rule", zap.String("store", cmd.StoreID), zap.String("product", string(cmd.ProductID)))
		return prev, nil, nil
	}

	next, out := Advance(prev, cmd.ProductID, *rule, cmd.Price)
	if out == nil {
		s.log.Debug("negotiation terminal", zap.String("product", string(cmd.ProductID)), zap.Int("concession", next.ConcessionIndex))
	}
	return &next, out, nil
}
