// README: Negotiation rule store backed by PostgreSQL.
package negotiation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concierge/internal/types"
)

type RuleStore struct {
	db *pgxpool.Pool
}

func NewRuleStore(db *pgxpool.Pool) *RuleStore {
	return &RuleStore{db: db}
}

// GetRule returns nil, nil when no rule is configured for the product.
func (s *RuleStore) GetRule(ctx context.Context, storeID string, productID types.ID) (*Rule, error) {
	row := s.db.QueryRow(ctx, `
		SELECT store_id, product_id, anchor_copy, sweetener_copy, discount_steps, risk_copy
		FROM negotiation_rules
		WHERE store_id = $1 AND product_id = $2`, storeID, string(productID),
	)

	var r Rule
	var pid string
	var sweetener, risk *string
	err := row.Scan(&r.StoreID, &pid, &r.AnchorCopy, &sweetener, &r.DiscountSteps, &risk)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.ProductID = types.ID(pid)
	if sweetener != nil {
		r.SweetenerCopy = *sweetener
	}
	if risk != nil {
		r.RiskCopy = *risk
	}
	return &r, nil
}

// PutRule upserts a rule. Used by seeding and tests.
func (s *RuleStore) PutRule(ctx context.Context, r Rule) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO negotiation_rules (store_id, product_id, anchor_copy, sweetener_copy, discount_steps, risk_copy)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
		ON CONFLICT (store_id, product_id) DO UPDATE SET
			anchor_copy = EXCLUDED.anchor_copy,
			sweetener_copy = EXCLUDED.sweetener_copy,
			discount_steps = EXCLUDED.discount_steps,
			risk_copy = EXCLUDED.risk_copy`,
		r.StoreID, string(r.ProductID), r.AnchorCopy, r.SweetenerCopy, r.DiscountSteps, r.RiskCopy,
	)
	return err
}
