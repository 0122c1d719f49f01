// README: Negotiation tests (transition table, staged concessions, objection phrases, service).
package negotiation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/infra"
	"concierge/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Stage
		want     bool
	}{
		{StageAnchor, StageSweetener, true},
		{StageAnchor, StageDiscount, true}, // no sweetener configured
		{StageSweetener, StageDiscount, true},
		{StageDiscount, StageDiscount, true},
		// strictly forward
		{StageSweetener, StageAnchor, false},
		{StageDiscount, StageAnchor, false},
		{StageDiscount, StageSweetener, false},
		{StageAnchor, StageAnchor, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAdvance_AnchorThenDiscounts(t *testing.T) {
	rule := Rule{ProductID: "p1", AnchorCopy: "Hand-built steel frame.", DiscountSteps: []float64{7, 3}, RiskCopy: "30-day returns."}
	price := &types.Money{Amount: 12999, Currency: "USD"}

	var st *State
	next, out := Advance(st, "p1", rule, price)
	require.NotNil(t, out)
	assert.Equal(t, StageAnchor, out.Stage)
	assert.Equal(t, "Hand-built steel frame.", out.Copy)
	assert.Equal(t, State{ProductID: "p1", Stage: StageDiscount}, next)

	next, out = Advance(&next, "p1", rule, price)
	require.NotNil(t, out)
	assert.Equal(t, StageDiscount, out.Stage)
	assert.Equal(t, 0, out.StepIndex)
	assert.Equal(t, 7.0, out.DiscountPercent)
	assert.Equal(t, types.Money{Amount: 12089, Currency: "USD"}, *out.DiscountedPrice)
	assert.Equal(t, "I can take 7% off, which brings it to 120.89 USD.", out.Copy)
	assert.Equal(t, "30-day returns.", out.AssuranceCopy)

	next, out = Advance(&next, "p1", rule, price)
	require.NotNil(t, out)
	assert.Equal(t, 3.0, out.DiscountPercent)
	assert.Equal(t, 2, next.ConcessionIndex)

	next, out = Advance(&next, "p1", rule, price)
	assert.Nil(t, out, "fourth objection is terminal")
	assert.Equal(t, 2, next.ConcessionIndex)

	next, out = Advance(&next, "p1", rule, price)
	assert.Nil(t, out)
	assert.LessOrEqual(t, next.ConcessionIndex, len(rule.DiscountSteps))
}

func TestAdvance_WithSweetener(t *testing.T) {
	rule := Rule{AnchorCopy: "anchor", SweetenerCopy: "free shipping", DiscountSteps: []float64{5}}
	var stages []Stage
	var st *State
	for i := 0; i < 4; i++ {
		next, out := Advance(st, "p1", rule, nil)
		if out != nil {
			stages = append(stages, out.Stage)
			if out.Stage == StageDiscount {
				assert.Nil(t, out.DiscountedPrice, "no price known")
				assert.Equal(t, "I can take 5% off for you.", out.Copy)
			}
		} else {
			stages = append(stages, "")
		}
		st = &next
	}
	assert.Equal(t, []Stage{StageAnchor, StageSweetener, StageDiscount, ""}, stages)
}

func TestAdvance_TerminalAfterStepsPlusOneFromFirstDiscount(t *testing.T) {
	rule := Rule{AnchorCopy: "a", SweetenerCopy: "s", DiscountSteps: []float64{10, 5, 2}}
	st := &State{ProductID: "p1", Stage: StageDiscount}
	var out *Outcome
	for i := 0; i <= len(rule.DiscountSteps); i++ {
		var next State
		next, out = Advance(st, "p1", rule, nil)
		st = &next
		if i < len(rule.DiscountSteps) {
			require.NotNil(t, out, "call %d", i)
		}
	}
	assert.Nil(t, out)
}

func TestAdvance_ProductSwitchResets(t *testing.T) {
	rule := Rule{AnchorCopy: "anchor", DiscountSteps: []float64{7, 3}}
	st := &State{ProductID: "p1", Stage: StageDiscount, ConcessionIndex: 2}
	next, out := Advance(st, "p2", rule, nil)
	require.NotNil(t, out)
	assert.Equal(t, StageAnchor, out.Stage)
	assert.Equal(t, types.ID("p2"), next.ProductID)
}

func TestAdvance_CorruptedStateRestartsAtAnchor(t *testing.T) {
	rule := Rule{AnchorCopy: "anchor", DiscountSteps: []float64{7, 3}}
	cases := map[string]State{
		"negative index": {ProductID: "p1", Stage: StageDiscount, ConcessionIndex: -1},
		"unknown stage":  {ProductID: "p1", Stage: "haggle", ConcessionIndex: 1},
	}
	for name, prev := range cases {
		t.Run(name, func(t *testing.T) {
			var next State
			var out *Outcome
			require.NotPanics(t, func() { next, out = Advance(&prev, "p1", rule, nil) })
			require.NotNil(t, out)
			assert.Equal(t, StageAnchor, out.Stage)
			assert.Equal(t, State{ProductID: "p1", Stage: StageDiscount, ConcessionIndex: 0}, next)

			next, out = Advance(&next, "p1", rule, nil)
			require.NotNil(t, out)
			assert.Equal(t, 7.0, out.DiscountPercent)
			assert.Equal(t, 1, next.ConcessionIndex)
		})
	}
}

func TestAdvance_NoSteps(t *testing.T) {
	rule := Rule{AnchorCopy: "anchor"}
	next, out := Advance(nil, "p1", rule, nil)
	require.NotNil(t, out)
	next, out = Advance(&next, "p1", rule, nil)
	assert.Nil(t, out)
	assert.Equal(t, 0, next.ConcessionIndex)
}

func TestDetectPriceObjection(t *testing.T) {
	yes := []string{
		"That's TOO expensive",
		"hmm, a bit  steep for me",
		"I can’t afford that",
		"is there any discount?",
		"anything cheaper?",
		"is that the best you can do",
		"It's over my budget",
	}
	no := []string{
		"",
		"show me expensive watches",
		"do you have it in blue",
		"how much does shipping take", // "how much" alone is not an objection
	}
	for _, m := range yes {
		assert.True(t, DetectPriceObjection(m), "%q", m)
	}
	for _, m := range no {
		assert.False(t, DetectPriceObjection(m), "%q", m)
	}
}

type mockRules struct {
	mu    sync.Mutex
	rules map[types.ID]*Rule
	err   error
	calls int
}

func (m *mockRules) GetRule(_ context.Context, _ string, productID types.ID) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rules[productID], nil
}

func TestServiceHandle(t *testing.T) {
	rules := &mockRules{rules: map[types.ID]*Rule{"p1": {AnchorCopy: "anchor", DiscountSteps: []float64{7, 3}}}}
	svc := NewService(rules, nil)
	ctx := context.Background()

	st, out, err := svc.Handle(ctx, nil, Command{ProductID: "p1", Message: "do you have it in red?"})
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.Nil(t, out)
	assert.Equal(t, 0, rules.calls, "no lookup without an objection")

	st, out, err = svc.Handle(ctx, nil, Command{ProductID: "p1", Message: "too expensive"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, StageAnchor, out.Stage)
	require.NotNil(t, st)

	prev := st
	st, out, err = svc.Handle(ctx, prev, Command{ProductID: "p9", Message: "too expensive"})
	require.NoError(t, err)
	assert.Nil(t, out, "no rule, no activation")
	assert.Same(t, prev, st)

	rules.err = errors.New("db down")
	_, _, err = svc.Handle(ctx, prev, Command{ProductID: "p1", Message: "too expensive"})
	assert.ErrorIs(t, err, ErrRuleLookup)
	assert.ErrorIs(t, err, rules.err)
}

// TestRuleStore runs against a real database migrated with migrations/0001_init.sql.
func TestRuleStore(t *testing.T) {
	dsn := os.Getenv("CONCIERGE_TEST_DSN")
	if dsn == "" {
		t.Skip("CONCIERGE_TEST_DSN not set; skipping DB-backed tests")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	migration, err := infra.RepoFile(filepath.Join("migrations", "0001_init.sql"))
	require.NoError(t, err)
	require.NoError(t, infra.ApplyMigrations(ctx, db, migration))

	store := NewRuleStore(db)
	want := Rule{StoreID: "neg_test", ProductID: "p1", AnchorCopy: "anchor", DiscountSteps: []float64{7, 3}, RiskCopy: "returns"}
	require.NoError(t, store.PutRule(ctx, want))

	got, err := store.GetRule(ctx, "neg_test", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	missing, err := store.GetRule(ctx, "neg_test", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
