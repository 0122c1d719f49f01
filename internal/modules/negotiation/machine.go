// README: Pure negotiation transition function and price-objection detection.
package negotiation

import (
	"fmt"
	"strconv"
	"strings"

	"concierge/internal/modules/pricing"
	"concierge/internal/types"
)

// Advance applies one price objection for productID. A nil prev or a different product starts
// at anchor. The returned outcome is nil once the state is terminal; the state then stays put.
func Advance(prev *State, productID types.ID, rule Rule, price *types.Money) (State, *Outcome) {
	st := State{ProductID: productID, Stage: StageAnchor}
	if prev != nil && prev.ProductID == productID && prev.Stage != "" {
		st = *prev
	}
	if st.ConcessionIndex < 0 {
		// corrupted session record: start over
		st = State{ProductID: productID, Stage: StageAnchor}
	}
	if st.ConcessionIndex > len(rule.DiscountSteps) {
		st.ConcessionIndex = len(rule.DiscountSteps)
	}

	switch st.Stage {
	case StageAnchor:
		out := &Outcome{ProductID: productID, Stage: StageAnchor, Copy: rule.AnchorCopy}
		if strings.TrimSpace(rule.SweetenerCopy) != "" {
			st.Stage = StageSweetener
		} else {
			st.Stage = StageDiscount
			st.ConcessionIndex = 0
		}
		return st, out

	case StageSweetener:
		st.Stage = StageDiscount
		st.ConcessionIndex = 0
		return st, &Outcome{ProductID: productID, Stage: StageSweetener, Copy: rule.SweetenerCopy}

	case StageDiscount:
		if st.Terminal(rule) {
			return st, nil
		}
		k := st.ConcessionIndex
		pct := rule.DiscountSteps[k]
		out := &Outcome{
			ProductID:       productID,
			Stage:           StageDiscount,
			StepIndex:       k,
			DiscountPercent: pct,
			AssuranceCopy:   rule.RiskCopy,
		}
		if price != nil {
			orig := *price
			disc := pricing.ApplyDiscount(orig, pct)
			out.OriginalPrice = &orig
			out.DiscountedPrice = &disc
		}
		out.Copy = discountCopy(pct, out.DiscountedPrice)
		st.ConcessionIndex = k + 1
		return st, out
	}

	// unknown stage from a corrupted session: start over
	return Advance(nil, productID, rule, price)
}

func discountCopy(pct float64, price *types.Money) string {
	p := strconv.FormatFloat(pct, 'f', -1, 64)
	if price == nil {
		return fmt.Sprintf("I can take %s%% off for you.", p)
	}
	return fmt.Sprintf("I can take %s%% off, which brings it to %s.", p, price)
}

var objectionPhrases = []string{
	"too expensive",
	"so expensive",
	"that's expensive",
	"thats expensive",
	"too pricey",
	"bit pricey",
	"too much",
	"costs too much",
	"too costly",
	"too high",
	"too steep",
	"a bit steep",
	"can't afford",
	"cant afford",
	"cannot afford",
	"out of my budget",
	"over my budget",
	"above my budget",
	"beyond my budget",
	"over budget",
	"any discount",
	"a discount",
	"discount code",
	"coupon",
	"better price",
	"better deal",
	"best price",
	"lower price",
	"lower the price",
	"come down on",
	"knock off",
	"cheaper",
	"negotiate",
	"is that the best you can do",
}

// DetectPriceObjection is a case-insensitive substring match against a curated phrase list.
func DetectPriceObjection(message string) bool {
	m := strings.ToLower(strings.Join(strings.Fields(message), " "))
	m = strings.ReplaceAll(m, "’", "'")
	if m == "" {
		return false
	}
	for _, p := range objectionPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}
