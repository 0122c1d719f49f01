// README: Flow order: whether the clarifier is shown before or after results.
package flow

type Order string

const (
	AskThenShow Order = "ask_then_show"
	ShowThenAsk Order = "show_then_ask"
	ShowOnly    Order = "show_only"
)

// Limits for the result-count rules.
const (
	smallResultSet      = 4
	firstTurnOpenMin    = 8
	laterTurnOpenMin    = 12
	specificConstraints = 2
)
