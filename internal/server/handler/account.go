package handler

import (
	"net/http"

	"github.com/tallmansamadam/ladybug-trading/internal/book"
	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// AccountHandler serves the account summary, live from the broker when
// credentials are configured and from the local paper ledger otherwise.
type AccountHandler struct {
	broker domain.Broker
	ledger *book.Ledger
	book   *book.Book
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(broker domain.Broker, ledger *book.Ledger, bk *book.Book) *AccountHandler {
	return &AccountHandler{broker: broker, ledger: ledger, book: bk}
}

// GetAccount responds with cash, buying power, and portfolio value.
// GET /api/account
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.broker.Account(r.Context())
	source := "live"
	if err != nil {
		if !domain.IsDataUnavailable(err) {
			writeError(w, http.StatusBadGateway, "account lookup failed")
			return
		}
		cash := h.ledger.Balance()
		acct = domain.Account{
			Cash:           cash,
			BuyingPower:    cash,
			PortfolioValue: cash + h.book.Value(),
			Currency:       "USD",
		}
		source = "paper"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cash":            acct.Cash,
		"buying_power":    acct.BuyingPower,
		"portfolio_value": acct.PortfolioValue,
		"currency":        acct.Currency,
		"source":          source,
	})
}
