package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrTransientNetwork    = errors.New("transient network error")
	ErrTerminalBroker      = errors.New("terminal broker error")
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrTradingDisabled     = errors.New("trading disabled")
	ErrBelowMinNotional    = errors.New("below minimum order notional")
)

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientNetwork)
}

// IsTerminal reports whether err is a broker rejection that must never be
// retried (invalid symbol, insufficient funds, and similar).
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTerminalBroker)
}

// IsDataUnavailable reports whether err indicates missing market or sentiment
// data, which degrades the signal pipeline rather than failing it.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}
