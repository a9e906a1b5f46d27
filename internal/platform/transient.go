package platform

import "errors"

// IsTransient reports whether a failure is plausibly resolved by waiting:
// rate limiting or a momentary server error. Everything else, including
// non-StatusError failures, is terminal.
func IsTransient(err error) bool {
	var serr *StatusError
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
