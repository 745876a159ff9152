// Package indicator implements the rolling technical computations used by
// the built-in strategies: SMA, EMA, RSI and ATR. All functions are pure:
// they read a window of values and return the latest indicator value, so
// strategies stay deterministic and independently testable.
package indicator

import (
	"github.com/rxtech-lab/argo-advisor/pkg/errors"
)

func requireBars(name string, have, need int) error {
	if have < need {
		return errors.Newf(errors.ErrCodeInsufficientBars,
			"%s requires %d bars, have %d", name, need, have)
	}

	return nil
}
