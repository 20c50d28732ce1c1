package service

import (
	"context"
	"errors"

	agendaerrors "jdpanel/internal/agenda/errors"
)

// attempt is one way of performing a gateway mutation. Attempts run in
// order; fallbackOn decides whether a failure lets the next attempt run.
type attempt struct {
	name       string
	run        func(ctx context.Context) error
	fallbackOn func(err error) bool
}

// runAttempts returns the name of the attempt that settled the outcome and
// its error. A nil fallbackOn makes the failure terminal.
func runAttempts(ctx context.Context, attempts []attempt, onFailure func(name string, err error)) (string, error) {
	var lastName string
	var lastErr error

	for i, a := range attempts {
		lastName = a.name
		lastErr = a.run(ctx)
		if lastErr == nil {
			return a.name, nil
		}
		if onFailure != nil {
			onFailure(a.name, lastErr)
		}

		last := i == len(attempts)-1
		if last || a.fallbackOn == nil || !a.fallbackOn(lastErr) {
			break
		}
	}

	return lastName, lastErr
}

func onUnauthorized(err error) bool {
	return errors.Is(err, agendaerrors.ErrUnauthorized)
}

// onHTTPFailure allows a fallback for any answered request, not for transport failures.
func onHTTPFailure(err error) bool {
	return !errors.Is(err, agendaerrors.ErrNetwork)
}
