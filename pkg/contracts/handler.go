package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// HealthChecker is a dependency probed by the /ready endpoint.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// StatsProvider exposes in-process counters on the /health endpoint.
type StatsProvider interface {
	Name() string
	Stats() any
}
