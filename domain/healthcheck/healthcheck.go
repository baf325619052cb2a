package healthcheck

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
)

// Status is what /health reports.
type Status struct {
	Backends map[string]string `json:"backends"`
	Proxy    domain.Address    `json:"proxy,omitempty"`
	Version  string            `json:"version,omitempty"`
}

// HealthCheckUsecase represents the healthCheck's usecases
type HealthCheckUsecase interface {
	// Check returns the status and the first failure, if any
	Check(c ctx.Ctx) (*Status, error)
}

// Pinger is one backend the service depends on.
type Pinger interface {
	Name() string
	Ping(c ctx.Ctx) error
}
