package usecase

import (
	"errors"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	hcdomain "github.com/x-xyz/auctionproxy/domain/healthcheck"
)

type impl struct {
	pingers     []hcdomain.Pinger
	coordinator deployment.Coordinator
}

// New checks every pinger, then the deployment. A service that was never
// deployed is healthy, it just has nothing to serve yet.
func New(coordinator deployment.Coordinator, pingers ...hcdomain.Pinger) hcdomain.HealthCheckUsecase {
	return &impl{
		pingers:     pingers,
		coordinator: coordinator,
	}
}

func (im *impl) Check(c ctx.Ctx) (*hcdomain.Status, error) {
	var firstErr error
	s := &hcdomain.Status{Backends: make(map[string]string)}
	for _, p := range im.pingers {
		if err := p.Ping(c); err != nil {
			s.Backends[p.Name()] = err.Error()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.Backends[p.Name()] = "ok"
	}

	rec, _, err := im.coordinator.Status(c)
	switch {
	case errors.Is(err, domain.ErrNoPriorDeployment):
	case err != nil:
		c.WithField("err", err).Error("coordinator.Status failed")
		if firstErr == nil {
			firstErr = err
		}
	default:
		s.Proxy = rec.ProxyAddress
		s.Version = string(rec.Version)
	}
	return s, firstErr
}
