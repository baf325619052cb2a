package usecase

import (
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
)

// Restore prepares a fresh process to serve the recorded deployment. Every
// known artifact is installed at its deterministic address, and a proxy
// store that lost its state is rebuilt from the record. It returns nil when
// nothing was deployed yet.
func Restore(c ctx.Ctx, cfg *CoordinatorCfg) (*deployment.Record, error) {
	for v := deployment.VersionV1; ; {
		a, err := cfg.Registry.Artifact(c, v)
		if err != nil {
			break
		}
		if err := cfg.Registry.Install(c, a, deployment.ImplementationAddress(cfg.Deployer, a)); err != nil {
			c.WithFields(log.Fields{
				"err":     err,
				"version": v,
			}).Error("registry.Install failed")
			return nil, err
		}
		if v, err = v.Next(); err != nil {
			return nil, err
		}
	}

	rec, err := cfg.Cache.Load(c)
	if err == domain.ErrCacheMissing {
		return nil, nil
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"location": cfg.Cache.Location(),
		}).Error("cache.Load failed")
		return nil, err
	}

	_, err = cfg.ProxyStore.Get(c, rec.ProxyAddress)
	if err == nil {
		return rec, nil
	} else if err != domain.ErrNotFound {
		c.WithField("err", err).Error("store.Get failed")
		return nil, err
	}

	state := deployment.ProxyState{
		Implementation: rec.ImplementationAddress,
		Admin:          rec.Admin,
		OracleFeed:     rec.OracleFeedAddress,
	}
	if err := cfg.ProxyStore.Init(c, rec.ProxyAddress, state); err != nil {
		c.WithField("err", err).Error("store.Init failed")
		return nil, err
	}
	c.WithFields(log.Fields{
		"proxy":   rec.ProxyAddress,
		"version": rec.Version,
	}).Warn("proxy state rebuilt from the deployment record")
	return rec, nil
}
