package usecase

import (
	"errors"
	"time"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/base/metrics"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/service/notify"
	"golang.org/x/xerrors"
)

// lockKey is shared by every operation touching the deployment record.
const lockKey = "deployment"

var met = metrics.New("deployment")

type CoordinatorCfg struct {
	// Deployer is the account whose deployments determine the addresses
	Deployer      domain.Address
	DeployerNonce uint64

	Cache      deployment.Cache
	ProxyStore deployment.ProxyStore
	Registry   deployment.ArtifactRegistry
	Lock       deployment.Lock
	Notifier   notify.Notifier
	Now        func() time.Time
}

type impl struct {
	deployer      domain.Address
	deployerNonce uint64
	cache         deployment.Cache
	store         deployment.ProxyStore
	registry      deployment.ArtifactRegistry
	lock          deployment.Lock
	notifier      notify.Notifier
	now           func() time.Time
}

func New(cfg *CoordinatorCfg) deployment.Coordinator {
	im := &impl{
		deployer:      cfg.Deployer,
		deployerNonce: cfg.DeployerNonce,
		cache:         cfg.Cache,
		store:         cfg.ProxyStore,
		registry:      cfg.Registry,
		lock:          cfg.Lock,
		notifier:      cfg.Notifier,
		now:           cfg.Now,
	}
	if im.notifier == nil {
		im.notifier = notify.NewLog()
	}
	if im.now == nil {
		im.now = time.Now
	}
	return im
}

func (im *impl) cacheError(err error) error {
	return &deployment.CacheError{Location: im.cache.Location(), Err: err}
}

// load returns the current record, ErrNoPriorDeployment if there is none.
func (im *impl) load(c ctx.Ctx) (*deployment.Record, error) {
	rec, err := im.cache.Load(c)
	if err == domain.ErrCacheMissing {
		return nil, xerrors.Errorf("%s: %w", im.cache.Location(), domain.ErrNoPriorDeployment)
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"location": im.cache.Location(),
		}).Error("cache.Load failed")
		return nil, err
	}
	return rec, nil
}

func (im *impl) report(c ctx.Ctx, action string, rec *deployment.Record, err error) {
	r := notify.Report{Action: action, At: im.now(), Err: err}
	if rec != nil {
		r.ChainId = rec.ChainId
		r.ProxyAddress = rec.ProxyAddress
		r.Implementation = rec.ImplementationAddress
		r.Version = string(rec.Version)
		r.Feed = rec.OracleFeedAddress
	}
	im.notifier.Notify(c, r)

	if err != nil {
		met.BumpSum(action+".err", 1, "reason", errReason(err))
	} else {
		met.BumpSum(action+".success", 1, "version", r.Version)
	}
}

func (im *impl) Deploy(c ctx.Ctx, p deployment.DeployParams) (rec *deployment.Record, err error) {
	defer func() { im.report(c, "deploy", rec, err) }()

	if p.Admin.IsEmpty() {
		return nil, xerrors.Errorf("admin: %w", domain.ErrInvalidAddress)
	}

	unlock, err := im.lock.TryLock(c, lockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if cur, err := im.cache.Load(c); err == nil {
		return nil, xerrors.Errorf("proxy %s at %s: %w", cur.ProxyAddress, im.cache.Location(), domain.ErrAlreadyDeployed)
	} else if err != domain.ErrCacheMissing {
		c.WithField("err", err).Error("cache.Load failed")
		return nil, err
	}

	artifact, err := im.registry.Artifact(c, deployment.VersionV1)
	if err != nil {
		c.WithField("err", err).Error("registry.Artifact failed")
		return nil, err
	}

	proxy := deployment.ProxyAddress(im.deployer, im.deployerNonce)
	implAddr := deployment.ImplementationAddress(im.deployer, artifact)
	if err := im.registry.Install(c, artifact, implAddr); err != nil {
		c.WithField("err", err).Error("registry.Install failed")
		return nil, err
	}
	if err := im.store.Init(c, proxy, deployment.ProxyState{Implementation: implAddr, Admin: p.Admin.ToLower()}); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"proxy": proxy,
		}).Error("store.Init failed")
		return nil, err
	}

	rec = &deployment.Record{
		ProxyAddress:          proxy,
		ImplementationAddress: implAddr,
		Abi:                   artifact.Abi,
		Version:               artifact.Version,
		Admin:                 p.Admin.ToLower(),
		ProxyKind:             deployment.ProxyKindTransparent,
		DeployedAt:            im.now().UTC(),
		ChainId:               p.ChainId,
	}
	if err := im.cache.Save(c, rec); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"location": im.cache.Location(),
		}).Error("cache.Save failed")
		return rec, im.cacheError(err)
	}
	return rec, nil
}

// Upgrade installs the next version behind the proxy. If only the final save
// fails, the proxy is upgraded and the error carries the stale cache location.
func (im *impl) Upgrade(c ctx.Ctx) (after *deployment.Record, err error) {
	defer func() { im.report(c, "upgrade", after, err) }()

	unlock, err := im.lock.TryLock(c, lockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	before, err := im.load(c)
	if err != nil {
		return nil, err
	}
	c = ctx.WithLogFields(c, log.Fields{"proxy": before.ProxyAddress, "from": before.Version})

	next, err := before.Version.Next()
	if err != nil {
		return nil, deployment.LoadError(before.Version, err)
	}
	artifact, err := im.registry.Artifact(c, next)
	if err != nil {
		c.WithField("err", err).Error("registry.Artifact failed")
		return nil, err
	}

	implAddr := deployment.ImplementationAddress(im.deployer, artifact)
	if err := im.registry.Install(c, artifact, implAddr); err != nil {
		c.WithField("err", err).Error("registry.Install failed")
		return nil, deployment.LoadError(next, err)
	}
	if err := im.store.SetImplementation(c, before.ProxyAddress, implAddr); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"impl": implAddr,
		}).Error("store.SetImplementation failed")
		return nil, err
	}

	state, err := im.verify(c, before.ProxyAddress, implAddr)
	if err != nil {
		if rerr := im.store.SetImplementation(c, before.ProxyAddress, before.ImplementationAddress); rerr != nil {
			c.WithField("err", rerr).Error("store.SetImplementation rollback failed")
		}
		return nil, err
	}

	now := im.now().UTC()
	after = before.Clone()
	after.ImplementationAddress = implAddr
	after.Abi = artifact.Abi
	after.Version = artifact.Version
	after.UpgradeTime = &now
	after.OracleFeedAddress = state.OracleFeed

	if err := im.cache.Save(c, after); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"location": im.cache.Location(),
		}).Error("cache.Save failed, proxy is upgraded but the record is stale")
		return after, im.cacheError(err)
	}
	return after, nil
}

// verify reads the slot back and makes sure calls through the proxy reach
// the new logic.
func (im *impl) verify(c ctx.Ctx, proxy, implAddr domain.Address) (*deployment.ProxyState, error) {
	state, err := im.store.Get(c, proxy)
	if err != nil {
		c.WithField("err", err).Error("store.Get failed")
		return nil, xerrors.Errorf("read back slot: %v: %w", err, domain.ErrUpgradeVerificationFailed)
	}
	if !state.Implementation.Equals(implAddr) {
		return nil, xerrors.Errorf("slot holds %s, want %s: %w", state.Implementation, implAddr, domain.ErrUpgradeVerificationFailed)
	}
	if _, err := im.registry.Logic(c, proxy, state.Implementation); err != nil {
		return nil, xerrors.Errorf("resolve %s: %v: %w", implAddr, err, domain.ErrUpgradeVerificationFailed)
	}
	return state, nil
}

// SetFeed is admin only and needs an implementation that bids through a
// feed. The setting lives behind the proxy, so later upgrades keep it.
func (im *impl) SetFeed(c ctx.Ctx, caller, feed domain.Address) (rec *deployment.Record, err error) {
	defer func() { im.report(c, "setFeed", rec, err) }()

	if feed.IsEmpty() {
		return nil, xerrors.Errorf("feed: %w", domain.ErrInvalidAddress)
	}

	unlock, err := im.lock.TryLock(c, lockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err = im.load(c)
	if err != nil {
		return nil, err
	}
	state, err := im.store.Get(c, rec.ProxyAddress)
	if err != nil {
		c.WithField("err", err).Error("store.Get failed")
		return nil, err
	}
	if !caller.Equals(state.Admin) {
		return nil, xerrors.Errorf("%s is not admin of %s: %w", caller, rec.ProxyAddress, domain.ErrUnauthorized)
	}

	logic, err := im.registry.Logic(c, rec.ProxyAddress, state.Implementation)
	if err != nil {
		c.WithField("err", err).Error("registry.Logic failed")
		return nil, xerrors.Errorf("implementation %s: %v: %w", state.Implementation, err, domain.ErrImplementationLoad)
	}
	if !logic.SupportsOracle() {
		return nil, xerrors.Errorf("%s has no price feed setting: %w", rec.Version, domain.ErrOracleUnavailable)
	}

	feed = feed.ToLower()
	if err := im.store.SetFeed(c, rec.ProxyAddress, feed); err != nil {
		c.WithField("err", err).Error("store.SetFeed failed")
		return nil, err
	}

	rec = rec.Clone()
	rec.OracleFeedAddress = &feed
	if err := im.cache.Save(c, rec); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"location": im.cache.Location(),
		}).Error("cache.Save failed, feed is set but the record is stale")
		return rec, im.cacheError(err)
	}
	return rec, nil
}

func (im *impl) Status(c ctx.Ctx) (*deployment.Record, *deployment.ProxyState, error) {
	rec, err := im.load(c)
	if err != nil {
		return nil, nil, err
	}
	state, err := im.store.Get(c, rec.ProxyAddress)
	if err != nil {
		c.WithField("err", err).Error("store.Get failed")
		return rec, nil, err
	}
	return rec, state, nil
}

func errReason(err error) string {
	for _, e := range []struct {
		err    error
		reason string
	}{
		{domain.ErrUpgradeInProgress, "inProgress"},
		{domain.ErrNoPriorDeployment, "noPriorDeployment"},
		{domain.ErrAlreadyDeployed, "alreadyDeployed"},
		{domain.ErrImplementationLoad, "implementationLoad"},
		{domain.ErrUpgradeVerificationFailed, "verification"},
		{domain.ErrCachePersistenceFailed, "cachePersistence"},
		{domain.ErrUnauthorized, "unauthorized"},
	} {
		if errors.Is(err, e.err) {
			return e.reason
		}
	}
	return "internal"
}
