// Package stack builds the repositories and usecases both binaries share,
// picking each backend from the viper configuration.
package stack

import (
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"google.golang.org/api/option"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/database/mongoclient"
	"github.com/x-xyz/auctionproxy/base/database/redisclient"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/base/metrics"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/auction"
	"github.com/x-xyz/auctionproxy/domain/custody"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"github.com/x-xyz/auctionproxy/domain/healthcheck"
	"github.com/x-xyz/auctionproxy/domain/oracle"
	"github.com/x-xyz/auctionproxy/service/cache/provider"
	"github.com/x-xyz/auctionproxy/service/cache/provider/primitive"
	redisProvider "github.com/x-xyz/auctionproxy/service/cache/provider/redis"
	"github.com/x-xyz/auctionproxy/service/chain"
	"github.com/x-xyz/auctionproxy/service/chain/contract"
	"github.com/x-xyz/auctionproxy/service/chainlink"
	"github.com/x-xyz/auctionproxy/service/ens"
	"github.com/x-xyz/auctionproxy/service/notify"
	"github.com/x-xyz/auctionproxy/service/query"
	"github.com/x-xyz/auctionproxy/service/redis"
	auctionRepo "github.com/x-xyz/auctionproxy/stores/auction/repository"
	auctionUsecase "github.com/x-xyz/auctionproxy/stores/auction/usecase"
	custodyRepo "github.com/x-xyz/auctionproxy/stores/custody/repository"
	deploymentRepo "github.com/x-xyz/auctionproxy/stores/deployment/repository"
	deploymentUsecase "github.com/x-xyz/auctionproxy/stores/deployment/usecase"
	hcRepo "github.com/x-xyz/auctionproxy/stores/healthcheck/repository"
	oracleRepo "github.com/x-xyz/auctionproxy/stores/oracle/repository"
	oracleUsecase "github.com/x-xyz/auctionproxy/stores/oracle/usecase"
	proxyUsecase "github.com/x-xyz/auctionproxy/stores/proxy/usecase"
	"golang.org/x/xerrors"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendFile   = "file"
	BackendGcs    = "gcs"
	BackendChain  = "chain"

	defaultLockTtl  = 2 * time.Minute
	defaultRoundTtl = 30 * time.Second
)

type Config struct {
	ChainId  domain.ChainId
	RpcUrl   string
	Deployer domain.Address
	Nonce    uint64

	MongoUri        string
	MongoAuthDB     string
	MongoDB         string
	MongoSSL        bool
	MongoCheckIndex bool

	RedisName           string
	RedisUri            string
	RedisPassword       string
	RedisPoolMultiplier float64
	LockTtl             time.Duration

	LedgerBackend  string
	CustodyBackend string
	CacheBackend   string
	CachePath      string
	CacheBucket    string
	CacheObject    string
	GcsCredentials string
	// Fs backs the file cache, the OS filesystem when nil
	Fs afero.Fs

	MaxRetries   int
	BackoffStart time.Duration
	BackoffLimit time.Duration

	OracleMaxAge   time.Duration
	OracleRoundTtl time.Duration

	Discord notify.DiscordConfig
}

// LoadConfig reads the keys of infra/configs/config.yaml.
func LoadConfig() *Config {
	return &Config{
		ChainId:  domain.ChainId(viper.GetInt32("chain.chainId")),
		RpcUrl:   viper.GetString("chain.rpcUrl"),
		Deployer: domain.Address(viper.GetString("deployer.address")).ToLower(),
		Nonce:    viper.GetUint64("deployer.nonce"),

		MongoUri:        viper.GetString("mongo.uri"),
		MongoAuthDB:     viper.GetString("mongo.authDBName"),
		MongoDB:         viper.GetString("mongo.dbName"),
		MongoSSL:        viper.GetBool("mongo.enableSSL"),
		MongoCheckIndex: viper.GetBool("mongo.checkIndex"),

		RedisName:           viper.GetString("redis.name"),
		RedisUri:            viper.GetString("redis.uri"),
		RedisPassword:       viper.GetString("redis.password"),
		RedisPoolMultiplier: viper.GetFloat64("redis.poolMultiplier"),
		LockTtl:             viper.GetDuration("redis.lockTtl"),

		LedgerBackend:  viper.GetString("ledger.backend"),
		CustodyBackend: viper.GetString("custody.backend"),
		CacheBackend:   viper.GetString("cache.backend"),
		CachePath:      viper.GetString("cache.path"),
		CacheBucket:    viper.GetString("cache.bucket"),
		CacheObject:    viper.GetString("cache.object"),
		GcsCredentials: viper.GetString("gcs.credentials"),

		MaxRetries:   viper.GetInt("engine.maxRetries"),
		BackoffStart: viper.GetDuration("engine.backoffStart"),
		BackoffLimit: viper.GetDuration("engine.backoffLimit"),

		OracleMaxAge:   viper.GetDuration("oracle.maxAge"),
		OracleRoundTtl: viper.GetDuration("oracle.cacheTtl"),

		Discord: notify.DiscordConfig{
			BotToken:  viper.GetString("discord.botToken"),
			ChannelId: viper.GetString("discord.channelId"),
		},
	}
}

type Stack struct {
	Cfg *Config

	Query     query.Mongo
	Redis     redis.Service
	Chain     chain.Client
	EthClient *ethclient.Client
	Ens       ens.ENS

	Ledger      auction.Repo
	Custodian   custody.Custodian
	Obligations custody.ObligationRepo
	Feeds       oracle.FeedReader

	Cache       deployment.Cache
	ProxyStore  deployment.ProxyStore
	Lock        deployment.Lock
	Registry    *deploymentRepo.ArtifactRegistry
	Coordinator deployment.Coordinator
	Proxy       auction.Usecase

	Pingers []healthcheck.Pinger
}

// Build connects every configured backend. Anything left unconfigured falls
// back to its in-process implementation, which only lives as long as the
// process does.
func Build(c ctx.Ctx, cfg *Config) (*Stack, error) {
	s := &Stack{Cfg: cfg}

	if cfg.MongoUri != "" {
		c.Info("init mongo")
		client, err := mongoclient.ConnectMongoClient(cfg.MongoUri, cfg.MongoAuthDB, cfg.MongoDB, cfg.MongoSSL, true, 2)
		if err != nil {
			c.WithFields(log.Fields{"err": err, "mongoURI": cfg.MongoUri}).Error("mongoclient.ConnectMongoClient failed")
			return nil, err
		}
		s.Query = query.New(client, cfg.MongoCheckIndex)
		s.Pingers = append(s.Pingers, hcRepo.NewMongo(client))
	}

	if cfg.RedisUri != "" {
		c.Info("init redis")
		pool, err := redisclient.ConnectRedis(cfg.RedisUri, cfg.RedisPassword, redisclient.RedisParam{
			PoolMultiplier: cfg.RedisPoolMultiplier,
			Retry:          true,
		})
		if err != nil {
			c.WithFields(log.Fields{"err": err, "redisURI": cfg.RedisUri}).Error("redisclient.ConnectRedis failed")
			return nil, err
		}
		s.Redis = redis.New(cfg.RedisName, metrics.New(cfg.RedisName), pool)
		s.Pingers = append(s.Pingers, hcRepo.NewRedis(s.Redis))
	}

	if cfg.RpcUrl != "" {
		c.WithField("chainId", cfg.ChainId).Info("init chain client")
		client, err := chain.NewClient(c, &chain.ClientCfg{
			RpcUrls: map[domain.ChainId]string{cfg.ChainId: cfg.RpcUrl},
		})
		if err != nil {
			c.WithField("err", err).Warn("chain client started with error")
		}
		s.Chain = client
		if s.EthClient, err = ethclient.DialContext(c, cfg.RpcUrl); err != nil {
			c.WithField("err", err).Warn("ethclient.DialContext failed, ens names will not resolve")
			s.EthClient = nil
		}
	}
	if s.EthClient != nil {
		s.Ens = ens.New(s.EthClient)
	} else {
		s.Ens = ens.New(nil)
	}

	if err := s.buildLedger(c); err != nil {
		return nil, err
	}
	if err := s.buildCache(c); err != nil {
		return nil, err
	}
	s.buildFeeds()

	if s.Redis != nil {
		s.ProxyStore = deploymentRepo.NewProxyRedis(s.Redis)
		ttl := cfg.LockTtl
		if ttl <= 0 {
			ttl = defaultLockTtl
		}
		s.Lock = deploymentRepo.NewRedisLock(s.Redis, ttl)
	} else {
		s.ProxyStore = deploymentRepo.NewProxyMemory()
		s.Lock = deploymentRepo.NewMemoryLock()
	}

	s.Registry = deploymentRepo.NewArtifactRegistry(auctionUsecase.EngineCfg{
		Repo:        s.Ledger,
		Custodian:   s.Custodian,
		Obligations: s.Obligations,
		ProxyStore:  s.ProxyStore,
		Oracle: oracleUsecase.New(&oracleUsecase.AdapterCfg{
			Reader: s.Feeds,
			MaxAge: cfg.OracleMaxAge,
		}),
		MaxRetries:   cfg.MaxRetries,
		BackoffStart: cfg.BackoffStart,
		BackoffLimit: cfg.BackoffLimit,
	})

	notifier := notify.NewLog()
	if cfg.Discord.BotToken != "" {
		d, err := notify.NewDiscord(cfg.Discord)
		if err != nil {
			c.WithField("err", err).Warn("notify.NewDiscord failed, reports go to the log only")
		} else {
			notifier = d
		}
	}

	coordinatorCfg := &deploymentUsecase.CoordinatorCfg{
		Deployer:      cfg.Deployer,
		DeployerNonce: cfg.Nonce,
		Cache:         s.Cache,
		ProxyStore:    s.ProxyStore,
		Registry:      s.Registry,
		Lock:          s.Lock,
		Notifier:      notifier,
	}
	if _, err := deploymentUsecase.Restore(c, coordinatorCfg); err != nil {
		return nil, err
	}
	s.Coordinator = deploymentUsecase.New(coordinatorCfg)
	s.Proxy = proxyUsecase.New(&proxyUsecase.ProxyCfg{
		Cache:      s.Cache,
		ProxyStore: s.ProxyStore,
		Registry:   s.Registry,
	})
	return s, nil
}

func (s *Stack) buildLedger(c ctx.Ctx) error {
	switch strings.ToLower(s.Cfg.LedgerBackend) {
	case "", BackendMemory:
		s.Ledger = auctionRepo.NewMemory()
		s.Obligations = custodyRepo.NewObligationMemory()
	case BackendMongo:
		if s.Query == nil {
			return xerrors.Errorf("ledger.backend mongo needs mongo.uri: %w", domain.ErrInvalidParameters)
		}
		if err := auctionRepo.EnsureIndexes(c, s.Query); err != nil {
			return err
		}
		s.Ledger = auctionRepo.NewMongo(s.Query)
		s.Obligations = custodyRepo.NewObligationMongo(s.Query)
	default:
		return xerrors.Errorf("ledger.backend %q: %w", s.Cfg.LedgerBackend, domain.ErrInvalidParameters)
	}

	switch strings.ToLower(s.Cfg.CustodyBackend) {
	case "", BackendMemory:
		s.Custodian = custodyRepo.NewRegistry()
	case BackendChain:
		if s.Chain == nil {
			return xerrors.Errorf("custody.backend chain needs chain.rpcUrl: %w", domain.ErrInvalidParameters)
		}
		s.Custodian = custodyRepo.NewChain(contract.NewErc721(s.Chain, s.Cfg.ChainId), s.Obligations)
	default:
		return xerrors.Errorf("custody.backend %q: %w", s.Cfg.CustodyBackend, domain.ErrInvalidParameters)
	}
	c.WithFields(log.Fields{
		"ledger":  s.Cfg.LedgerBackend,
		"custody": s.Cfg.CustodyBackend,
	}).Info("ledger ready")
	return nil
}

func (s *Stack) buildCache(c ctx.Ctx) error {
	switch strings.ToLower(s.Cfg.CacheBackend) {
	case "", BackendFile:
		fs := s.Cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		s.Cache = deploymentRepo.NewFileCache(fs, s.Cfg.CachePath)
	case BackendMongo:
		if s.Query == nil {
			return xerrors.Errorf("cache.backend mongo needs mongo.uri: %w", domain.ErrInvalidParameters)
		}
		s.Cache = deploymentRepo.NewMongoCache(s.Query, s.Cfg.CacheObject)
	case BackendGcs:
		opts := []option.ClientOption{}
		if s.Cfg.GcsCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(s.Cfg.GcsCredentials))
		}
		client, err := storage.NewClient(c, opts...)
		if err != nil {
			c.WithField("err", err).Error("storage.NewClient failed")
			return err
		}
		s.Cache = deploymentRepo.NewGcsCache(&deploymentRepo.GcsCacheCfg{
			Client: client,
			Bucket: s.Cfg.CacheBucket,
			Object: s.Cfg.CacheObject,
		})
	default:
		return xerrors.Errorf("cache.backend %q: %w", s.Cfg.CacheBackend, domain.ErrInvalidParameters)
	}
	c.WithField("location", s.Cache.Location()).Info("deployment cache ready")
	return nil
}

// buildFeeds reads feeds on chain when there is one. Without a chain the
// static reader answers, prices are then set by hand.
func (s *Stack) buildFeeds() {
	if s.Chain == nil {
		s.Feeds = oracleRepo.NewStatic()
		return
	}

	var p provider.Provider
	if s.Redis != nil {
		p = redisProvider.NewRedis(s.Redis)
	} else {
		p = primitive.NewPrimitive("priceRound", 8)
	}
	ttl := s.Cfg.OracleRoundTtl
	if ttl <= 0 {
		ttl = defaultRoundTtl
	}
	s.Feeds = chainlink.New(s.Chain, s.Cfg.ChainId, p, ttl)
}
