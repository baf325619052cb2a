package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/auctionproxy/app/stack"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
)

const usage = `usage: deployer [flags] <command>

commands:
  deploy     deploy the proxy with the first implementation
  upgrade    install the next implementation behind the proxy
  set-feed   point the price feed at --feed (address or ens name)
  status     print the deployment record and proxy state

flags:
`

var (
	configFile = pflag.String("config", "infra/configs/config.yaml", "config file")
	admin      = pflag.String("admin", "", "proxy admin, defaults to deployer.address")
	caller     = pflag.String("caller", "", "account calling set-feed, defaults to deployer.address")
	feed       = pflag.String("feed", "", "price feed address or ens name, e.g. eth-usd.data.eth")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
	if err := log.SetLevel(viper.GetString("log.level")); err != nil {
		log.Log().WithField("err", err).Warn("invalid log level, keeping the default")
	}
	defer log.Sync()

	c := ctx.WithValue(ctx.Background(), "command", pflag.Arg(0))
	cfg := stack.LoadConfig()
	st, err := stack.Build(c, cfg)
	if err != nil {
		c.WithField("err", err).Error("stack.Build failed")
		os.Exit(1)
	}

	out, err := run(c, st, pflag.Arg(0))
	if err != nil {
		var cerr *deployment.CacheError
		if errors.As(err, &cerr) {
			// the chain side went through, only the record is stale
			c.WithFields(log.Fields{
				"err":      err,
				"location": cerr.Location,
			}).Error("deployment succeeded but the record was not saved, fix the cache by hand")
		} else {
			c.WithField("err", err).Error("command failed")
		}
		if out == nil {
			os.Exit(1)
		}
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
	if err != nil {
		os.Exit(1)
	}
}

func run(c ctx.Ctx, st *stack.Stack, command string) (interface{}, error) {
	switch command {
	case "deploy":
		a := domain.Address(*admin)
		if a.IsEmpty() {
			a = st.Cfg.Deployer
		}
		return record(st.Coordinator.Deploy(c, deployment.DeployParams{Admin: a, ChainId: st.Cfg.ChainId}))

	case "upgrade":
		return record(st.Coordinator.Upgrade(c))

	case "set-feed":
		f, err := st.Ens.Resolve(c, *feed)
		if err != nil {
			return nil, err
		}
		who := domain.Address(*caller)
		if who.IsEmpty() {
			who = st.Cfg.Deployer
		}
		return record(st.Coordinator.SetFeed(c, who.ToLower(), f))

	case "status":
		rec, state, err := st.Coordinator.Status(c)
		if err != nil {
			return nil, err
		}
		return struct {
			Record *deployment.Record     `json:"record"`
			Proxy  *deployment.ProxyState `json:"proxy"`
		}{rec, state}, nil
	}
	return nil, fmt.Errorf("unknown command %q", command)
}

// record keeps a nil record from turning into a non-nil interface.
func record(r *deployment.Record, err error) (interface{}, error) {
	if r == nil {
		return nil, err
	}
	return r, err
}
