package mongoclient

import (
	"context"
	"crypto/tls"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/x-xyz/auctionproxy/base/log"
)

const (
	socketTimeout  = 30 * time.Second
	connectTimeout = 10 * time.Second
	// a ledger write and an obligation write may run side by side per request
	minPoolPerHost = 2
)

// Client is a connected driver client bound to the service database.
type Client struct {
	DbName string
	*mongo.Client
}

// MustConnectMongoClient is ConnectMongoClient for tests and tools that
// cannot run without the database.
func MustConnectMongoClient(uri, authDBName, dbName string, ssl, majority bool, poolSizeMultiplier float64) *Client {
	cli, err := ConnectMongoClient(uri, authDBName, dbName, ssl, majority, poolSizeMultiplier)
	if err != nil {
		log.Log().WithFields(log.Fields{"mongoURI": uri, "err": err}).Panic("mongoclient.ConnectMongoClient failed")
	}
	return cli
}

// ConnectMongoClient dials uri and pings the primary. With majority set the
// ledger's compare-and-swap writes are acknowledged by a majority, so an
// accepted bid survives a failover.
func ConnectMongoClient(uri, authDBName, dbName string, ssl, majority bool, poolSizeMultiplier float64) (*Client, error) {
	cs, err := connstring.Parse(uri)
	if err != nil {
		log.Log().WithFields(log.Fields{
			"dbName": dbName,
			"err":    err,
		}).Error("connstring.Parse failed")
		return nil, err
	}

	opts := clientOptions(uri, cs, authDBName, ssl, majority, poolSizeMultiplier)
	l := log.Log().WithFields(log.Fields{
		"mongoHosts": cs.Hosts,
		"dbName":     dbName,
		"poolSize":   *opts.MaxPoolSize,
	})

	c, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(c, opts)
	if err != nil {
		l.WithField("err", err).Error("mongo.Connect failed")
		return nil, err
	}
	if err := client.Ping(c, readpref.Primary()); err != nil {
		l.WithField("err", err).Error("client.Ping failed")
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	l.Info("mongo connected")
	return &Client{
		Client: client,
		DbName: dbName,
	}, nil
}

func clientOptions(uri string, cs connstring.ConnString, authDBName string, ssl, majority bool, poolSizeMultiplier float64) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetSocketTimeout(socketTimeout).
		SetRetryWrites(true)

	// credentials in the uri without authSource authenticate against authDBName
	if cs.Username != "" && cs.AuthSource == "" {
		opts.SetAuth(options.Credential{
			AuthMechanism:           cs.AuthMechanism,
			AuthMechanismProperties: cs.AuthMechanismProperties,
			Username:                cs.Username,
			Password:                cs.Password,
			PasswordSet:             cs.PasswordSet,
			AuthSource:              authDBName,
		})
	}

	size := poolSize(runtime.NumCPU(), len(cs.Hosts), poolSizeMultiplier)
	opts.SetMaxPoolSize(size)
	opts.SetMinPoolSize(size / 4)

	if ssl {
		opts.SetTLSConfig(&tls.Config{})
	}
	if majority {
		opts.SetWriteConcern(writeconcern.New(writeconcern.WMajority()))
	}
	return opts
}

// poolSize splits cpus*multiplier connections over the hosts, each host
// keeps its own pool.
func poolSize(cpus, hosts int, multiplier float64) uint64 {
	if hosts < 1 {
		hosts = 1
	}
	total := int(float64(cpus) * multiplier)
	perHost := (total + hosts - 1) / hosts
	if perHost < minPoolPerHost {
		perHost = minPoolPerHost
	}
	return uint64(perHost)
}
