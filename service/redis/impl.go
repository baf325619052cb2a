package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/metrics"
	"github.com/x-xyz/auctionproxy/domain/keys"
)

const (
	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2

	// retTTLNoExpire is the return value of TTL when the key exists but has
	// no associated expire
	retTTLNoExpire = -1
)

var delIfEqualScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redImpl struct {
	name string
	met  metrics.Service
	pool *redis.Pool
}

// New wraps a connection pool
func New(name string, met metrics.Service, pool *redis.Pool) Service {
	return &redImpl{
		name: name,
		met:  met,
		pool: pool,
	}
}

func (r *redImpl) getConn() (redis.Conn, error) {
	defer r.met.BumpTime("getconn.time", "cluster", r.name).End()
	conn := r.pool.Get()
	if err := conn.Err(); err != nil {
		r.met.BumpSum("getConn.err", 1, "cluster", r.name)
		return nil, err
	}
	return conn, nil
}

func (r *redImpl) closeConn(conn redis.Conn) {
	// closing asap keeps the number of connections the pool juggles low
	if err := conn.Close(); err != nil {
		r.met.BumpSum("conn.Close.err", 1, "cluster", r.name)
	}
}

func (r *redImpl) connDo(commandName string, args ...interface{}) (interface{}, error) {
	conn, err := r.getConn()
	if err != nil {
		return nil, err
	}
	defer r.closeConn(conn)
	return conn.Do(commandName, args...)
}

func (r *redImpl) tags(fn, key string) []string {
	return []string{"func", fn, "cluster", r.name, "prefix", keys.GetPrefix(key)}
}

func (r *redImpl) Get(context ctx.Ctx, key string) ([]byte, error) {
	tags := r.tags("get", key)
	defer r.met.BumpTime("time", tags...).End()

	val, err := redis.Bytes(r.connDo("GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	} else if err != nil {
		context.WithField("err", err).Error("GET redis failed")
		return nil, err
	}
	r.met.BumpHistogram("bytes", float64(len(val)), tags...)
	return val, nil
}

func (r *redImpl) Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error {
	tags := r.tags("set", key)
	defer r.met.BumpTime("time", tags...).End()
	r.met.BumpHistogram("bytes", float64(len(val)), tags...)

	args := []interface{}{key, val}
	if expire != Forever {
		args = append(args, "PX", int(expire/time.Millisecond))
	}
	if _, err := r.connDo("SET", args...); err != nil {
		context.WithField("err", err).Error("set redis failed")
		return err
	}
	return nil
}

func (r *redImpl) SetNX(context ctx.Ctx, key string, val []byte, expire time.Duration) (bool, error) {
	defer r.met.BumpTime("time", r.tags("setnx", key)...).End()

	args := []interface{}{key, val, "NX"}
	if expire != Forever {
		args = append(args, "PX", int(expire/time.Millisecond))
	}
	_, err := redis.String(r.connDo("SET", args...))
	if err == redis.ErrNil {
		return false, nil
	} else if err != nil {
		context.WithField("err", err).Error("SetNX redis failed")
		return false, err
	}
	return true, nil
}

func (r *redImpl) Del(context ctx.Ctx, ks ...string) (int, error) {
	if len(ks) == 0 {
		return 0, fmt.Errorf("length of keys is 0")
	}
	defer r.met.BumpTime("time", r.tags("del", ks[0])...).End()

	res, err := redis.Int(r.connDo("DEL", redis.Args{}.AddFlat(ks)...))
	if err != nil {
		context.WithField("err", err).Error("DEL redis failed")
		return 0, err
	}
	return res, nil
}

func (r *redImpl) DelIfEqual(context ctx.Ctx, key string, val []byte) (bool, error) {
	defer r.met.BumpTime("time", r.tags("delifequal", key)...).End()

	conn, err := r.getConn()
	if err != nil {
		return false, err
	}
	defer r.closeConn(conn)

	n, err := redis.Int(delIfEqualScript.Do(conn, key, val))
	if err != nil {
		context.WithField("err", err).Error("DelIfEqual redis failed")
		return false, err
	}
	return n == 1, nil
}

func (r *redImpl) expire(context ctx.Ctx, key string, expire time.Duration) error {
	var err error
	if expire == Forever {
		_, err = r.connDo("PERSIST", key)
	} else {
		_, err = r.connDo("PEXPIRE", key, int(expire/time.Millisecond))
	}
	if err != nil {
		context.WithField("err", err).Error("expire redis key failed")
	}
	return err
}

func (r *redImpl) HSet(context ctx.Ctx, key, field string, val []byte, expire time.Duration) error {
	tags := r.tags("hset", key)
	defer r.met.BumpTime("time", tags...).End()
	r.met.BumpHistogram("bytes", float64(len(val)), tags...)

	if _, err := r.connDo("HSET", key, field, val); err != nil {
		context.WithField("err", err).Error("Hset redis failed")
		return err
	}
	return r.expire(context, key, expire)
}

// HSetNX sets field only if it does not exist yet and reports whether it did.
func (r *redImpl) HSetNX(context ctx.Ctx, key, field string, val []byte, expire time.Duration) (bool, error) {
	defer r.met.BumpTime("time", r.tags("hsetnx", key)...).End()

	ok, err := redis.Bool(r.connDo("HSETNX", key, field, val))
	if err != nil {
		context.WithField("err", err).Error("HSetNX redis failed")
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, r.expire(context, key, expire)
}

func (r *redImpl) HGetAll(context ctx.Ctx, key string) (map[string][]byte, error) {
	defer r.met.BumpTime("time", r.tags("hgetall", key)...).End()

	vals, err := ByteMap(r.connDo("HGETALL", key))
	if err != nil {
		context.WithField("err", err).Error("HGetAll redis failed")
		return nil, err
	}
	if len(vals) == 0 {
		return vals, ErrNotFound
	}
	return vals, nil
}

// Exists Returns if the key exists.
func (r *redImpl) Exists(context ctx.Ctx, key string) (bool, error) {
	defer r.met.BumpTime("time", r.tags("exists", key)...).End()
	res, err := redis.Bool(r.connDo("EXISTS", key))
	if err != nil {
		context.WithField("err", err).Error("Exists redis failed")
	}
	return res, err
}

func (r *redImpl) TTL(context ctx.Ctx, key string) (int, error) {
	defer r.met.BumpTime("time", r.tags("ttl", key)...).End()
	res, err := redis.Int(r.connDo("TTL", key))
	if err != nil {
		context.WithField("err", err).Error("TTL redis failed")
		return 0, err
	}

	if res == retTTLNoKey {
		return res, ErrNotFound
	} else if res == retTTLNoExpire {
		return res, ErrNoTTL
	}
	return res, nil
}

// ByteMap converts an array of []byte (alternating key, value) into a
// map[string][]byte, the reply format of HGETALL.
func ByteMap(result interface{}, err error) (map[string][]byte, error) {
	values, err := redis.Values(result, err)
	if err != nil {
		return nil, err
	}
	if len(values)%2 != 0 {
		return nil, errors.New("redigo: ByteMap expects even number of values result")
	}
	m := make(map[string][]byte, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, okKey := values[i].([]byte)
		value, okValue := values[i+1].([]byte)
		if !okKey || !okValue {
			return nil, errors.New("redigo: ByteMap key not a bulk string value")
		}
		m[string(key)] = value
	}
	return m, nil
}
