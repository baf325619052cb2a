package repository

import (
	"sync"
	"sync/atomic"

	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
)

type memoryLock struct {
	mu    sync.Mutex
	flags map[string]*int32
}

// NewMemoryLock serializes operators within one process.
func NewMemoryLock() deployment.Lock {
	return &memoryLock{flags: make(map[string]*int32)}
}

func (l *memoryLock) flag(key string) *int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.flags[key]
	if !ok {
		f = new(int32)
		l.flags[key] = f
	}
	return f
}

func (l *memoryLock) TryLock(c ctx.Ctx, key string) (func(), error) {
	f := l.flag(key)
	if !atomic.CompareAndSwapInt32(f, 0, 1) {
		return nil, domain.ErrUpgradeInProgress
	}
	once := sync.Once{}
	return func() {
		once.Do(func() { atomic.StoreInt32(f, 0) })
	}, nil
}
