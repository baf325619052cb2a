package ctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/auctionproxy/base/log"
)

type testsuite struct {
	suite.Suite
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestWithValue() {
	bg := Background()
	ctx := WithValue(bg, "auctionId", uint64(7))
	ts.Equal(uint64(7), ctx.Value("auctionId"))
}

func (ts *testsuite) TestWithValues() {
	bg := Background()
	ctx := WithValues(bg, map[string]interface{}{
		"proxy":   "0xproxy",
		"version": "V2",
	})
	ts.Equal("0xproxy", ctx.Value("proxy"))
	ts.Equal("V2", ctx.Value("version"))
}

func (ts *testsuite) TestWithLogFieldsKeepsValues() {
	bg := WithValue(Background(), "requestID", "abc")
	ctx := WithLogFields(bg, log.Fields{"caller": "0x01"})
	ts.Equal("abc", ctx.Value("requestID"))
	ts.Nil(ctx.Value("caller"))
}

func (ts *testsuite) TestFrom() {
	parent, cancel := context.WithCancel(context.Background())
	ctx := From(parent)
	cancel()
	<-ctx.Done()
	ts.Equal(context.Canceled, ctx.Err())
}

func (ts *testsuite) TestWithCancel() {
	bg := Background()
	ctx, cancel := WithCancel(bg)
	defer cancel()
	after100Ms := func(ctx context.Context) bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(100 * time.Millisecond):
			return true
		}
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	ts.False(after100Ms(ctx))
}

func (ts *testsuite) TestTimeout() {
	bg := Background()
	ctx, cancel := WithTimeout(bg, 10*time.Millisecond)
	defer cancel()
	<-ctx.Done()
	ts.Equal(context.DeadlineExceeded, ctx.Err())
}
