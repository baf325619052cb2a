package repository

import (
	"encoding/json"
	"io/ioutil"
	"time"

	"cloud.google.com/go/storage"
	bCtx "github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"golang.org/x/xerrors"
)

const defaultGcsTimeout = 10 * time.Second

type GcsCacheCfg struct {
	Timeout time.Duration
	Client  *storage.Client
	Bucket  string
	Object  string
}

type gcsCache struct {
	client     *storage.Client
	bucket     string
	object     string
	ctxTimeout time.Duration
}

// NewGcsCache keeps the record in a bucket object. An object only becomes
// visible once its writer closes successfully.
func NewGcsCache(cfg *GcsCacheCfg) deployment.Cache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGcsTimeout
	}
	return &gcsCache{
		client:     cfg.Client,
		bucket:     cfg.Bucket,
		object:     cfg.Object,
		ctxTimeout: timeout,
	}
}

func (gc *gcsCache) Location() string {
	return "gs://" + gc.bucket + "/" + gc.object
}

func (gc *gcsCache) Load(c bCtx.Ctx) (*deployment.Record, error) {
	ctx, cancel := bCtx.WithTimeout(c, gc.ctxTimeout)
	defer cancel()

	rd, err := gc.client.Bucket(gc.bucket).Object(gc.object).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, domain.ErrCacheMissing
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"location": gc.Location(),
		}).Error("NewReader failed")
		return nil, err
	}
	defer rd.Close()

	b, err := ioutil.ReadAll(rd)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"location": gc.Location(),
		}).Error("failed to read")
		return nil, err
	}

	r := &deployment.Record{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, xerrors.Errorf("decode %s: %w", gc.Location(), err)
	}
	return r, nil
}

func (gc *gcsCache) Save(c bCtx.Ctx, r *deployment.Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	ctx, cancel := bCtx.WithTimeout(c, gc.ctxTimeout)
	defer cancel()
	w := gc.client.Bucket(gc.bucket).Object(gc.object).NewWriter(ctx)
	w.ObjectAttrs.ContentType = "application/json"
	if _, err := w.Write(b); err != nil {
		// cancelling before Close discards the upload
		cancel()
		w.Close()
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("failed to write")
		return err
	}
	if err := w.Close(); err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("failed to close writer")
		return err
	}
	return nil
}
