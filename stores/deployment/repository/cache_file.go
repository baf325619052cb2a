package repository

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/x-xyz/auctionproxy/base/ctx"
	"github.com/x-xyz/auctionproxy/base/log"
	"github.com/x-xyz/auctionproxy/domain"
	"github.com/x-xyz/auctionproxy/domain/deployment"
	"golang.org/x/xerrors"
)

type fileCache struct {
	fs   afero.Fs
	path string
}

// NewFileCache keeps the record as a JSON file. Writes go to a temp file in
// the same directory that is renamed over the old record, so readers see
// either the old or the new record in full.
func NewFileCache(fs afero.Fs, path string) deployment.Cache {
	if path == "" {
		path = deployment.DefaultCacheFile
	}
	return &fileCache{fs, path}
}

func (fc *fileCache) Location() string {
	return fc.path
}

func (fc *fileCache) Load(c ctx.Ctx) (*deployment.Record, error) {
	b, err := afero.ReadFile(fc.fs, fc.path)
	if os.IsNotExist(err) {
		return nil, domain.ErrCacheMissing
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"path": fc.path,
		}).Error("afero.ReadFile failed")
		return nil, err
	}

	r := &deployment.Record{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, xerrors.Errorf("decode %s: %w", fc.path, err)
	}
	return r, nil
}

func (fc *fileCache) Save(c ctx.Ctx, r *deployment.Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fc.path)
	if err := fc.fs.MkdirAll(dir, 0755); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"dir": dir,
		}).Error("fs.MkdirAll failed")
		return err
	}

	tmp, err := afero.TempFile(fc.fs, dir, "."+filepath.Base(fc.path)+".*")
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"dir": dir,
		}).Error("afero.TempFile failed")
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		fc.fs.Remove(tmpName)
		c.WithFields(log.Fields{
			"err":  err,
			"path": tmpName,
		}).Error("tmp.Write failed")
		return err
	}
	if err := tmp.Close(); err != nil {
		fc.fs.Remove(tmpName)
		return err
	}
	if err := fc.fs.Rename(tmpName, fc.path); err != nil {
		fc.fs.Remove(tmpName)
		c.WithFields(log.Fields{
			"err":  err,
			"path": fc.path,
		}).Error("fs.Rename failed")
		return err
	}
	return nil
}
