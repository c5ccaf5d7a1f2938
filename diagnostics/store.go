package diagnostics

import (
	"labflux.com/lfx/utils"
	"fmt"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirStore writes snapshots under Root/<tid>/.
type DirStore struct {
	Root string
}

func (store *DirStore) Export(snapshot Snapshot) error {
	artifacts, err := files(snapshot)
	if err != nil {
		return err
	}
	dir := filepath.Join(store.Root, snapshotDir(snapshot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create diagnostics dir %s: %w", dir, err)
	}
	for _, f := range artifacts {
		target := filepath.Join(dir, f.name)
		if err := os.WriteFile(target, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}
	return nil
}

// Uploader is the part of the S3 client the store needs.
type Uploader interface {
	Upload(data string, key string) (*s3manager.UploadOutput, error)
}

// S3Store uploads snapshots under Prefix/<tid>/ in the configured bucket.
type S3Store struct {
	Prefix string
	Client Uploader
}

func (store *S3Store) Export(snapshot Snapshot) error {
	artifacts, err := files(snapshot)
	if err != nil {
		return err
	}
	for _, f := range artifacts {
		key := path.Join(store.Prefix, snapshotDir(snapshot), f.name)
		if _, err := store.Client.Upload(string(f.data), key); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}
	return nil
}

// snapshotDir names the per request directory. Tids come from request headers,
// so anything that is not a single plain path element is replaced by its hash.
func snapshotDir(snapshot Snapshot) string {
	tid := snapshot.Tid
	switch {
	case tid == "":
		return "untracked"
	case tid == "." || tid == ".." || strings.ContainsAny(tid, `/\:`) || strings.ContainsRune(tid, 0):
		return "tid_" + utils.Fingerprint(tid)
	}
	return tid
}
