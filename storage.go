package knowledgehub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// blobStore is the file-backed store for uploaded document bodies and
// reviewer attachments, addressed by content hash. It is the core's
// stand-in for the networked object store named in the environment
// section: local disk, same content-addressed layout.
type blobStore struct {
	dir string
}

func newBlobStore(dir string) (*blobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &blobStore{dir: dir}, nil
}

// put writes r's content to the blob store and returns its hash and the
// path it was stored at. Content is addressed by SHA-256 so uploading the
// same bytes twice resolves to the same blob path.
func (b *blobStore) put(r io.Reader, ext string) (hash, path string, err error) {
	tmp, err := os.CreateTemp(b.dir, "upload-*")
	if err != nil {
		return "", "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		tmp.Close()
		return "", "", err
	}
	tmp.Close()

	hash = hex.EncodeToString(h.Sum(nil))
	path = filepath.Join(b.dir, hash+ext)

	if _, err := os.Stat(path); err == nil {
		return hash, path, nil // identical content already stored
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", "", err
	}
	return hash, path, nil
}

// delete removes a blob. Failures are the caller's to log and swallow per
// the error-handling policy: blob-store failures during deletion never
// abort the owning row's deletion.
func (b *blobStore) delete(path string) error {
	if path == "" {
		return nil
	}
	return os.Remove(path)
}
