package localfs

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/ports"
)

// URLPrefix is the route the API serves the root directory under.
const URLPrefix = "/uploads/"

// LocalFS implements ports.StorageProvider using the local filesystem.
// It stores objects under a configured root directory.
type LocalFS struct {
	root    string
	baseURL string
}

// New stores under root and builds public URLs as baseURL + /uploads/<key>.
func New(root, baseURL string) *LocalFS {
	return &LocalFS{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalFS) Provider() string { return "localfs" }

// cleanKey rejects keys that would escape the root directory.
func cleanKey(objectKey string) (string, error) {
	key := strings.TrimLeft(strings.ReplaceAll(objectKey, "\\", "/"), "/")
	if key == "" {
		return "", errors.ValidationField("object_key", "object_key is required")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", errors.ValidationField("object_key", "object_key must not contain ..")
		}
	}
	return path.Clean(key), nil
}

func (l *LocalFS) path(objectKey string) (string, error) {
	key, err := cleanKey(objectKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	dst, err := l.path(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, errors.Wrap(err, "localfs.put", "create directory")
	}

	// Committed by rename: readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return ports.PutObjectOutput{}, errors.Wrap(err, "localfs.put", "create file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, in.Reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ports.PutObjectOutput{}, errors.Wrap(err, "localfs.put", "write object")
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return ports.PutObjectOutput{}, errors.Wrap(err, "localfs.put", "commit object")
	}

	key, _ := cleanKey(in.ObjectKey)
	return ports.PutObjectOutput{ObjectKey: key, Size: n}, nil
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	p, err := l.path(objectKey)
	if err != nil {
		return nil, "", 0, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", 0, errors.NotFound("object", objectKey)
		}
		return nil, "", 0, errors.Wrap(err, "localfs.get", "open object")
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, "", 0, errors.Wrap(err, "localfs.get", "stat object")
	}
	if st.IsDir() {
		f.Close()
		return nil, "", 0, errors.NotFound("object", objectKey)
	}
	size = st.Size()

	// Prefer extension-based type. If empty, sniff first bytes.
	contentType = mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		_, _ = f.Seek(0, 0)
		contentType = http.DetectContentType(buf[:n])
	}

	return f, contentType, size, nil
}

func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := l.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "localfs.delete", "remove object")
	}
	return nil
}

// ObjectKey maps a URL built by PublicURL back to its key.
func (l *LocalFS) ObjectKey(publicURL string) (string, bool) {
	rest, ok := strings.CutPrefix(publicURL, l.baseURL+URLPrefix)
	if !ok {
		return "", false
	}
	key, err := cleanKey(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

func (l *LocalFS) PublicURL(objectKey string) string {
	key, err := cleanKey(objectKey)
	if err != nil {
		return ""
	}
	return l.baseURL + URLPrefix + key
}
