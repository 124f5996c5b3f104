package minio

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/ports"
)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base (scheme + host) that
	// serves bucket objects. Defaults to the endpoint.
	PublicURL string
}

// Client implements ports.StorageProvider on an S3 compatible bucket.
type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
}

// New connects and makes sure the bucket exists.
func New(ctx context.Context, opt Options) (*Client, error) {
	mc, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.UseSSL,
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.connect", "create minio client")
	}

	exists, err := mc.BucketExists(ctx, opt.Bucket)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.connect", "check bucket "+opt.Bucket)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, opt.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.connect", "create bucket "+opt.Bucket)
		}
	}

	public := strings.TrimRight(opt.PublicURL, "/")
	if public == "" {
		scheme := "http://"
		if opt.UseSSL {
			scheme = "https://"
		}
		public = scheme + opt.Endpoint
	}

	return &Client{mc: mc, bucket: opt.Bucket, publicURL: public}, nil
}

func (c *Client) Provider() string { return "minio" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, errors.ValidationField("object_key", "object_key is required")
	}

	size := in.Size
	if size <= 0 {
		size = -1
	}

	info, err := c.mc.PutObject(ctx, c.bucket, in.ObjectKey, in.Reader, size, minio.PutObjectOptions{
		ContentType: in.ContentType,
	})
	if err != nil {
		return ports.PutObjectOutput{}, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.put", "upload "+in.ObjectKey)
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: info.Size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", 0, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.get", "get "+objectKey)
	}

	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", 0, errors.NotFound("object", objectKey)
		}
		return nil, "", 0, errors.WrapWithCode(err, errors.CodeUnavailable, "minio.get", "stat "+objectKey)
	}

	return obj, st.ContentType, st.Size, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	if err := c.mc.RemoveObject(ctx, c.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "minio.delete", "remove "+objectKey)
	}
	return nil
}

// ObjectKey maps a URL built by PublicURL back to its key.
func (c *Client) ObjectKey(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, c.publicURL+"/"+c.bucket+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (c *Client) PublicURL(objectKey string) string {
	return c.publicURL + "/" + c.bucket + "/" + strings.TrimLeft(objectKey, "/")
}
