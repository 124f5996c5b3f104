// Package gdrive stores render artifacts in a Google Drive folder. Drive
// assigns its own file ids, so PutObject returns the file id as the key for
// every later call; the requested key is kept as the file name and in
// appProperties.
package gdrive

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/ports"
)

const objectKeyProperty = "reelstudioKey"

type Client struct {
	srv      *drive.Service
	folderID string
	public   bool
}

// NewClient uploads into folderID. With public set, every upload is shared
// as "anyone with the link can read" so PublicURL works without auth.
func NewClient(srv *drive.Service, folderID string, public bool) *Client {
	return &Client{srv: srv, folderID: folderID, public: public}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, errors.ValidationField("object_key", "object_key is required")
	}

	meta := &drive.File{
		Name:          in.ObjectKey,
		MimeType:      in.ContentType,
		AppProperties: map[string]string{objectKeyProperty: in.ObjectKey},
	}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	var media []googleapi.MediaOption
	if in.ContentType != "" {
		media = append(media, googleapi.ContentType(in.ContentType))
	}
	created, err := c.srv.Files.Create(meta).
		Media(in.Reader, media...).
		Fields("id", "size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return ports.PutObjectOutput{}, mapErr(err, "gdrive.put", in.ObjectKey)
	}

	if c.public {
		perm := &drive.Permission{Type: "anyone", Role: "reader"}
		if _, err := c.srv.Permissions.Create(created.Id, perm).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
			return ports.PutObjectOutput{}, mapErr(err, "gdrive.share", created.Id)
		}
	}

	size := created.Size
	if size == 0 {
		size = in.Size
	}
	return ports.PutObjectOutput{ObjectKey: created.Id, Size: size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	resp, err := c.srv.Files.Get(objectKey).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, "", 0, mapErr(err, "gdrive.get", objectKey)
	}
	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

// DeleteObject treats an already missing file as deleted.
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	err := mapErr(c.srv.Files.Delete(objectKey).SupportsAllDrives(true).Context(ctx).Do(), "gdrive.delete", objectKey)
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}

const downloadURL = "https://drive.google.com/uc?export=download&id="

// PublicURL is the direct-download link for a Drive file id.
func (c *Client) PublicURL(objectKey string) string {
	return downloadURL + url.QueryEscape(objectKey)
}

// ObjectKey extracts the file id from a PublicURL link.
func (c *Client) ObjectKey(publicURL string) (string, bool) {
	if !strings.HasPrefix(publicURL, "https://drive.google.com/uc?") {
		return "", false
	}
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", false
	}
	id := u.Query().Get("id")
	return id, id != ""
}

func mapErr(err error, op, key string) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return errors.NotFound("object", key)
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.WrapWithCode(err, errors.CodeForbidden, op, "drive rejected credentials")
		}
	}
	return errors.WrapWithCode(err, errors.CodeUnavailable, op, "drive request failed")
}
