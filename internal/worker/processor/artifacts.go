package processor

import (
	"context"
	"os"

	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/ports"
)

type artifact struct {
	path      string
	objectKey string
	mime      string
}

// upload stores a local file and returns its public URL.
func upload(ctx context.Context, sp ports.StorageProvider, a artifact) (string, error) {
	st, err := os.Stat(a.path)
	if err != nil {
		return "", errors.Wrap(err, "processor.upload", "artifact file not found")
	}

	f, err := os.Open(a.path)
	if err != nil {
		return "", errors.Wrap(err, "processor.upload", "failed to open artifact")
	}
	defer f.Close()

	out, err := sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   a.objectKey,
		ContentType: a.mime,
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", errors.Wrap(err, "processor.upload", "failed to upload "+a.objectKey)
	}
	return sp.PublicURL(out.ObjectKey), nil
}
