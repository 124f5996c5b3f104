package processor

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"reelstudio/internal/pkg/errors"
)

// scratch is the per-job working directory. Nothing in it outlives the job.
type scratch struct {
	dir     string
	videoID string
}

func newScratch(root, videoID string) (*scratch, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "processor.scratch", "failed to create scratch root")
	}
	dir := filepath.Join(root, SanitizeFilename(videoID)+"-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "processor.scratch", "failed to create scratch dir")
	}
	return &scratch{dir: dir, videoID: SanitizeFilename(videoID)}, nil
}

func (s *scratch) projectFile() string { return filepath.Join(s.dir, "project.json") }
func (s *scratch) videoFile() string   { return filepath.Join(s.dir, s.videoID+".mp4") }
func (s *scratch) thumbFile() string   { return filepath.Join(s.dir, s.videoID+".jpg") }

// remove deletes the directory and everything in it.
func (s *scratch) remove() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.CleanupFailure(s.dir, err)
	}
	return nil
}
