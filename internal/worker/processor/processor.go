// Package processor runs one render job end to end: materialize the
// project, render, extract a thumbnail, publish the artifacts and record
// the outcome on the video.
package processor

import (
	"context"
	"os"

	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/ports"
	"reelstudio/internal/worker/renderer"
)

// MaxErrorLength bounds the failure message stored on a video.
const MaxErrorLength = 2000

// Store is the slice of the repositories the worker writes to.
type Store interface {
	SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error)
	CompleteRender(ctx context.Context, id, videoURL, thumbnailURL string) error
	FailRender(ctx context.Context, id, msg string) error
	SetProjectStatus(ctx context.Context, videoID string, status models.ProjectStatus, updatedBy string) error
}

type Renderer interface {
	Render(ctx context.Context, req renderer.RenderRequest) error
	Thumbnail(ctx context.Context, video, out string) error
}

type Deps struct {
	Store      Store
	Renderer   Renderer
	SP         ports.StorageProvider
	ScratchDir string
	FPS        int
	Log        *logger.Logger
}

type Processor struct {
	store      Store
	renderer   Renderer
	sp         ports.StorageProvider
	scratchDir string
	fps        int
	log        *logger.Logger
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.ScratchDir == "" {
		d.ScratchDir = os.TempDir()
	}
	if d.FPS <= 0 {
		d.FPS = 30
	}

	return &Processor{
		store:      d.Store,
		renderer:   d.Renderer,
		sp:         d.SP,
		scratchDir: d.ScratchDir,
		fps:        d.FPS,
		log:        log.WithComponent("processor"),
	}
}

// Handle renders job. Once the video is known, every failure is recorded
// on it as FAILED before the error is returned; the scratch directory is
// removed in all cases. Artifacts of the previous render that the new
// upload did not overwrite are deleted after the video points at the new
// ones.
func (p *Processor) Handle(ctx context.Context, job renderv1.RenderJob) error {
	if err := job.Validate(); err != nil {
		return errors.Wrap(err, "processor.decode", "invalid render job")
	}

	log := p.log.FromContext(ctx).WithVideoID(job.VideoID)

	prev, err := p.store.SetVideoStatus(ctx, job.VideoID, models.StatusAIProcessing)
	if err != nil {
		err = errors.Wrap(err, "processor.status", "failed to mark video as processing")
		if errors.IsNotFound(err) {
			return err
		}
		return p.fail(ctx, job.VideoID, err)
	}

	sc, err := newScratch(p.scratchDir, job.VideoID)
	if err != nil {
		return p.fail(ctx, job.VideoID, err)
	}
	defer func() {
		if cerr := sc.remove(); cerr != nil {
			log.Warn("scratch cleanup failed",
				"code", string(errors.CodeCleanupFailure),
				"path", sc.dir,
				"error", cerr.Error(),
			)
		}
	}()

	spec := BuildSpec(job, p.fps, sc.videoFile())
	log.Debug("writing project", "dir", sc.dir, "frames", spec.DurationInFrames)
	if err := writeProject(sc.projectFile(), spec); err != nil {
		return p.fail(ctx, job.VideoID, err)
	}

	log.Info("starting render",
		"scenes", len(spec.Scenes),
		"width", spec.Width,
		"height", spec.Height,
	)
	err = p.renderer.Render(ctx, renderer.RenderRequest{
		ProjectFile: sc.projectFile(),
		Output:      sc.videoFile(),
		FPS:         spec.FPS,
		Width:       spec.Width,
		Height:      spec.Height,
	})
	if err != nil {
		return p.fail(ctx, job.VideoID, err)
	}
	log.Debug("render completed")

	if err := p.renderer.Thumbnail(ctx, sc.videoFile(), sc.thumbFile()); err != nil {
		return p.fail(ctx, job.VideoID, err)
	}
	log.Debug("thumbnail extracted")

	keys := GenerateOutputKeys(job.VideoID)
	videoURL, err := upload(ctx, p.sp, artifact{path: sc.videoFile(), objectKey: keys.Video, mime: "video/mp4"})
	if err != nil {
		return p.fail(ctx, job.VideoID, err)
	}
	thumbURL, err := upload(ctx, p.sp, artifact{path: sc.thumbFile(), objectKey: keys.Thumb, mime: "image/jpeg"})
	if err != nil {
		return p.fail(ctx, job.VideoID, err)
	}
	log.Debug("artifacts uploaded", "video", keys.Video, "thumb", keys.Thumb)

	if err := p.store.CompleteRender(ctx, job.VideoID, videoURL, thumbURL); err != nil {
		return p.fail(ctx, job.VideoID, errors.Wrap(err, "processor.complete", "failed to record render"))
	}
	if err := p.store.SetProjectStatus(ctx, job.VideoID, models.StatusDraftReady, ""); err != nil && !errors.IsNotFound(err) {
		log.LogError(ctx, "failed to mark project as draft ready", err)
	}
	p.removeSuperseded(ctx, log, prev.VideoURL, videoURL)
	p.removeSuperseded(ctx, log, prev.ThumbnailURL, thumbURL)

	log.Info("render published", "video_url", videoURL)
	return nil
}

// removeSuperseded deletes the object behind oldURL when a render replaced
// it with an object at a different URL. Failures are logged and ignored.
func (p *Processor) removeSuperseded(ctx context.Context, log *logger.Logger, oldURL, newURL string) {
	if oldURL == "" || oldURL == newURL {
		return
	}
	key, ok := p.sp.ObjectKey(oldURL)
	if !ok {
		return
	}
	if err := p.sp.DeleteObject(ctx, key); err != nil {
		log.Warn("failed to delete superseded artifact", "key", key, "error", err.Error())
		return
	}
	log.Debug("superseded artifact deleted", "key", key)
}

// fail records cause on the video and returns it. The project is left as
// it was.
func (p *Processor) fail(ctx context.Context, videoID string, cause error) error {
	log := p.log.FromContext(ctx).WithVideoID(videoID)

	msg := truncate(cause.Error(), MaxErrorLength)

	var appErr *errors.Error
	if errors.As(cause, &appErr) {
		log.Error("render failed",
			"code", string(appErr.Code),
			"op", appErr.Op,
			"message", appErr.Message,
		)
	} else {
		log.Error("render failed", "error", msg)
	}

	if err := p.store.FailRender(context.WithoutCancel(ctx), videoID, msg); err != nil {
		log.LogError(ctx, "failed to record render failure", err)
	}
	return cause
}
