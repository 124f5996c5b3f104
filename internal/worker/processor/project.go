package processor

import (
	"encoding/json"
	"math"
	"os"

	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/scenegraph"
)

// BuildSpec turns a job into the document the render engine reads.
func BuildSpec(job renderv1.RenderJob, fps int, output string) renderv1.ProjectSpec {
	width, height := job.Orientation.Dimensions()
	seconds := scenegraph.TotalDuration(job.ProjectJSON.Scenes)

	voice := job.VoiceAudioURL
	if voice == "" {
		voice = job.ProjectJSON.Audio.Voice
	}

	audio := job.ProjectJSON.Audio
	audio.Voice = voice

	return renderv1.ProjectSpec{
		VideoID:          job.VideoID,
		Title:            job.ProjectJSON.Title,
		FPS:              fps,
		Width:            width,
		Height:           height,
		DurationSeconds:  seconds,
		DurationInFrames: int(math.Round(seconds * float64(fps))),
		Scenes:           job.ProjectJSON.Scenes,
		Audio:            audio,
		VoiceAudioURL:    voice,
		Output:           output,
	}
}

func writeProject(path string, spec renderv1.ProjectSpec) error {
	b, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "processor.project", "failed to encode project")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "processor.project", "failed to write project file")
	}
	return nil
}
