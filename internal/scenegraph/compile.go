// Package scenegraph turns script text into the timed scene list that seeds
// a video project. Compilation is pure: the same script and orientation
// always produce the same scenes.
package scenegraph

import (
	"fmt"
	"strings"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

// SceneDuration is the length in seconds of every compiled scene.
const SceneDuration = 5

// StyleFor returns the caption style for o.
func StyleFor(o models.Orientation) models.SceneStyle {
	if o == models.OrientationHorizontal {
		return models.SceneStyle{FontSize: 32, X: 100, Y: 200}
	}
	return models.SceneStyle{FontSize: 24, X: 50, Y: 300}
}

// PlaceholderImage is the image used for scene index i until an editor
// replaces it.
func PlaceholderImage(o models.Orientation, i int) string {
	return fmt.Sprintf("/placeholders/%s/scene-%d.jpg", o, i+1)
}

// Compile splits script on blank lines and emits one 5-second scene per
// non-empty paragraph, in document order.
func Compile(script string, o models.Orientation) []models.Scene {
	paragraphs := Paragraphs(script)
	style := StyleFor(o)

	scenes := make([]models.Scene, 0, len(paragraphs))
	for i, text := range paragraphs {
		scenes = append(scenes, models.Scene{
			SceneID: fmt.Sprintf("scene-%d", i+1),
			Start:   float64(i * SceneDuration),
			End:     float64((i + 1) * SceneDuration),
			Image:   PlaceholderImage(o, i),
			Text:    text,
			Caption: fmt.Sprintf("Scene %d", i+1),
			Style:   style,
		})
	}
	return scenes
}

// Paragraphs returns the trimmed non-empty paragraphs of text. A line that
// holds only whitespace separates paragraphs.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		out     []string
		current []string
	)
	flush := func() {
		if p := strings.TrimSpace(strings.Join(current, "\n")); p != "" {
			out = append(out, p)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return out
}

// BuildProject assembles the initial project document for a script.
func BuildProject(title, script string, o models.Orientation, audio models.Audio) models.ProjectJSON {
	return models.ProjectJSON{
		Title:  title,
		Scenes: Compile(script, o),
		Audio:  audio,
	}
}

// TotalDuration is the render length in seconds of a scene list.
func TotalDuration(scenes []models.Scene) float64 {
	return float64(len(scenes) * SceneDuration)
}

// Validate checks an edited scene graph: every scene has an id, a
// non-negative start before its end, and scenes are ordered by start
// without overlapping.
func Validate(p models.ProjectJSON) error {
	if len(p.Scenes) == 0 {
		return errors.ValidationField("projectJson.scenes", "at least one scene is required")
	}
	if p.Audio.BGMVolume < 0 || p.Audio.BGMVolume > 1 {
		return errors.ValidationField("projectJson.audio.bgmVolume", "bgmVolume must be between 0 and 1")
	}

	seen := make(map[string]struct{}, len(p.Scenes))
	for i, s := range p.Scenes {
		field := fmt.Sprintf("projectJson.scenes[%d]", i)
		if strings.TrimSpace(s.SceneID) == "" {
			return errors.ValidationField(field+".sceneId", "sceneId is required")
		}
		if _, dup := seen[s.SceneID]; dup {
			return errors.ValidationField(field+".sceneId", "duplicate sceneId "+s.SceneID)
		}
		seen[s.SceneID] = struct{}{}

		if s.Start < 0 || s.Start >= s.End {
			return errors.ValidationField(field, "scene start must be non-negative and before end")
		}
		if i > 0 && s.Start < p.Scenes[i-1].End {
			return errors.ValidationField(field, "scenes must be ordered by start and must not overlap")
		}
	}
	return nil
}
