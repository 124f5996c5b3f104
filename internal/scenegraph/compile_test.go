package scenegraph

import (
	"reflect"
	"testing"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

func TestParagraphs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \n\t\n", nil},
		{"single", "Hello world", []string{"Hello world"}},
		{"two paragraphs", "One\n\nTwo", []string{"One", "Two"}},
		{"multi-line paragraph", "One a\nOne b\n\nTwo", []string{"One a\nOne b", "Two"}},
		{"crlf and blank runs", "One\r\n\r\n\r\nTwo\r\n", []string{"One", "Two"}},
		{"whitespace line separates", "One\n   \nTwo", []string{"One", "Two"}},
		{"trims paragraphs", "  One  \n\n  Two", []string{"One", "Two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paragraphs(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Paragraphs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompileWindows(t *testing.T) {
	script := "Intro line\n\nMiddle part\nstill middle\n\n\nOutro"
	scenes := Compile(script, models.OrientationVertical)

	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	for i, s := range scenes {
		if s.Start != float64(i*5) || s.End != float64((i+1)*5) {
			t.Errorf("scene %d: window %v-%v", i, s.Start, s.End)
		}
		if i > 0 && s.Start != scenes[i-1].End {
			t.Errorf("scene %d not contiguous with previous", i)
		}
	}
	if scenes[1].Text != "Middle part\nstill middle" {
		t.Errorf("unexpected text %q", scenes[1].Text)
	}
	if scenes[2].Caption != "Scene 3" || scenes[2].SceneID != "scene-3" {
		t.Errorf("unexpected caption/id %q %q", scenes[2].Caption, scenes[2].SceneID)
	}
	if scenes[0].Image != "/placeholders/vertical/scene-1.jpg" {
		t.Errorf("unexpected image %q", scenes[0].Image)
	}
}

func TestCompileStyle(t *testing.T) {
	tests := []struct {
		o    models.Orientation
		want models.SceneStyle
	}{
		{models.OrientationVertical, models.SceneStyle{FontSize: 24, X: 50, Y: 300}},
		{models.OrientationHorizontal, models.SceneStyle{FontSize: 32, X: 100, Y: 200}},
	}

	for _, tt := range tests {
		t.Run(string(tt.o), func(t *testing.T) {
			for _, s := range Compile("a\n\nb", tt.o) {
				if s.Style != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, s.Style)
				}
			}
		})
	}
}

func TestCompileDeterministic(t *testing.T) {
	script := "First\n\nSecond\n\nThird"
	a := Compile(script, models.OrientationHorizontal)
	b := Compile(script, models.OrientationHorizontal)

	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical output for identical input")
	}
	if TotalDuration(a) != 15 {
		t.Errorf("expected 15s duration, got %v", TotalDuration(a))
	}
}

func TestValidate(t *testing.T) {
	good := BuildProject("T", "a\n\nb", models.OrientationVertical, models.Audio{BGMVolume: 0.2})

	tests := []struct {
		name   string
		mutate func(p *models.ProjectJSON)
		field  string
	}{
		{"valid", func(p *models.ProjectJSON) {}, ""},
		{"no scenes", func(p *models.ProjectJSON) { p.Scenes = nil }, "projectJson.scenes"},
		{"start after end", func(p *models.ProjectJSON) { p.Scenes[0].Start = 6 }, "projectJson.scenes[0]"},
		{"overlap", func(p *models.ProjectJSON) { p.Scenes[1].Start = 4 }, "projectJson.scenes[1]"},
		{"duplicate id", func(p *models.ProjectJSON) { p.Scenes[1].SceneID = "scene-1" }, "projectJson.scenes[1].sceneId"},
		{"volume", func(p *models.ProjectJSON) { p.Audio.BGMVolume = 2 }, "projectJson.audio.bgmVolume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			p.Scenes = append([]models.Scene(nil), good.Scenes...)
			tt.mutate(&p)

			err := Validate(p)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid project, got %v", err)
				}
				return
			}
			if !errors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if errors.GetFields(err)["field"] != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, errors.GetFields(err))
			}
		})
	}
}
