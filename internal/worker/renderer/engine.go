package renderer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelstudio/internal/pkg/errors"
)

// Placeholders understood by ExpandArgs.
const (
	VarProject    = "project"
	VarProjectDir = "projectDir"
	VarOutput     = "output"
	VarFPS        = "fps"
	VarWidth      = "width"
	VarHeight     = "height"
)

// ExpandArgs splits template on whitespace and substitutes every {name}
// found in vars. Unknown placeholders are left as they are. Substitution
// happens after splitting, so a path with spaces stays one argument.
func ExpandArgs(template string, vars map[string]string) []string {
	fields := strings.Fields(template)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, "{"+k+"}", v)
		}
		out = append(out, f)
	}
	return out
}

type Options struct {
	Bin              string
	Args             string
	ThumbnailBin     string
	Timeout          time.Duration
	ThumbnailTimeout time.Duration
}

// Engine drives the render engine and the thumbnail extractor.
type Engine struct {
	opts   Options
	runner Runner
}

// NewEngine returns an Engine. A nil runner uses Exec.
func NewEngine(opts Options, runner Runner) *Engine {
	if runner == nil {
		runner = Exec{}
	}
	if opts.ThumbnailBin == "" {
		opts.ThumbnailBin = "ffmpeg"
	}
	return &Engine{opts: opts, runner: runner}
}

type RenderRequest struct {
	ProjectFile string
	Output      string
	FPS         int
	Width       int
	Height      int
}

// Render runs the render engine and checks that the output was produced.
func (e *Engine) Render(ctx context.Context, req RenderRequest) error {
	dir := filepath.Dir(req.ProjectFile)
	args := ExpandArgs(e.opts.Args, map[string]string{
		VarProject:    req.ProjectFile,
		VarProjectDir: dir,
		VarOutput:     req.Output,
		VarFPS:        strconv.Itoa(req.FPS),
		VarWidth:      strconv.Itoa(req.Width),
		VarHeight:     strconv.Itoa(req.Height),
	})

	err := e.runner.Run(ctx, Command{Bin: e.opts.Bin, Args: args, Dir: dir, Timeout: e.opts.Timeout})
	if err != nil {
		return errors.RenderFailure("render", err)
	}
	return expectFile("render", req.Output)
}

// Thumbnail grabs the frame at one second, scaled to 320x240.
func (e *Engine) Thumbnail(ctx context.Context, video, out string) error {
	args := []string{"-y", "-ss", "1", "-i", video, "-frames:v", "1", "-vf", "scale=320:240", out}

	err := e.runner.Run(ctx, Command{
		Bin:     e.opts.ThumbnailBin,
		Args:    args,
		Dir:     filepath.Dir(out),
		Timeout: e.opts.ThumbnailTimeout,
	})
	if err != nil {
		return errors.RenderFailure("thumbnail", err)
	}
	return expectFile("thumbnail", out)
}

func expectFile(stage, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return errors.RenderFailure(stage, errors.Wrap(err, "renderer.output", "expected output missing: "+filepath.Base(path)))
	}
	if st.IsDir() || st.Size() == 0 {
		return errors.RenderFailure(stage, errors.New(errors.CodeInternal, "output is empty: "+filepath.Base(path)))
	}
	return nil
}
