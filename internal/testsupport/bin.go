// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StubBinary writes an executable shell script named name into a temp bin
// directory and returns its absolute path. body is the script without the
// shebang line.
func StubBinary(t testing.TB, name, body string) string {
	t.Helper()

	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	script := "#!/bin/sh\n" + strings.TrimLeft(body, "\n")
	if !strings.HasSuffix(script, "\n") {
		script += "\n"
	}
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// Scripts for the render engine and thumbnail extractor stubs. The render
// stub writes to the argument following --out, the thumbnail stub to its
// last argument.
const (
	RenderOK = `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--out" ]; then out="$2"; fi
  shift
done
printf 'mp4' > "$out"
`
	ThumbnailOK = `for last; do :; done
printf 'jpg' > "$last"
`
	Fail = `echo "engine exploded" >&2
exit 3
`
)

// RenderArgs is a RENDER_ARGS template matching RenderOK.
const RenderArgs = "--props {project} --out {output} --fps {fps} --size {width}x{height}"
