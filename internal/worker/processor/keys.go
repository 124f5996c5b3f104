package processor

import (
	"fmt"
	"strings"
)

// OutputKeys are the storage object keys of a render's artifacts.
type OutputKeys struct {
	Video string
	Thumb string
}

func GenerateOutputKeys(videoID string) OutputKeys {
	name := SanitizeFilename(videoID)
	return OutputKeys{
		Video: fmt.Sprintf("videos/%s.mp4", name),
		Thumb: fmt.Sprintf("thumbnails/%s.jpg", name),
	}
}

// SanitizeFilename makes s safe to use as a single path element.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "video"
	}
	return s
}

// truncate cuts msg to at most n bytes without splitting a UTF-8 sequence.
func truncate(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	cut := n
	for cut > 0 && !utf8Start(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
