// Package ids generates the prefixed identifiers used for persisted records.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// New returns "<prefix>_<uuid without dashes>", e.g. vid_4f0c...
func New(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

const (
	PrefixVideo   = "vid"
	PrefixProject = "prj"
	PrefixReview  = "rev"
	PrefixVoice   = "vox"
)
