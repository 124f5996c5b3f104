package handlers

import (
	"net/http"
	"strings"

	"reelstudio/internal/httpkit"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/voice"
)

type synthesizeRequest struct {
	Provider string `json:"provider"`
	Text     string `json:"text"`
	Voice    string `json:"voice"`
}

// SynthesizeVoice renders text to a stored WAV track with the requested
// provider, or the configured default.
func (h *Handler) SynthesizeVoice(w http.ResponseWriter, r *http.Request) error {
	var req synthesizeRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return errors.ValidationField("text", "text is required")
	}

	kind := h.defaultVoice
	if req.Provider != "" {
		k, err := voice.ParseKind(req.Provider)
		if err != nil {
			return err
		}
		kind = k
	}

	if h.voices == nil {
		return errors.Unavailable("voice synthesis")
	}
	gen, err := h.voices(kind, req.Voice)
	if err != nil {
		return err
	}

	res, err := gen.GenerateVoice(r.Context(), req.Text)
	if err != nil {
		return err
	}

	h.log.FromContext(r.Context()).Info("voice synthesized",
		"provider", string(kind),
		"duration_seconds", res.DurationSeconds,
	)
	httpkit.WriteJSON(w, http.StatusOK, res)
	return nil
}
