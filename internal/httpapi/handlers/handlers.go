package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelstudio/internal/httpkit"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/ports"
	"reelstudio/internal/production"
	"reelstudio/internal/repositories"
	"reelstudio/internal/review"
	"reelstudio/internal/voice"
)

// Pinger is satisfied by queue.Broker.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VoiceFactory builds a generator for one synthesize request. voiceName
// may be empty.
type VoiceFactory func(kind voice.Kind, voiceName string) (voice.Generator, error)

type Deps struct {
	Store        repositories.Store
	Broker       Pinger
	SP           ports.StorageProvider
	Production   *production.Service
	Review       *review.Service
	Voices       VoiceFactory
	DefaultVoice voice.Kind
	Log          *logger.Logger
}

type Handler struct {
	store        repositories.Store
	broker       Pinger
	sp           ports.StorageProvider
	production   *production.Service
	review       *review.Service
	voices       VoiceFactory
	defaultVoice voice.Kind
	log          *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.DefaultVoice == "" {
		d.DefaultVoice = voice.KindGoogle
	}
	return &Handler{
		store:        d.Store,
		broker:       d.Broker,
		sp:           d.SP,
		production:   d.Production,
		review:       d.Review,
		voices:       d.Voices,
		defaultVoice: d.DefaultVoice,
		log:          log.WithComponent("http"),
	}
}

// decode reads a JSON body into v. Malformed bodies are validation errors.
func decode(r *http.Request, v any) error {
	if err := httpkit.DecodeJSON(r, v); err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "http.decode", "invalid json body").
			WithField("field", "body")
	}
	return nil
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(r *http.Request, v any) error {
	if err := httpkit.DecodeJSON(r, v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WrapWithCode(err, errors.CodeValidation, "http.decode", "invalid json body").
			WithField("field", "body")
	}
	return nil
}

func videoID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "videoId"))
	if id == "" {
		return "", errors.ValidationField("videoId", "videoId is required")
	}
	return id, nil
}

func userID(r *http.Request) string {
	return logger.UserIDFromContext(r.Context())
}
