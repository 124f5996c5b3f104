package voice

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"reelstudio/internal/pkg/errors"
)

const pollySampleRate = 16000

// pollyTTS resolves AWS credentials from the default chain on first use.
type pollyTTS struct {
	region  string
	voiceID string
	client  *http.Client
	store   store

	once sync.Once
	api  *polly.Client
	err  error
}

func (p *pollyTTS) init(ctx context.Context) (*polly.Client, error) {
	p.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(p.region),
			awsconfig.WithHTTPClient(p.client),
		)
		if err != nil {
			p.err = errors.WrapWithCode(err, errors.CodeUnavailable, "voice.polly", "load aws config")
			return
		}
		if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
			p.err = errors.WrapWithCode(err, errors.CodeUnavailable, "voice.polly", "no aws credentials")
			return
		}
		p.api = polly.NewFromConfig(cfg)
	})
	return p.api, p.err
}

func (p *pollyTTS) GenerateVoice(ctx context.Context, text string) (Result, error) {
	if err := validateText(text); err != nil {
		return Result{}, err
	}

	api, err := p.init(ctx)
	if err != nil {
		return Result{}, err
	}

	out, err := api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(p.voiceID),
		OutputFormat: types.OutputFormatPcm,
		SampleRate:   aws.String(strconv.Itoa(pollySampleRate)),
	})
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.CodeUnavailable, "voice.polly", "synthesis failed")
	}
	defer out.AudioStream.Close()

	pcm, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return Result{}, errors.Wrap(err, "voice.polly", "read audio")
	}

	return p.store.save(ctx, EncodeWAV(pcm, pollySampleRate, 1, 16))
}
