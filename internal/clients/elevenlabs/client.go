package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
)

const defaultBaseURL = "https://api.elevenlabs.io/v1"

// Voice settings tuned for calm, hypnotic delivery.
var defaultVoiceSettings = VoiceSettings{
	Stability:       0.75,
	SimilarityBoost: 0.75,
	Style:           0.35,
	UseSpeakerBoost: true,
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type Subscription struct {
	Tier           string `json:"tier"`
	CharacterCount int    `json:"character_count"`
	CharacterLimit int    `json:"character_limit"`
}

func (s *Subscription) Remaining() int {
	return s.CharacterLimit - s.CharacterCount
}

// Client is the speech-synthesis collaborator. GenerateAudio returns
// an opaque audio/mpeg payload for the given text and provider voice.
type Client interface {
	GenerateAudio(ctx context.Context, text, externalVoiceID string) ([]byte, error)
	GetSubscription(ctx context.Context) (*Subscription, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string
	maxRetries int
}

type Option func(*client)

func WithBaseURL(baseURL string) Option {
	return func(c *client) { c.baseURL = baseURL }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) { c.httpClient = httpClient }
}

func New(log *logger.Logger, apiKey string, opts ...Option) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c := &client{
		log:        log.With("client", "ElevenLabs"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		modelID:    "eleven_multilingual_v2",
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) GenerateAudio(ctx context.Context, text, externalVoiceID string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"text":           text,
		"model_id":       c.modelID,
		"voice_settings": defaultVoiceSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts payload: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, externalVoiceID)

	var audio []byte
	err = c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("text-to-speech returned %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retryable(err)
			}
			return err
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return retryable(fmt.Errorf("read audio body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (c *client) GetSubscription(ctx context.Context) (*Subscription, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key not configured")
	}

	var sub Subscription
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("xi-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("user endpoint returned %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retryable(err)
			}
			return err
		}

		var envelope struct {
			Subscription Subscription `json:"subscription"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		sub = envelope.Subscription
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func retryable(err error) error { return retryableError{err: err} }

func (c *client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("Retrying ElevenLabs call", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if _, ok := err.(retryableError); !ok {
			return err
		}
	}
	return lastErr
}
