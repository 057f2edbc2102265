package app

import (
	"fmt"

	"github.com/hypnosapp/hypnos-backend/internal/clients/elevenlabs"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/storage"
)

type Clients struct {
	Storage storage.Backend
	TTS     elevenlabs.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	backend, err := storage.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init storage backend: %w", err)
	}

	tts, err := elevenlabs.New(log, cfg.ElevenLabsAPIKey)
	if err != nil {
		return Clients{}, fmt.Errorf("init elevenlabs client: %w", err)
	}

	return Clients{
		Storage: backend,
		TTS:     tts,
	}, nil
}
