package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"
)

// GameConfig holds the tunables for the Crazy engine. Rule-mandated numbers
// (penalty sizes, wild ranks) live in the domain package; everything here may
// vary per deployment.
type GameConfig struct {
	InitialHandSize   int                 `json:"initial_hand_size"`
	InactivitySeconds int64               `json:"inactivity_seconds"`
	Scoring           domain.ScoreWeights `json:"scoring"`
}

// Default returns the configuration used when no file is loaded.
func Default() *GameConfig {
	return &GameConfig{
		InitialHandSize:   5,
		InactivitySeconds: 300,
		Scoring:           domain.DefaultScoreWeights(),
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path, once.
// On failure the defaults stay in effect and the error is returned for the
// caller to log.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		cfg = Default()
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		c := Default()
		if err := json.Unmarshal(data, c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = c
	})
	return loadErr
}

// Get returns the loaded configuration, or defaults when nothing was loaded.
func Get() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}
