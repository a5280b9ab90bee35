package nakama

import (
	"context"
	"database/sql"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const defaultConfigPath = "data/crazy_config.json"

// InitModule wires the Crazy RPC surface for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	path := defaultConfigPath
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if p := env["crazy_config_path"]; p != "" {
			path = p
		}
	}
	if err := config.LoadGameConfig(path); err != nil {
		logger.Warn("using default game config: %v", err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	logger.Info("Crazy Go module loaded.")
	return nil
}
