package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/config"
)

// NewServiceFromConfig builds a Service from cfg. Without an API key the
// service runs on the local generators only.
func NewServiceFromConfig(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*Service, error) {
	if cfg.APIKey == "" {
		if logger != nil {
			logger.Info("ai api key not configured, using local generators")
		}
		return NewService(logger), nil
	}

	gemini, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return NewService(logger,
		WithRemote(NewRemote(gemini)),
		WithTimeout(cfg.Timeout),
		WithRequestsPerMinute(cfg.RequestsPerMinute),
	), nil
}
