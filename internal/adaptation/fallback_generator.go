package adaptation

import (
	"context"
	"log/slog"
)

// FallbackGenerator wraps a primary text generator with a fallback provider.
// If the primary fails, it automatically retries with the fallback.
type FallbackGenerator struct {
	primary  TextGenerator
	fallback TextGenerator
	logger   *slog.Logger
}

// NewFallbackGenerator creates a fallback-enabled generator. If fallback is
// nil, only the primary provider is used.
func NewFallbackGenerator(primary, fallback TextGenerator, logger *slog.Logger) *FallbackGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackGenerator{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Generate sends the request to the primary generator and, if it fails and a
// fallback is configured, retries with the fallback.
func (g *FallbackGenerator) Generate(ctx context.Context, req TextRequest) (TextResponse, error) {
	resp, err := g.primary.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}

	g.logger.Warn("primary text generator failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", g.fallback != nil,
	)

	if g.fallback == nil {
		return TextResponse{}, err
	}

	fallbackResp, fallbackErr := g.fallback.Generate(ctx, req)
	if fallbackErr != nil {
		g.logger.Error("fallback text generator also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return TextResponse{}, fallbackErr
	}

	g.logger.Info("fallback text generator succeeded after primary failure")
	return fallbackResp, nil
}
