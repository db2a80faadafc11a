package generator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run generates once, then again every interval until ctx is done. With a
// non-positive interval it returns after the first run, passing its error
// through. In interval mode failures are logged and the next tick retries.
// A run cut short by ctx is a clean stop and returns nil.
func (g *Generator) Run(ctx context.Context, interval time.Duration) error {
	_, err := g.runOnce(ctx)
	if ctx.Err() != nil {
		g.logger.Info("[SYMBOLS] Scheduler stopped")
		return nil
	}
	if interval <= 0 {
		return err
	}

	g.logger.Info("[SYMBOLS] Scheduling symbol regeneration", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("[SYMBOLS] Scheduler stopped")
			return nil
		case <-ticker.C:
			g.runOnce(ctx)
		}
	}
}

func (g *Generator) runOnce(ctx context.Context) (*Result, error) {
	result, err := g.Generate(ctx)
	if err != nil && ctx.Err() != nil {
		g.logger.Info("[SYMBOLS] Symbol regeneration interrupted",
			zap.String("run_id", result.RunID),
			zap.Duration("duration", result.Duration),
		)
		return result, err
	}
	if err != nil {
		g.logger.Error("[SYMBOLS] Symbol regeneration failed",
			zap.Error(err),
			zap.Duration("duration", result.Duration),
		)
		return result, err
	}

	g.logger.Info("[SYMBOLS] Symbol regeneration finished",
		zap.String("run_id", result.RunID),
		zap.Bool("fallback", result.Source == SourceFallback),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
