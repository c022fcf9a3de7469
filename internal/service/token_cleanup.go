// Package service contains background jobs that run next to the HTTP server
package service

import (
	"context"
	"time"

	"fitlog/fitness-api/internal/store"

	"go.uber.org/zap"
)

// TokenCleanup periodically deletes token rows that have expired.
// It blocks until ctx is cancelled.
func TokenCleanup(ctx context.Context, t time.Duration, tokens store.TokenStore) {
	ticker := time.NewTicker(t)
	defer ticker.Stop()

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CleanupTokens(ctx, tokens, time.Now().UTC())
		}
	}
}

// CleanupTokens deletes every token that expired before now
func CleanupTokens(ctx context.Context, tokens store.TokenStore, now time.Time) int64 {
	n, err := tokens.DeleteExpired(ctx, now)
	if err != nil {
		zap.L().Error("Failed to cleanup expired tokens", zap.Error(err))
		return 0
	}

	if n > 0 {
		zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", n))
	}

	return n
}
