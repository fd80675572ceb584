package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexliesenfeld/health"
)

func (a *App) healthCheck() http.Handler {
	checker := health.NewChecker(
		// Set a TTL of 1 second for the results of the checks.
		health.WithCacheDuration(1*time.Second),

		// Set a timeout of 2 seconds for the checks.
		health.WithTimeout(2*time.Second),

		// Monitor the reaction role store.
		health.WithCheck(health.Check{
			Name: "Store_" + a.cfg.StoreBackend,
			Check: func(ctx context.Context) error {
				if err := a.dal.Ping(ctx); err != nil {
					return fmt.Errorf("failed to ping store: %w", err)
				}
				return nil
			},
			Timeout:        2 * time.Second,
			StatusListener: a.statusListener,
		}),

		// Monitor the health of the Discord API.
		health.WithPeriodicCheck(15*time.Second, 5*time.Second, health.Check{
			Name: "Discord_API",
			Check: func(ctx context.Context) error {
				if _, err := a.s.GatewayBot(); err != nil {
					return fmt.Errorf("failed to ping Discord API: %w", err)
				}
				return nil
			},
			Timeout:        3 * time.Second,
			StatusListener: a.statusListener,
		}),
	)

	return health.NewHandler(checker)
}

func (a *App) statusListener(_ context.Context, name string, state health.CheckState) {
	a.Info("Health check status changed",
		slog.String("name", name),
		slog.String("state", string(state.Status)),
	)
}
