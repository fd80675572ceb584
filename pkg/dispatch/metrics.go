package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InteractionDuration is the time taken to handle an interaction.
	InteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "discord_interaction_duration",
			Help: "Duration of handling a Discord interaction",
		},
		[]string{"kind"},
	)

	// InteractionRejections is the number of interactions answered with a rejection.
	InteractionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_interaction_rejections_total",
			Help: "The total number of interactions answered with a rejection",
		},
		[]string{"reason"},
	)

	// InteractionErrors is the number of interactions that failed.
	InteractionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discord_interaction_errors_total",
			Help: "The total number of interactions that failed",
		},
	)
)
