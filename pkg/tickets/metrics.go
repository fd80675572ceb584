package tickets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Actions is the number of ticket lifecycle actions, by outcome.
var Actions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ticket_actions_total",
		Help: "The total number of ticket lifecycle actions",
	},
	[]string{"kind", "action", "result"},
)
