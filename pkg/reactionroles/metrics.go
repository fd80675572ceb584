package reactionroles

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	actionAdd    = "add"
	actionRemove = "remove"

	resultSuccess = "success"
	resultFailure = "failure"
)

var (
	// RoleUpdates is the number of member role updates made for reactions.
	RoleUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaction_role_updates_total",
			Help: "The total number of member role updates made for reactions",
		},
		[]string{"action", "result"},
	)

	// Published is the number of messages published from the dashboard.
	Published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_published_messages_total",
			Help: "The total number of messages published from the dashboard",
		},
		[]string{"kind", "result"},
	)
)
