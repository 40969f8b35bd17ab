// ABOUTME: Prometheus metrics for session registry and switcher operations
// ABOUTME: Exposed by the gateway's /metrics endpoint when enabled

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session_gateway"

var (
	// ServersRegistered counts successful server registrations.
	ServersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "servers_registered_total",
		Help:      "Total number of backend servers registered",
	})

	// ServersRemoved counts server removals.
	ServersRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "servers_removed_total",
		Help:      "Total number of backend servers removed",
	})

	// RegistrationFailures counts failed registration attempts by stage.
	RegistrationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_failures_total",
		Help:      "Total number of failed server registrations",
	}, []string{"stage"})

	// TenantSelections counts tenant selection attempts by outcome.
	TenantSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_selections_total",
		Help:      "Total number of tenant selection attempts",
	}, []string{"outcome"})

	// SignOuts counts explicit and forced sign-outs.
	SignOuts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_outs_total",
		Help:      "Total number of sign-outs",
	})
)

// Outcome labels for TenantSelections.
const (
	OutcomeOK           = "ok"
	OutcomeSecondFactor = "second_factor"
	OutcomeSignedOut    = "signed_out"
	OutcomeError        = "error"
)
