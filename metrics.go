package memberkit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "memberkit"

// GateDecisionsTotal counts access gate decisions.
// Labels:
//   - state: resolving, allowed or denied
//   - reason: deny reason, empty unless denied
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access gate decisions, by state and deny reason.",
	},
	[]string{"state", "reason"},
)

// ResolverFailuresTotal counts backend failures converted to fail-closed results.
// Label:
//   - resolver: "roles" or "approval"
var ResolverFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "resolver_failures_total",
		Help:      "Total number of resolver backend failures that fell back to least privilege.",
	},
	[]string{"resolver"},
)

// StaleResponsesTotal counts resolutions discarded because the principal changed.
// Label:
//   - resolver: "roles" or "approval"
var StaleResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "stale_responses_total",
		Help:      "Total number of resolver responses dropped after an identity change.",
	},
	[]string{"resolver"},
)

// DashboardTogglesTotal counts dashboard switch attempts.
// Labels:
//   - view: requested dashboard view
//   - result: "ok" or "refused"
var DashboardTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "dashboard_toggles_total",
		Help:      "Total number of dashboard toggle attempts, by requested view and result.",
	},
	[]string{"view", "result"},
)

// TransactionDuration observes Service transaction latency.
// Label:
//   - result: "commit" or "rollback"
var TransactionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "transaction_duration_seconds",
		Help:      "Duration of Service database transactions, by outcome.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

const (
	resolverRoles    = "roles"
	resolverApproval = "approval"
)
