// Package metrics defines and registers all custom Prometheus metrics for the
// LIMS access-control service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lims"

// ── Authentication ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked", "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// AccountLockoutsTotal counts accounts reaching the failed-login threshold.
var AccountLockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Total number of account lockouts triggered by repeated failed logins.",
	},
)

// ── Authorization ────────────────────────────────────────────────────────────

// AuthzDecisionsTotal counts permission guard decisions.
// Labels:
//   - resource, action: the checked pair
//   - result: "allowed", "forbidden", "unauthenticated"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of permission checks, by resource, action and result.",
	},
	[]string{"resource", "action", "result"},
)

// ── Rate limiting ────────────────────────────────────────────────────────────

// RateLimitRejectionsTotal counts requests rejected with 429.
// Label:
//   - preset: "auth", "api", "sensitive", "search"
var RateLimitRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter, by preset.",
	},
	[]string{"preset"},
)

// ── Audit ────────────────────────────────────────────────────────────────────

// AuditEntriesTotal counts audit entries by fate.
// Label:
//   - result: "stored", "dropped", "failed"
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks entries waiting in each audit worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
