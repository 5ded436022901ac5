package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	MovementsPosted  *prometheus.CounterVec
	MovementsUpdated prometheus.Counter
	MovementsDeleted prometheus.Counter
	MovementAmount   prometheus.Histogram

	// Transfer metrics
	TransfersPosted  prometheus.Counter
	TransfersDeleted prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferErrors   *prometheus.CounterVec

	// Account metrics
	AccountsCreated     prometheus.Counter
	AccountsDeactivated prometheus.Counter
	AccountsDeleted     prometheus.Counter

	// Recomputation metrics
	Recomputations     *prometheus.CounterVec
	SnapshotsRewritten prometheus.Counter
	ChainLength        prometheus.Histogram
	RecomputeDuration  prometheus.Histogram

	// Reconciliation metrics
	ReconciliationDiscrepancies prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates the ledger metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Movement metrics
		MovementsPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_movements_posted_total",
				Help: "Total number of movements posted by type",
			},
			[]string{"type"},
		),
		MovementsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_movements_updated_total",
			Help: "Total number of movements updated",
		}),
		MovementsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_movements_deleted_total",
			Help: "Total number of movements deleted",
		}),
		MovementAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_movement_amount",
			Help:    "Movement amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		// Transfer metrics
		TransfersPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_transfers_posted_total",
			Help: "Total number of transfers posted",
		}),
		TransfersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_transfers_deleted_total",
			Help: "Total number of transfers deleted",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_transfer_errors_total",
				Help: "Total number of failed transfers by reason",
			},
			[]string{"reason"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_accounts_deactivated_total",
			Help: "Total number of accounts deactivated instead of deleted",
		}),
		AccountsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_accounts_deleted_total",
			Help: "Total number of accounts deleted",
		}),

		// Recomputation metrics
		Recomputations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finledger_recomputations_total",
				Help: "Total balance recomputations by trigger",
			},
			[]string{"trigger"},
		),
		SnapshotsRewritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_snapshots_rewritten_total",
			Help: "Total movement balance snapshots rewritten by chain recomputation",
		}),
		ChainLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_chain_length",
			Help:    "Number of settled movements walked per recomputation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finledger_recompute_duration_seconds",
			Help:    "Duration of account recomputations",
			Buckets: prometheus.DefBuckets,
		}),

		// Reconciliation metrics
		ReconciliationDiscrepancies: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_reconciliation_discrepancies_total",
			Help: "Total accounts found out of balance during reconciliation",
		}),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "finledger_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),
	}
}
