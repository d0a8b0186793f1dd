package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/statusdeck/statusdeck"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Public status feed metrics
	StatusStreamsActive  metric.Int64UpDownCounter
	StatusSnapshotsTotal metric.Int64Counter
	StatusRequestsTotal  metric.Int64Counter

	// Incident metrics
	IncidentsOpenedTotal   metric.Int64Counter
	IncidentsResolvedTotal metric.Int64Counter
	IncidentUpdatesTotal   metric.Int64Counter

	// Service metrics
	ServiceWritesTotal metric.Int64Counter

	// Account metrics
	AccountsCreatedTotal metric.Int64Counter
	InvitesTotal         metric.Int64Counter
	SignInsTotal         metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.StatusStreamsActive, _ = meter.Int64UpDownCounter(
		"statusdeck.status.streams.active",
		metric.WithDescription("Number of connected public status stream clients"),
		metric.WithUnit("{stream}"),
	)

	m.StatusSnapshotsTotal, _ = meter.Int64Counter(
		"statusdeck.status.snapshots.total",
		metric.WithDescription("Total number of status snapshots pushed to stream clients"),
		metric.WithUnit("{snapshot}"),
	)

	m.StatusRequestsTotal, _ = meter.Int64Counter(
		"statusdeck.status.requests.total",
		metric.WithDescription("Total number of one-shot public status requests"),
		metric.WithUnit("{request}"),
	)

	m.IncidentsOpenedTotal, _ = meter.Int64Counter(
		"statusdeck.incidents.opened.total",
		metric.WithDescription("Total number of incidents created"),
		metric.WithUnit("{incident}"),
	)

	m.IncidentsResolvedTotal, _ = meter.Int64Counter(
		"statusdeck.incidents.resolved.total",
		metric.WithDescription("Total number of incidents moved to resolved"),
		metric.WithUnit("{incident}"),
	)

	m.IncidentUpdatesTotal, _ = meter.Int64Counter(
		"statusdeck.incidents.updates.total",
		metric.WithDescription("Total number of updates appended to incident logs"),
		metric.WithUnit("{update}"),
	)

	m.ServiceWritesTotal, _ = meter.Int64Counter(
		"statusdeck.services.writes.total",
		metric.WithDescription("Total number of service create, update and delete operations"),
		metric.WithUnit("{write}"),
	)

	m.AccountsCreatedTotal, _ = meter.Int64Counter(
		"statusdeck.accounts.created.total",
		metric.WithDescription("Total number of first-sign-in account bootstraps"),
		metric.WithUnit("{account}"),
	)

	m.InvitesTotal, _ = meter.Int64Counter(
		"statusdeck.team.invites.total",
		metric.WithDescription("Total number of successful member invites"),
		metric.WithUnit("{invite}"),
	)

	m.SignInsTotal, _ = meter.Int64Counter(
		"statusdeck.auth.signins.total",
		metric.WithDescription("Total number of completed sign-ins"),
		metric.WithUnit("{signin}"),
	)

	return m
}
