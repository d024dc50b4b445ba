package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookDeliveriesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "webhook_deliveries_total",
			Help:      "Total raw webhook deliveries consumed from NATS.",
		},
	)

	webhookEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "webhook_events_total",
			Help:      "Normalized webhook events by kind.",
		},
		[]string{"kind"},
	)

	droppedEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "webhook_events_dropped_total",
			Help:      "Webhook events dropped for missing identifiers or unrecognized shape.",
		},
		[]string{"kind"},
	)

	messagesReconciledCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "messages_reconciled_total",
			Help:      "Reconciler outcomes.",
		},
		[]string{"outcome"}, // inserted, duplicate
	)

	contactsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "contacts_created_total",
			Help:      "Contacts created by the identity resolver.",
		},
	)

	conversationsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "conversations_created_total",
			Help:      "Conversations created by the conversation resolver.",
		},
	)

	connectionTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "connection_transitions_total",
			Help:      "Inbox connection state transitions by target state.",
		},
		[]string{"to"},
	)

	syncRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "sync_runs_total",
			Help:      "Completed bulk sync passes.",
		},
	)

	syncSnapshotFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "sync_snapshot_failures_total",
			Help:      "Provider snapshot fetches that degraded to an empty list.",
		},
		[]string{"snapshot"}, // contacts, groups, chats
	)

	outboundSendsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wagateway",
			Name:      "outbound_sends_total",
			Help:      "Outbound dispatch outcomes.",
		},
		[]string{"outcome"}, // sent, failed
	)
)
