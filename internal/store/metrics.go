package store

import "github.com/prometheus/client_golang/prometheus"

var (
	// commandsTotal counts processed commands by kind and reply outcome.
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "board",
			Subsystem: "store",
			Name:      "commands_total",
			Help:      "Commands processed by the message store.",
		},
		[]string{"command", "outcome"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "board",
			Subsystem: "store",
			Name:      "command_duration_seconds",
			Help:      "Time spent applying a single command.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"command"},
	)

	storedMessages = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "board",
		Subsystem: "store",
		Name:      "messages",
		Help:      "Messages currently held by the store.",
	})

	bannedIdentities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "board",
		Subsystem: "store",
		Name:      "banned_identities",
		Help:      "Identities whose distinct reporter count is over the ban threshold.",
	})

	mailboxDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "board",
		Subsystem: "store",
		Name:      "mailbox_depth",
		Help:      "Commands waiting in the store mailbox.",
	})
)

func init() {
	prometheus.MustRegister(commandsTotal, commandDuration, storedMessages, bannedIdentities, mailboxDepth)
}
