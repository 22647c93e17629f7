package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations считает операции движка по исходу: ok, validation, not_found, ...
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "review",
		Name:      "operations_total",
		Help:      "Post lifecycle operations by result.",
	}, []string{"op", "result"})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "review",
		Name:      "feed_subscribers",
		Help:      "Live snapshot subscribers on this instance.",
	})

	FeedBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "review",
		Name:      "feed_broadcasts_total",
		Help:      "Snapshots broadcast to subscribers.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "review",
		Name:      "events_published_total",
		Help:      "Lifecycle events handed to the event publisher.",
	}, []string{"type", "result"})
)
