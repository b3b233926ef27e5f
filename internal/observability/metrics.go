package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	eventsConsumedCounter  *prometheus.CounterVec
	eventsPublishedCounter *prometheus.CounterVec
	publishFailureCounter  *prometheus.CounterVec
	handlerRetryCounter    *prometheus.CounterVec
	deadLetterCounter      *prometheus.CounterVec
	insufficientCounter    prometheus.Counter
	commissionSkipCounter  *prometheus.CounterVec
	consumerRestartCounter *prometheus.CounterVec
	handlerDuration        *prometheus.HistogramVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		eventsConsumedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_events_consumed_total",
			Help: "Deliveries by queue and acknowledgment outcome",
		}, []string{"queue", "outcome"})

		eventsPublishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_events_published_total",
			Help: "Events published by routing key",
		}, []string{"routing_key"})

		publishFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_publish_failures_total",
			Help: "Publishes that failed after the reconnect retry",
		}, []string{"routing_key"})

		handlerRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_handler_retries_total",
			Help: "Transient handler failures retried in process",
		}, []string{"queue"})

		deadLetterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_dead_letters_total",
			Help: "Messages rejected permanently after exhausting retries",
		}, []string{"queue"})

		insufficientCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_insufficient_funds_total",
			Help: "Debits rejected because the float would go negative",
		})

		commissionSkipCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commission_skipped_total",
			Help: "Transactions that earned no commission, by reason",
		}, []string{"reason"})

		consumerRestartCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_consumer_restarts_total",
			Help: "Consumer loop restarts after broker failure",
		}, []string{"queue"})

		handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saga_handler_duration_seconds",
			Help:    "Handler execution latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"})

		prometheus.MustRegister(
			eventsConsumedCounter,
			eventsPublishedCounter,
			publishFailureCounter,
			handlerRetryCounter,
			deadLetterCounter,
			insufficientCounter,
			commissionSkipCounter,
			consumerRestartCounter,
			handlerDuration,
		)
	})
}

func IncrementEventConsumed(queue, outcome string) {
	if eventsConsumedCounter == nil {
		return
	}
	eventsConsumedCounter.WithLabelValues(queue, outcome).Inc()
}

func IncrementEventPublished(routingKey string) {
	if eventsPublishedCounter == nil {
		return
	}
	eventsPublishedCounter.WithLabelValues(routingKey).Inc()
}

func IncrementPublishFailure(routingKey string) {
	if publishFailureCounter == nil {
		return
	}
	publishFailureCounter.WithLabelValues(routingKey).Inc()
}

func IncrementHandlerRetry(queue string) {
	if handlerRetryCounter == nil {
		return
	}
	handlerRetryCounter.WithLabelValues(queue).Inc()
}

func IncrementDeadLetter(queue string) {
	if deadLetterCounter == nil {
		return
	}
	deadLetterCounter.WithLabelValues(queue).Inc()
}

func IncrementInsufficientFunds() {
	if insufficientCounter == nil {
		return
	}
	insufficientCounter.Inc()
}

func IncrementCommissionSkipped(reason string) {
	if commissionSkipCounter == nil {
		return
	}
	commissionSkipCounter.WithLabelValues(reason).Inc()
}

func IncrementConsumerRestart(queue string) {
	if consumerRestartCounter == nil {
		return
	}
	consumerRestartCounter.WithLabelValues(queue).Inc()
}

func ObserveHandler(queue string, duration time.Duration) {
	if handlerDuration == nil {
		return
	}
	handlerDuration.WithLabelValues(queue).Observe(duration.Seconds())
}
