package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	transactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "proxy",
		Name:      "transactions_total",
		Help:      "The total number of completed client transactions",
	}, []string{"status", "cache"})

	connectFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "proxy",
		Name:      "connect_failures_total",
		Help:      "The total number of failed origin connections",
	})

	clientAborts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "proxy",
		Name:      "client_aborts_total",
		Help:      "The total number of transactions aborted by a client write error",
	})

	sentBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "proxy",
		Name:      "sent_bytes_total",
		Help:      "Bytes written to clients",
	})

	recvBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "proxy",
		Name:      "received_bytes_total",
		Help:      "Bytes read from origins",
	})
)

func init() {
	prometheus.MustRegister(transactionsTotal, connectFailures, clientAborts, sentBytes, recvBytes)
}

// ObserveTransaction records one finished transaction.
func ObserveTransaction(t *Transaction) {
	status := "-"
	if t.Status > 0 {
		status = strconv.Itoa(t.Status)
	}
	transactionsTotal.WithLabelValues(status, t.CacheStatus).Inc()
	sentBytes.Add(float64(t.SentBytes))
	recvBytes.Add(float64(t.RecvBytes))
}

// ObserveConnectFailure records a DNS/connect failure toward an origin.
func ObserveConnectFailure() {
	connectFailures.Inc()
}

// ObserveClientAbort records a transaction cut short by the client.
func ObserveClientAbort() {
	clientAborts.Inc()
}
