package probe

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eel3/sntpsend/base/metrics"
)

type exchangeMetrics struct {
	reqsSent      prometheus.Counter
	pktsReceived  prometheus.Counter
	pktsDiscarded prometheus.Counter
	respsAccepted prometheus.Counter
	timeouts      prometheus.Counter
}

func newExchangeMetrics() *exchangeMetrics {
	return &exchangeMetrics{
		reqsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ProbeReqsSentN,
			Help: metrics.ProbeReqsSentH,
		}),
		pktsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ProbePktsReceivedN,
			Help: metrics.ProbePktsReceivedH,
		}),
		pktsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ProbePktsDiscardedN,
			Help: metrics.ProbePktsDiscardedH,
		}),
		respsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ProbeRespsAcceptedN,
			Help: metrics.ProbeRespsAcceptedH,
		}),
		timeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ProbeTimeoutsN,
			Help: metrics.ProbeTimeoutsH,
		}),
	}
}

var probeMetrics atomic.Pointer[exchangeMetrics]

func init() {
	probeMetrics.Store(newExchangeMetrics())
}
