package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ShopMetrics struct {
	OrdersCreated prometheus.Counter
	STKPushes     *prometheus.CounterVec
	Callbacks     *prometheus.CounterVec
}

func NewShopMetrics() *ShopMetrics {
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zawadi",
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	})
	stkPushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zawadi",
		Name:      "stk_pushes_total",
		Help:      "Total number of STK push initiations.",
	}, []string{"outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zawadi",
		Name:      "payment_callbacks_total",
		Help:      "Total number of payment callbacks processed.",
	}, []string{"result"})

	prometheus.MustRegister(ordersCreated, stkPushes, callbacks)
	return &ShopMetrics{
		OrdersCreated: ordersCreated,
		STKPushes:     stkPushes,
		Callbacks:     callbacks,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
