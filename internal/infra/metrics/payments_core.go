package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		invoicesTotal,
		preCheckoutTotal,
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	invoicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_total",
			Help: "Invoice link requests by plan and result (created/rejected/error).",
		},
		[]string{"plan", "result"},
	)

	preCheckoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pre_checkout_total",
			Help: "Pre-checkout queries answered, by result (ok/rejected).",
		},
		[]string{"result"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Successful payments reported by Telegram, by plan.",
		},
		[]string{"plan"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncInvoice(planID, result string) {
	invoicesTotal.WithLabelValues(norm(planID), norm(result)).Inc()
}

func IncPreCheckout(result string) {
	preCheckoutTotal.WithLabelValues(norm(result)).Inc()
}

func IncPayment(planID string) {
	paymentsTotal.WithLabelValues(norm(planID)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
