package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		referralsCreditedTotal,
		telegramUpdatesReceivedTotal,
		invoiceRateLimitTriggeredTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users seen by the bot.",
		},
	)

	referralsCreditedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "referrals_credited_total",
			Help: "Total number of referrals credited to a referrer.",
		},
	)

	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming updates by kind (command, pre_checkout, payment, other).",
		},
		[]string{"kind"},
	)

	invoiceRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invoice_rate_limit_triggered_total",
			Help: "Total number of invoice requests rejected by the per-user rate limit.",
		},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncReferralsCredited() {
	referralsCreditedTotal.Inc()
}

func IncTelegramUpdate(kind string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncInvoiceRateLimited() {
	invoiceRateLimitTriggeredTotal.Inc()
}
