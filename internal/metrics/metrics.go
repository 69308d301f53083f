package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_bookings_created_total",
			Help: "Number of bookings created or reactivated, by kind",
		},
		[]string{"kind"},
	)

	BookingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_booking_rejections_total",
			Help: "Number of booking attempts refused by the ledger, by reason",
		},
		[]string{"reason"},
	)

	BookingsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_bookings_cancelled_total",
			Help: "Number of bookings cancelled",
		},
	)

	PaymentsVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_payments_verified_total",
			Help: "Number of payments verified, by target",
		},
		[]string{"target"},
	)

	PackagesExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_packages_expired_total",
			Help: "Number of package instances flipped to expired by the sweeper",
		},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(BookingsCreated, BookingRejections, BookingsCancelled, PaymentsVerified, PackagesExpired)
}
