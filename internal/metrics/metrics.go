package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the app counters exposed on /metrics.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	AttendanceMarks prometheus.Counter
	Complaints      prometheus.Counter
}

// New registers the counters with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_registrations_total",
			Help: "Account registrations by role.",
		}, []string{"role"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		AttendanceMarks: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Attendance records written by teachers.",
		}),
		Complaints: factory.NewCounter(prometheus.CounterOpts{
			Name: "attendance_complaints_total",
			Help: "Complaints filed by students.",
		}),
	}
}
