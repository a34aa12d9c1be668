package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_events_total",
		Help: "Attendance domain events by outcome.",
	}, []string{"event", "result"})

	faceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_face_checks_total",
		Help: "Face verification outcomes (passed, failed, skipped, unavailable).",
	}, []string{"outcome"})
)

func recordEvent(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	attendanceEvents.WithLabelValues(event, result).Inc()
}
