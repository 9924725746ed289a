package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/janhq/jan-imagegen/internal/domain/generation"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "imagegen",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "imagegen",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)

	// GenerationsTotal counts runs by terminal state.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "imagegen",
			Name:      "generations_total",
			Help:      "Generation runs by terminal state",
		},
		[]string{"state"},
	)

	GenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "imagegen",
			Name:      "generations_in_flight",
			Help:      "Generation runs currently submitting or polling",
		},
	)

	GalleryImages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "imagegen",
			Name:      "gallery_images",
			Help:      "Images currently stored in the gallery",
		},
	)
)

// GenerationListener feeds run transitions into the generation metrics.
type GenerationListener struct{}

func (GenerationListener) OnTransition(_ context.Context, t generation.Transition) {
	switch {
	case t.To == generation.StateSubmitting:
		GenerationsInFlight.Inc()
	case t.To.IsTerminal():
		if t.From.IsBusy() {
			GenerationsInFlight.Dec()
		}
		GenerationsTotal.WithLabelValues(string(t.To)).Inc()
	}
}

// GalleryChanged records the gallery size after a mutation.
func GalleryChanged(_ context.Context, count int) {
	GalleryImages.Set(float64(count))
}

// GinMiddleware records request counts and latency by route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
