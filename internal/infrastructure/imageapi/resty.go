package imageapi

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/janhq/jan-imagegen/internal/utils/requestid"
)

type httpClientStartsAt struct{}

// newRestyClient builds a resty client that paces requests through limiter,
// tags them with the caller's request id and logs every exchange.
func newRestyClient(clientName string, limiter *rate.Limiter, log zerolog.Logger) *resty.Client {
	client := resty.New().SetLogger(restyLogger{log: log})
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		if limiter != nil {
			if err := limiter.Wait(r.Context()); err != nil {
				return err
			}
		}
		if id := requestid.FromContext(r.Context()); id != "" {
			r.SetHeader(requestid.Header, id)
		}
		r.SetContext(context.WithValue(r.Context(), httpClientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		if r.Request.RawRequest == nil {
			return nil
		}
		startTime, _ := r.Request.Context().Value(httpClientStartsAt{}).(time.Time)
		log.Debug().
			Str("request_id", requestid.FromContext(r.Request.Context())).
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Str("method", r.Request.RawRequest.Method).
			Str("path", r.Request.RawRequest.URL.Path).
			Dur("latency", time.Since(startTime)).
			Msg("HTTP client request")
		return nil
	})
	return client
}

// restyLogger routes resty's own diagnostics into zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
