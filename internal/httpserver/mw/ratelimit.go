package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/utils"
)

// RateLimit limits requests per client IP over a one minute window.
// perMinute <= 0 disables limiting.
func RateLimit(perMinute int, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		log.Debug("RateLimit: disabled, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debugf("RateLimit: %d req/min per IP, trustProxy=%v", perMinute, trustProxy)

	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return utils.ClientIP(r, trustProxy), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("rate limit exceeded",
				logger.String("remote_ip", utils.ClientIP(r, trustProxy)),
				logger.String("path", r.URL.Path))
			deny(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}
