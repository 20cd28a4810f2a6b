package mockapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// MaxRequestSize caps request bodies at 1MB
const MaxRequestSize int64 = 1 << 20

// EnableCORS lets browser clients on origins call the API
func (s *Server) EnableCORS(origins []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corsOrigins = origins
}

// EnableRateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "100-M". Counters live in Redis when client is set, in memory
// otherwise.
func (s *Server) EnableRateLimit(rate string, client *redis.Client) error {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "tempus:mockapi:limit"})
		if err != nil {
			return fmt.Errorf("failed to create rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStore()
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(clientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("rate_limit_exceeded", zap.String("client_ip", clientIP(r)))
			respondError(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimit = mw.Handler
	return nil
}

// clientIP respects X-Forwarded-For and X-Real-IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// withCORS wraps h when origins are configured. Preflights are answered
// before routing.
func withCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID", "Traceparent"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(h)
}

// requireJSON rejects bodies that are not JSON or are too large
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
				respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			if r.ContentLength > MaxRequestSize {
				respondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}
