package rpc

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/alphabill-org/assetswap/internal/logger"
	"github.com/alphabill-org/assetswap/internal/metrics"
)

var log = logger.CreateForPackage()

const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-Id"
	applicationJson   = "application/json"
	applicationCBOR   = "application/cbor"

	DefaultMaxBodyBytes int64 = 1048576 // 1MB
)

var allowedCORSHeaders = []string{"Accept", "Accept-Language", "Content-Language", "Origin", headerContentType, headerRequestID}

type (
	// Registrar registers new HTTP handlers for given router.
	Registrar interface {
		Register(r *mux.Router)
	}

	// RegistrarFunc type is an adapter to allow the use of ordinary function as Registrar.
	RegistrarFunc func(r *mux.Router)
)

// NewRESTServer creates the HTTP server serving the endpoints of the registrars under /api/v1.
func NewRESTServer(addr string, maxBodySize int64, registrars ...Registrar) *http.Server {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodyBytes
	}
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)
	apiV1Router := r.PathPrefix("/api/v1").Subrouter()
	apiV1Router.Use(handlers.CORS(handlers.AllowedHeaders(allowedCORSHeaders)), instrumentHTTP)

	for _, registrar := range registrars {
		registrar.Register(apiV1Router)
	}

	return &http.Server{
		Addr:              addr,
		ReadTimeout:       3 * time.Second,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		Handler:           http.MaxBytesHandler(r, maxBodySize),
	}
}

func (f RegistrarFunc) Register(r *mux.Router) {
	f(r)
}

// MetricsEndpoints exposes the metrics in the Prometheus text format.
func MetricsEndpoints() RegistrarFunc {
	return func(r *mux.Router) {
		r.Handle("/metrics", metrics.PrometheusHandler()).Methods(http.MethodGet)
	}
}

var (
	restCalls  = metrics.GetOrRegisterCounter("assetswap/rest/calls")
	restErrors = metrics.GetOrRegisterCounter("assetswap/rest/errors")
)

// instrumentHTTP assigns a request id to every request, counts the calls and logs the outcome.
func instrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := req.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		start := time.Now()
		rsp := newStatusResponseWriter(w)
		next.ServeHTTP(rsp, req)

		restCalls.Inc(1)
		if rsp.statusCode >= http.StatusBadRequest {
			restErrors.Inc(1)
		}
		log.Debug("%s %s [%s] %d in %s", req.Method, req.URL.Path, requestID, rsp.statusCode, time.Since(start))
	})
}

// statusResponseWriter is a http.ResponseWriter wrapper which allows to capture status code of the response.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	return mw.ResponseWriter.Write(b)
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}
