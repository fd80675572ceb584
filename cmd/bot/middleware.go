package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/v0bot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/request"
	"github.com/gorilla/mux"
)

const (
	serverDashboard  = "dashboard"
	serverMonitoring = "monitoring"
)

// middlewareHttp records the metrics of every routed request of a server and recovers panics in its handlers.
func middlewareHttp(l *slog.Logger, server string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now().UTC()
			cw := request.NewClientWriter(w)

			var path string
			route := mux.CurrentRoute(r)
			if route != nil { // The route may be nil if the request is not routed.
				var err error
				path, err = route.GetPathTemplate()
				if err != nil {
					l.Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
					path = r.URL.Path
				}
			} else {
				path = r.URL.Path
			}

			defer func() {
				// The status code is only known once the handler has returned.
				code := fmt.Sprintf("%d", cw.StatusCode())
				monitoring.HttpTotalRequests.WithLabelValues(server, path, r.Method, code).Inc()
				monitoring.HttpRequestDuration.WithLabelValues(server, path, r.Method, code).Observe(time.Since(now).Seconds())
			}()

			defer func() {
				if rec := recover(); rec != nil {
					l.Error("Panic in handler",
						slog.String(logging.KeyError, fmt.Sprint(rec)),
						slog.String("stack", string(debug.Stack())),
					)
					request.Encode(l, cw, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
				}
			}()

			next.ServeHTTP(cw, r)
		})
	}
}

// newRouter creates a router for one of the servers, with the JSON 404 and 405 handlers.
func newRouter(l *slog.Logger, server string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middlewareHttp(l, server))
	r.NotFoundHandler = request.NotFoundHandler(l)
	r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(l)
	return r
}
