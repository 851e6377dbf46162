package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// accessLog пишет одну строку на запрос.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Infof("%s %s status=%d bytes=%d duration=%s request_id=%s",
					r.Method, r.URL.RequestURI(), ww.Status(), ww.BytesWritten(),
					time.Since(start), middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
