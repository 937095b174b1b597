package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestLogger tags every request with a short id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	log := logrus.WithField("component", "api")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		id := uuid.NewString()[:8]

		next.ServeHTTP(sw, r)

		log.WithFields(logrus.Fields{
			"request": id,
			"status":  sw.status,
		}).Infof("%s %s", r.Method, r.URL.Path)
	})
}
