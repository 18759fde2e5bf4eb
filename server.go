package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server owns the HTTP surface: registers, charts, exports, and refresh
// control. All aggregation goes through internal/coverage against the
// current dataset; handlers never mutate records.
type Server struct {
	cfg    Config
	db     *sql.DB
	holder *DatasetHolder
}

func NewServer(cfg Config, db *sql.DB, holder *DatasetHolder) *Server {
	return &Server{cfg: cfg, db: db, holder: holder}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/districts", s.handleDistricts).Methods("GET")
	r.HandleFunc("/api/registers/{register}", s.handleRegister).Methods("GET")
	r.HandleFunc("/api/charts/services/monthly", s.handleMonthly).Methods("GET")
	r.HandleFunc("/api/caseworkers", s.handleCaseworkers).Methods("GET")
	r.HandleFunc("/api/quality", s.handleQuality).Methods("GET")
	r.HandleFunc("/api/hts", s.handleHTS).Methods("GET")
	r.HandleFunc("/api/export/{register}.csv", s.handleExportCSV).Methods("GET")
	r.HandleFunc("/api/refreshes", s.handleRefreshes).Methods("GET")
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(loggingMiddleware(r))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrw, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), wrw.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
