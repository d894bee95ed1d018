package bill

import (
	"context"
	"log/slog"
	"net/http"
)

// Server handles HTTP requests for bills
type Server struct {
	service    *Service
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a new Server with default mux
func NewServer(service *Service) *Server {
	return NewServerWithMux(service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// API endpoints - bills (most specific paths first)
	s.mux.HandleFunc("GET /api/bills/export", s.handleExportBills)
	s.mux.HandleFunc("GET /api/bills/{id}/image", s.handleGetBillImage)
	s.mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	s.mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	s.mux.HandleFunc("GET /api/bills", s.handleListBills)
	s.mux.HandleFunc("POST /api/bills", s.handleUploadBill)

	// API endpoints - insights and shopping lists
	s.mux.HandleFunc("GET /api/insights", s.handleGetInsights)
	s.mux.HandleFunc("POST /api/shopping-lists", s.handleGenerateShoppingList)
	s.mux.HandleFunc("GET /api/shopping-lists", s.handleListShoppingLists)

	// Liveness
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	s.httpServer = &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				s.mux.ServeHTTP(w, r)
			})(w, r)
		}),
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops a started server, letting in-flight uploads
// finish until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
