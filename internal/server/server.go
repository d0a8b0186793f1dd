package server

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	httpmiddleware "github.com/statusdeck/statusdeck/internal/http"
	"github.com/statusdeck/statusdeck/internal/logger"
	"github.com/statusdeck/statusdeck/internal/login"
	"github.com/statusdeck/statusdeck/internal/manage"
	"github.com/statusdeck/statusdeck/internal/session"
	"github.com/statusdeck/statusdeck/internal/store"
)

// Server wires the public status surface and the authenticated dashboard
// API over the directory store.
type Server struct {
	dir      store.Directory
	auth     *login.Google
	sessions *sessionCache

	services  *manage.ServiceManager
	incidents *manage.IncidentManager
	team      *manage.TeamManager
}

// New creates a server over the given directory store. auth may be nil in
// tests; the dashboard routes then reject every request.
func New(dir store.Directory, auth *login.Google) *Server {
	return &Server{
		dir:       dir,
		auth:      auth,
		sessions:  newSessionCache(session.NewResolver(dir.Users, dir.Accounts)),
		services:  manage.NewServiceManager(dir.Services),
		incidents: manage.NewIncidentManager(dir.Incidents, dir.Services),
		team:      manage.NewTeamManager(dir.Organizations, dir.Users, dir.Accounts),
	}
}

// Close releases all live sessions.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public read surface: anonymous access to exactly the organization's
	// services and incident partitions, nothing else.
	mux.HandleFunc("GET /api/v1/status/{orgID}", s.getStatus)
	mux.HandleFunc("GET /api/v1/status/{orgID}/stream", s.streamStatus)

	if s.auth != nil {
		mux.HandleFunc("GET /auth/login", s.auth.LoginHandler)
		mux.HandleFunc("GET /auth/callback", s.auth.CallbackHandler)
		mux.HandleFunc("GET /auth/logout", s.logout)
	}

	// Authenticated dashboard API
	mux.HandleFunc("GET /api/v1/profile", s.requireOrg(s.getProfile))
	mux.HandleFunc("GET /api/v1/services", s.requireOrg(s.listServices))
	mux.HandleFunc("POST /api/v1/services", s.requireOrg(s.createService))
	mux.HandleFunc("PUT /api/v1/services/{id}", s.requireOrg(s.updateService))
	mux.HandleFunc("DELETE /api/v1/services/{id}", s.requireOrg(s.deleteService))
	mux.HandleFunc("GET /api/v1/incidents", s.requireOrg(s.listIncidents))
	mux.HandleFunc("POST /api/v1/incidents", s.requireOrg(s.createIncident))
	mux.HandleFunc("GET /api/v1/incidents/{id}", s.requireOrg(s.getIncident))
	mux.HandleFunc("POST /api/v1/incidents/{id}/updates", s.requireOrg(s.appendIncidentUpdate))
	mux.HandleFunc("GET /api/v1/team", s.requireOrg(s.getTeam))
	mux.HandleFunc("POST /api/v1/team/invite", s.requireOrg(s.inviteMember))

	handler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}).Handler(mux)

	handler = logger.NewRequests(log)(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)

	return handler
}

// orgHandler is a dashboard handler with the session's organization scope
// already resolved.
type orgHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// requireOrg authenticates the request and resolves its live session. The
// organization id comes from the session, never from the client, so a
// correctly scoped query cannot cross tenants.
func (s *Server) requireOrg(next orgHandler) http.HandlerFunc {
	if s.auth == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication is not configured")
		}
	}

	return s.auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := login.IdentityFromContext(r.Context())
		if !ok {
			sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "no identity in context")
			return
		}

		log := zerolog.Ctx(r.Context())

		sess, err := s.sessions.get(r.Context(), *identity)
		if err != nil {
			sendStoreError(w, log, err)
			return
		}

		next(w, r, sess)
	})
}

// logout clears the session cookie and releases the live session.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if identity, err := s.auth.GetIdentity(r); err == nil {
		s.sessions.close(identity.Subject)
	}
	s.auth.LogoutHandler(w, r)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sendJSON(w, http.StatusOK, sess.Profile())
}
