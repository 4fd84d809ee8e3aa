package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/middleware"
	"github.com/scrob-fm/scrob/internal/repo"
)

// Deps is everything the HTTP surface needs, constructed in main and passed
// down explicitly. No package-level state.
type Deps struct {
	Sessions  *auth.Service
	Resolver  *auth.Resolver
	Users     *repo.UserRepo
	Tokens    *repo.TokenRepo
	Scrobbles *repo.ScrobbleRepo

	GraphQL http.Handler

	CORSAllowedOrigins []string
	HSTS               bool
}

// NewRouter wires the REST surface, the GraphQL endpoint, health and
// metrics onto one chi router.
func NewRouter(d Deps) http.Handler {
	authH := &AuthHandler{Sessions: d.Sessions}
	scrobbleH := &ScrobbleHandler{Scrobbles: d.Scrobbles}
	statsH := &StatsHandler{Scrobbles: d.Scrobbles}
	settingsH := &SettingsHandler{Users: d.Users}
	tokenH := &TokenHandler{Sessions: d.Sessions, Tokens: d.Tokens}
	adminH := &AdminHandler{Users: d.Users, Scrobbles: d.Scrobbles}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(d.HSTS))
	r.Use(middleware.CORS(d.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/signup", authH.Signup)
	r.Post("/auth/login", authH.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Resolver))

		// GraphQL resolves identity per field; the handler sees the user
		// from the context when one was presented.
		if d.GraphQL != nil {
			r.Handle("/graphql", d.GraphQL)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Post("/now-playing", scrobbleH.NowPlaying)
			r.Post("/scrobble", scrobbleH.Scrobble)

			r.Get("/scrobbles/recent", statsH.Recent)
			r.Get("/stats/top-artists", statsH.TopArtists)
			r.Get("/stats/top-tracks", statsH.TopTracks)

			r.Get("/settings/privacy", settingsH.GetPrivacy)
			r.Put("/settings/privacy", settingsH.UpdatePrivacy)

			r.Get("/tokens", tokenH.List)
			r.Post("/tokens", tokenH.Create)
			r.Delete("/tokens/{id}", tokenH.Revoke)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/admin/users", adminH.ListUsers)
			r.Get("/admin/users/{id}", adminH.GetUser)
			r.Delete("/admin/users/{id}", adminH.DeleteUser)
			r.Put("/admin/users/{id}/admin", adminH.SetAdmin)
			r.Get("/admin/stats", adminH.Stats)
			r.Delete("/admin/scrobbles/{id}", adminH.DeleteScrobble)
		})
	})

	return r
}
