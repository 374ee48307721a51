package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"legacy-keeper-go/internal/config"
	"legacy-keeper-go/internal/transport/httpserver/handler"
	authmw "legacy-keeper-go/internal/transport/httpserver/middleware"
	"legacy-keeper-go/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, roles authmw.RoleResolver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		r.Get("/nominee-onboarding", handlers.Nominees.GetDetails)
		r.Post("/nominee-onboarding/verify", handlers.Nominees.Verify)
		r.Get("/trustee-onboarding", handlers.Trustees.GetInvitationByToken)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Use(authmw.RoleContext(roles, log))

			r.Get("/auth/me", handlers.Common.AuthMe)
			r.Get("/me/context", handlers.Common.MeContext)

			r.Get("/trustees", handlers.Trustees.ListTrustees)
			r.Post("/trustees", handlers.Trustees.CreateTrustee)
			r.Get("/trustees/count", handlers.Trustees.CountTrustees)
			r.Put("/trustees/{id}", handlers.Trustees.UpdateTrustee)
			r.Delete("/trustees/{id}", handlers.Trustees.DeleteTrustee)
			r.Post("/trustees/{id}/invite", handlers.Trustees.ReissueInvitation)

			r.Get("/trustee-onboarding/session", handlers.Trustees.GetSessionInvitation)
			r.Post("/trustee-onboarding/accept", handlers.Trustees.AcceptInvitation)
			r.Post("/trustee-onboarding/reject", handlers.Trustees.RejectInvitation)

			r.Get("/nominees", handlers.Nominees.ListNominees)
			r.Post("/nominees", handlers.Nominees.CreateNominee)
			r.Get("/nominees/{id}", handlers.Nominees.GetNominee)
			r.Put("/nominees/{id}", handlers.Nominees.UpdateNominee)
			r.Delete("/nominees/{id}", handlers.Nominees.DeleteNominee)
			r.Post("/nominees/{id}/invite", handlers.Nominees.SendInvitation)

			r.Get("/trustee-nominee-requests", handlers.Approvals.Board)
			r.Post("/send-nominee-request", handlers.Approvals.SendRequest)
			r.Post("/add-nominee-role", handlers.Approvals.AddNominee)
			r.Post("/trustee/nominees/approve", handlers.Approvals.ApproveAll)
			r.Post("/trustee/nominees/reject", handlers.Approvals.RejectAll)
		})
	})

	return r
}
