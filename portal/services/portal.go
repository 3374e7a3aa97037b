package services

import (
	"log"
	"net/http"
	"os"

	"research_portal/portal/auth"
	"research_portal/portal/config"
	"research_portal/portal/store"
	"research_portal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Portal bundles the portal's HTTP services around a single storage gateway.
type Portal struct {
	dataset DatasetService
	updates UpdateService
	user    UserService

	provider *auth.Provider
}

func NewPortal(gateway store.Gateway, provider *auth.Provider, cfg config.Config) Portal {
	return Portal{
		dataset:  DatasetService{store: gateway, cfg: cfg},
		updates:  UpdateService{store: gateway},
		user:     UserService{provider: provider},
		provider: provider,
	}
}

func (p *Portal) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Post("/token", p.user.Token)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	r.Group(func(r chi.Router) {
		r.Use(p.provider.AuthMiddleware()...)

		r.Post("/upload/", p.dataset.Upload)
		r.Get("/file/{file_id}", p.dataset.Fetch)

		r.Get("/datasets", p.dataset.List)
		r.Route("/dataset/{dataset_id}", func(r chi.Router) {
			r.Get("/", p.dataset.Info)
			r.Get("/updates", p.updates.List)
			r.Post("/updates", p.updates.Record)
		})

		r.With(p.provider.AdminOnly).Post("/user/create", p.user.CreateUser)
	})

	return r
}
