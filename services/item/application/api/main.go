package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/auth"
	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/services/item/application/handlers"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// ItemRoutes registers the login endpoint and the items resource on r.
// Item routes require a bearer ID token issued by a.Identity.
func ItemRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	Register(r, svcs.Item, a)
}

// Register mounts the routes for an already wired item service.
func Register(r chi.Router, items handlers.ItemService, a *app.Application) {
	resource := handlers.NewResourceHandler(items, a.Logger, handlers.ResourceConfig{
		AllowOrigin: httpx.AllowOrigin(a.Config.CORSAllowedOrigins),
		Metrics:     a.Metrics,
	})

	r.Post("/auth/login", handlers.NewLoginHandler(a.Identity, a.Logger).Execute)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer(a.Identity, a.Logger))
		r.Route("/items", func(r chi.Router) {
			r.Get("/", resource.ListItems)
			r.Post("/", resource.CreateItem)
			r.Get("/{id}", resource.GetItem)
			r.Put("/{id}", resource.UpdateItem)
			r.Delete("/{id}", resource.DeleteItem)
			r.MethodNotAllowed(resource.ServeHTTP)
		})
	})
}
