package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router registers a group of routes on the app
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// HttpRouter sets up the archive uploader and the controllers the API
	// adapters use, so it goes first.
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
