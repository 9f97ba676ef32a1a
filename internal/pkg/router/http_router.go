package router

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PurchaseDesk/app/controllers"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/archive"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/middleware"
)

type HttpRouter struct {
	admin middleware.AdminCredentials
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize report controllers with repositories
	controllers.InitializeReportController(newArchiveUploader())

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{admin: middleware.LoadAdminCredentials()}
}

// newArchiveUploader returns nil when archiving is off or the bucket is unreachable
func newArchiveUploader() archive.Uploader {
	cfg, err := archive.LoadConfig()
	if err != nil {
		log.Warnf("[Archive] invalid configuration, archiving disabled: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := archive.NewClient(ctx, cfg)
	if errors.Is(err, archive.ErrDisabled) {
		log.Info("[Archive] S3 archiving disabled")
		return nil
	}
	if err != nil {
		log.Errorf("[Archive] failed to connect, archiving disabled: %v", err)
		return nil
	}

	log.Infof("[Archive] archiving exports to bucket %s", cfg.BucketName)
	return client
}
