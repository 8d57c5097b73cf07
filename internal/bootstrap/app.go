package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"teamslide-backend/internal/shared/config"
	"teamslide-backend/internal/shared/server"
	"teamslide-backend/internal/shared/storage/object"
	localstore "teamslide-backend/internal/shared/storage/object/local"
	s3store "teamslide-backend/internal/shared/storage/object/s3"
	"teamslide-backend/internal/shared/telemetry"
	"teamslide-backend/internal/teamslides"
	"teamslide-backend/slide/rules"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	Rules             rules.Rules
	Library           object.Store
	TeamSlides        *teamslides.Service
	TeamSlidesHandler *teamslides.Handler
}

// Build wires config, CV library, pipeline and router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.CVStoreType) == "" {
		cfg.CVStoreType = "local"
	}
	ctx := context.Background()

	if logger, err := telemetry.New(cfg.LogLevel); err != nil {
		log.Printf("bootstrap: logger init failed; keeping default: %v", err)
	} else {
		telemetry.SetLogger(logger)
	}

	r, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load slide rules: %w", err)
	}

	library, err := BuildLibrary(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := teamslides.NewService(r, library, teamslides.Paths{
		Template:  cfg.TemplatePath,
		Example:   cfg.ExamplePath,
		OutputDir: cfg.OutputDir,
	})
	handler := teamslides.NewHandler(svc)

	app := &App{
		Config:            cfg,
		Rules:             r,
		Library:           library,
		TeamSlides:        svc,
		TeamSlidesHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		TeamSlides: handler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":      cfg.Env,
		"cv_store": cfg.CVStoreType,
		"template": cfg.TemplatePath,
		"rules":    cfg.RulesPath,
	})
	return app, nil
}

// BuildLibrary opens the CV library configured by cfg.
func BuildLibrary(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.CVStoreType {
	case "s3":
		if strings.TrimSpace(cfg.CVS3Bucket) == "" {
			return nil, fmt.Errorf("CV_STORE=s3 requires CV_S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.CVS3Bucket, cfg.CVS3Prefix)
	default:
		return localstore.New(cfg.CVDir), nil
	}
}
