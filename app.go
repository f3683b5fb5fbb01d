package main

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/auth"
	"github.com/krishkalaria12/snap-swap/config"
	"github.com/krishkalaria12/snap-swap/database"
	"github.com/krishkalaria12/snap-swap/enhance"
	"github.com/krishkalaria12/snap-swap/facedetect"
	handler "github.com/krishkalaria12/snap-swap/handlers"
	"github.com/krishkalaria12/snap-swap/imagegen"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/router"
	"github.com/krishkalaria12/snap-swap/services"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/krishkalaria12/snap-swap/storage"
	"github.com/krishkalaria12/snap-swap/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// deps is everything a command needs, built once from Settings.
type deps struct {
	settings *config.Settings
	db       *gorm.DB
	rdb      *redis.Client
	archive  *storage.ClientUploader

	tokens    *auth.Service
	store     sidestate.Store
	queue     worker.Queue
	generator imagegen.Generator
	processor *services.Processor
	handlers  *handler.Handler
}

func build(ctx context.Context, settings *config.Settings) (_ *deps, err error) {
	d := &deps{settings: settings}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	if d.db, err = database.Connect(settings.DatabaseURL); err != nil {
		return nil, err
	}

	if settings.SideStateBackend == config.BackendRedis || settings.QueueBackend == config.BackendRedis {
		d.rdb, err = database.ConnectRedis(ctx, database.RedisOptions{
			Addr:     settings.RedisAddr,
			Username: settings.RedisUsername,
			Password: settings.RedisPassword,
			UseTLS:   settings.RedisUseTLS,
		})
		if err != nil {
			return nil, err
		}
	}

	if settings.SideStateBackend == config.BackendRedis {
		d.store = sidestate.NewRedisStore(d.rdb, settings.SideStateTTL)
	} else {
		d.store = sidestate.NewMemoryStore(settings.SideStateTTL)
	}

	var archive storage.Archive
	if settings.GCSBucket != "" {
		if d.archive, err = storage.NewClientUploader(ctx, settings.GCSBucket, settings.GCSPrefix); err != nil {
			return nil, err
		}
		archive = d.archive
	}

	if d.generator, err = newGenerator(ctx, settings); err != nil {
		return nil, err
	}
	enhancer, err := newEnhancer(ctx, settings)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(d.db)
	uploads := repository.NewUploadRepository(d.db)
	jobs := repository.NewJobRepository(d.db)

	d.processor = services.NewProcessor(jobs, d.store, d.generator, archive)

	if settings.QueueBackend == config.BackendRedis {
		d.queue = worker.NewRedisQueue(d.rdb)
	} else {
		d.queue = worker.NewPool(context.WithoutCancel(ctx), settings.Workers, settings.QueueSize, d.processor.Process)
	}

	d.tokens = auth.NewService(settings.JWTSecret, "snap-swap", settings.TokenTTL)
	detector := facedetect.NewRandomDetector(nil)

	d.handlers = handler.New(handler.Services{
		Users:   services.NewUserService(users, uploads, jobs, d.store, d.tokens),
		Uploads: services.NewUploadService(uploads, d.store, detector),
		Jobs:    services.NewJobService(jobs, uploads, d.store, d.queue, archive != nil),
		Results: services.NewResultService(jobs, d.store, archive, d.generator.Model()),
		Prompts: services.NewPromptService(enhancer),
	}, strings.HasPrefix(settings.AppURL, "https://"))

	log.Info().
		Str("generator", d.generator.Model()).
		Str("enhancer", settings.Enhancer).
		Str("side_state", settings.SideStateBackend).
		Str("queue", settings.QueueBackend).
		Bool("archive", archive != nil).
		Msg("Dependencies ready")

	return d, nil
}

func (d *deps) app() *fiber.App {
	return router.New(d.handlers, d.tokens, d.settings.BodyLimit())
}

func (d *deps) close() {
	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage client")
		}
	}
	if d.rdb != nil {
		if err := d.rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if err := database.Close(d.db); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}
}

func newGenerator(ctx context.Context, s *config.Settings) (imagegen.Generator, error) {
	switch s.Generator {
	case config.GeneratorGemini:
		return imagegen.NewGemini(ctx, s.GeminiAPIKey, s.GeminiImageModel, s.GenerationRetryDelay)
	case config.GeneratorPlaceholder:
		return imagegen.NewPlaceholder(), nil
	default:
		return imagegen.NewHuggingFace(imagegen.HuggingFaceOptions{
			Token:      s.HuggingFaceToken,
			Model:      s.HuggingFaceModel,
			RetryDelay: s.GenerationRetryDelay,
		}), nil
	}
}

// newEnhancer wraps remote enhancers with the local keyword fallback.
func newEnhancer(ctx context.Context, s *config.Settings) (enhance.Enhancer, error) {
	switch s.Enhancer {
	case config.EnhancerGroq:
		return enhance.WithFallback(enhance.NewGroq(enhance.GroqOptions{APIKey: s.GroqAPIKey, Model: s.GroqModel})), nil
	case config.EnhancerGemini:
		g, err := enhance.NewGemini(ctx, s.GeminiAPIKey, s.GeminiTextModel)
		if err != nil {
			return nil, err
		}
		return enhance.WithFallback(g), nil
	default:
		return enhance.Keyword{}, nil
	}
}
