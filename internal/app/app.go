package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "techblog/internal/app/http"
	"techblog/internal/config"
	"techblog/internal/repository"
	blogsvc "techblog/internal/services/blog_service"
	curatedsvc "techblog/internal/services/curated_service"
	imagesvc "techblog/internal/services/image_service"
	"techblog/internal/storage/postgresql"
	httprouters "techblog/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
	storage    *postgresql.Storage
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	repos := repository.NewRepository(storage.Pool())

	blogService := blogsvc.NewBlogService(log, repos.BlogPosts)
	curatedService := curatedsvc.NewCuratedService(log, repos.CuratedSets, repos.BlogPosts)
	imageService := imagesvc.NewImageService(log, repos.Images)

	routers := httprouters.NewRouter(log, blogService, curatedService, imageService)
	server := httpapp.New(log, cfg.Env, cfg.HTTP.Host, cfg.HTTP.Port, routers)

	return &App{
		HTTPServer: server,
		storage:    storage,
	}, nil
}

func (a *App) Stop() {
	a.HTTPServer.Stop()
	a.storage.Stop()
}
