package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appmiddleware "techblog/internal/middleware"
	httprouters "techblog/internal/transport/http"
)

const envProd = "prod"

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
}

func New(log *slog.Logger, env, host, port string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Validator = &CustomValidator{validator: validator.New()}

	// Разрешающий CORS только вне прода: локально фронт ходит с другого порта.
	if env != envProd {
		e.Use(middleware.CORS())
	}

	e.Use(middleware.Recover())
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    host,
		port:    port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) BuildRouters() {
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	blog := s.e.Group("/blog")
	{
		blog.GET("/posts", s.routers.ListLatestPosts)
		blog.GET("/posts/:id", s.routers.GetPost)
		blog.GET("/pickup", s.routers.GetPickUp)
		blog.GET("/popular", s.routers.GetPopular)
		blog.GET("/top-tech-pick", s.routers.GetTopTechPick)
		blog.GET("/images", s.routers.ListImages)
	}

	admin := s.e.Group("/admin/blog")
	{
		admin.POST("/posts", s.routers.CreatePost)
		admin.PUT("/posts/:id", s.routers.UpdatePost)
		admin.GET("/posts", s.routers.ListAllPosts)
		admin.GET("/posts/:id", s.routers.GetAdminPost)
		admin.PUT("/pickup", s.routers.SelectPickUp)
		admin.PUT("/popular", s.routers.SelectPopular)
		admin.PUT("/top-tech-pick", s.routers.SelectTopTechPick)
		admin.POST("/images", s.routers.RegisterImage)
	}
}
