package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"techblog/internal/domain/models"
	"techblog/internal/lib/logger/sl"
	blogsvc "techblog/internal/services/blog_service"
	curatedsvc "techblog/internal/services/curated_service"
	"techblog/internal/storage"
	"techblog/internal/transport/http/dto"
	"techblog/internal/transport/http/dto/response"
)

type BlogService interface {
	CreatePost(ctx context.Context, req dto.CreateBlogPostRequest) (*dto.BlogPostResponse, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, req dto.UpdateBlogPostRequest) (*dto.BlogPostResponse, error)
	GetPostByID(ctx context.Context, id uuid.UUID) (*dto.BlogPostResponse, error)
	GetAdminPostByID(ctx context.Context, id uuid.UUID) (*dto.BlogPostResponse, error)
	ListLatestPosts(ctx context.Context, limit int) ([]dto.BlogPostResponse, error)
	ListAllPosts(ctx context.Context) ([]dto.BlogPostResponse, error)
}

type CuratedService interface {
	GetPickUp(ctx context.Context) ([]dto.BlogPostResponse, error)
	GetPopular(ctx context.Context) ([]dto.BlogPostResponse, error)
	GetTopTechPick(ctx context.Context) (*dto.BlogPostResponse, error)
	SelectPickUp(ctx context.Context, ids []uuid.UUID) error
	SelectPopular(ctx context.Context, ids []uuid.UUID) error
	SelectTopTechPick(ctx context.Context, id uuid.UUID) error
}

type ImageService interface {
	RegisterImage(ctx context.Context, path string) (*dto.ImageResponse, error)
	ListImages(ctx context.Context) ([]dto.ImageResponse, error)
}

type Routers struct {
	log            *slog.Logger
	BlogService    BlogService
	CuratedService CuratedService
	ImageService   ImageService
}

func NewRouter(log *slog.Logger, blogService BlogService, curatedService CuratedService, imageService ImageService) *Routers {
	return &Routers{
		log:            log,
		BlogService:    blogService,
		CuratedService: curatedService,
		ImageService:   imageService,
	}
}

// GetPost godoc
// @Summary Опубликованный пост по id
// @Tags blog
// @Produce json
// @Param id path string true "UUID поста" format(uuid)
// @Success 200 {object} dto.BlogPostResponse
// @Failure 404 {object} response.Error
// @Router /blog/posts/{id} [get]
func (r *Routers) GetPost(c echo.Context) error {
	const op = "http.routers.GetPost"
	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.NewError("invalid post id"))
	}

	post, err := r.BlogService.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

// ListLatestPosts godoc
// @Summary Лента опубликованных постов, новые сверху
// @Tags blog
// @Produce json
// @Param limit query int false "максимум постов в ответе"
// @Success 200 {array} dto.BlogPostResponse
// @Router /blog/posts [get]
func (r *Routers) ListLatestPosts(c echo.Context) error {
	const op = "http.routers.ListLatestPosts"
	log := r.log.With(slog.String("op", op))

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, response.NewError("invalid limit"))
		}
		limit = parsed
	}

	posts, err := r.BlogService.ListLatestPosts(c.Request().Context(), limit)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, posts)
}

func (r *Routers) GetPickUp(c echo.Context) error {
	const op = "http.routers.GetPickUp"
	log := r.log.With(slog.String("op", op))

	posts, err := r.CuratedService.GetPickUp(c.Request().Context())
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, posts)
}

func (r *Routers) GetPopular(c echo.Context) error {
	const op = "http.routers.GetPopular"
	log := r.log.With(slog.String("op", op))

	posts, err := r.CuratedService.GetPopular(c.Request().Context())
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, posts)
}

// GetTopTechPick godoc
// @Summary Главный пост рубрики top tech pick
// @Tags blog
// @Produce json
// @Success 200 {object} dto.BlogPostResponse
// @Failure 404 {object} response.Error
// @Router /blog/top-tech-pick [get]
func (r *Routers) GetTopTechPick(c echo.Context) error {
	const op = "http.routers.GetTopTechPick"
	log := r.log.With(slog.String("op", op))

	post, err := r.CuratedService.GetTopTechPick(c.Request().Context())
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

func (r *Routers) ListImages(c echo.Context) error {
	const op = "http.routers.ListImages"
	log := r.log.With(slog.String("op", op))

	images, err := r.ImageService.ListImages(c.Request().Context())
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, images)
}

// CreatePost godoc
// @Summary Создание поста
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.CreateBlogPostRequest true "Пост с блоками контента"
// @Success 200 {object} dto.BlogPostResponse
// @Failure 400 {object} response.Error
// @Router /admin/blog/posts [post]
func (r *Routers) CreatePost(c echo.Context) error {
	const op = "http.routers.CreatePost"
	log := r.log.With(slog.String("op", op))

	var req dto.CreateBlogPostRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
	}

	post, err := r.BlogService.CreatePost(c.Request().Context(), req)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

// UpdatePost godoc
// @Summary Полная замена поста
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "UUID поста" format(uuid)
// @Param request body dto.UpdateBlogPostRequest true "Новое содержимое"
// @Success 200 {object} dto.BlogPostResponse
// @Failure 404 {object} response.Error
// @Router /admin/blog/posts/{id} [put]
func (r *Routers) UpdatePost(c echo.Context) error {
	const op = "http.routers.UpdatePost"
	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.NewError("invalid post id"))
	}

	var req dto.UpdateBlogPostRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
	}

	post, err := r.BlogService.UpdatePost(c.Request().Context(), id, req)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

func (r *Routers) ListAllPosts(c echo.Context) error {
	const op = "http.routers.ListAllPosts"
	log := r.log.With(slog.String("op", op))

	posts, err := r.BlogService.ListAllPosts(c.Request().Context())
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, posts)
}

func (r *Routers) GetAdminPost(c echo.Context) error {
	const op = "http.routers.GetAdminPost"
	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.NewError("invalid post id"))
	}

	post, err := r.BlogService.GetAdminPostByID(c.Request().Context(), id)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

// SelectPickUp godoc
// @Summary Замена набора pick-up
// @Tags admin
// @Accept json
// @Param request body dto.SelectPostsRequest true "До трех id постов"
// @Success 204
// @Failure 400 {object} response.Error
// @Router /admin/blog/pickup [put]
func (r *Routers) SelectPickUp(c echo.Context) error {
	return r.selectSet(c, "http.routers.SelectPickUp", r.CuratedService.SelectPickUp)
}

func (r *Routers) SelectPopular(c echo.Context) error {
	return r.selectSet(c, "http.routers.SelectPopular", r.CuratedService.SelectPopular)
}

func (r *Routers) selectSet(c echo.Context, op string, replace func(context.Context, []uuid.UUID) error) error {
	log := r.log.With(slog.String("op", op))

	var req dto.SelectPostsRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
	}

	if err := replace(c.Request().Context(), req.IDs); err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) SelectTopTechPick(c echo.Context) error {
	const op = "http.routers.SelectTopTechPick"
	log := r.log.With(slog.String("op", op))

	var req dto.SelectPostRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
	}

	if err := r.CuratedService.SelectTopTechPick(c.Request().Context(), req.ID); err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RegisterImage godoc
// @Summary Регистрация ассета по пути
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.RegisterImageRequest true "Путь файла"
// @Success 200 {object} dto.ImageResponse
// @Failure 409 {object} response.Error
// @Router /admin/blog/images [post]
func (r *Routers) RegisterImage(c echo.Context) error {
	const op = "http.routers.RegisterImage"
	log := r.log.With(slog.String("op", op))

	var req dto.RegisterImageRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
	}

	image, err := r.ImageService.RegisterImage(c.Request().Context(), req.Path)
	if err != nil {
		return r.errorResponse(c, log, err)
	}

	return c.JSON(http.StatusOK, image)
}

// validationErrs перечисляет ошибки, которые клиент может исправить
// сам; все они отдаются как 400 с собственным сообщением.
var validationErrs = []error{
	models.ErrInvalidTitle,
	models.ErrDateOrder,
	models.ErrDuplicateBlockID,
	models.ErrInvalidLanguage,
	models.ErrEmptyCode,
	models.ErrInvalidImagePath,
	blogsvc.ErrUnknownBlockType,
	blogsvc.ErrMissingBlockImage,
	curatedsvc.ErrTooManyPosts,
	curatedsvc.ErrDuplicatePosts,
	curatedsvc.ErrUnknownPost,
}

func (r *Routers) errorResponse(c echo.Context, log *slog.Logger, err error) error {
	var unpublished *models.UnpublishedPostError

	switch {
	// неопубликованный пост на публичном маршруте намеренно
	// неотличим от отсутствующего
	case errors.As(err, &unpublished),
		errors.Is(err, storage.ErrPostNotFound),
		errors.Is(err, storage.ErrImageNotFound),
		errors.Is(err, storage.ErrTopTechPickNotSet):
		return c.JSON(http.StatusNotFound, response.NewError("not found"))

	case errors.Is(err, storage.ErrImageExists):
		return c.JSON(http.StatusConflict, response.NewError("image already exists"))

	default:
		for _, known := range validationErrs {
			if errors.Is(err, known) {
				return c.JSON(http.StatusBadRequest, response.NewError(err.Error()))
			}
		}

		log.Error("request failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.NewError("internal error"))
	}
}
