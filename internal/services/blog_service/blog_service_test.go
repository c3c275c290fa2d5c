package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techblog/internal/domain/models"
	"techblog/internal/storage"
	"techblog/internal/transport/http/dto"
)

// MockBlogRepository реализация мок-репозитория
type MockBlogRepository struct {
	mock.Mock
}

func (m *MockBlogRepository) Find(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogRepository) FindAdmin(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogRepository) ListLatest(ctx context.Context, limit int) ([]models.BlogPost, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlogPost), args.Error(1)
}

func (m *MockBlogRepository) ListAdminAll(ctx context.Context) ([]models.BlogPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlogPost), args.Error(1)
}

func (m *MockBlogRepository) Create(ctx context.Context, post *models.BlogPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockBlogRepository) Update(ctx context.Context, post *models.BlogPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func storedPost(id uuid.UUID, title string, publishedAt time.Time) *models.BlogPost {
	post, err := models.AssembleBlogPost(
		id,
		title,
		models.Image{ID: uuid.New(), Path: "images/thumb.png"},
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		publishedAt,
		[]models.ContentBlock{
			models.H2Block{ID: uuid.New(), Text: "Intro"},
		},
	)
	if err != nil {
		panic(err)
	}
	return post
}

func validCreateRequest() dto.CreateBlogPostRequest {
	return dto.CreateBlogPostRequest{
		Title:          "Test Post",
		Thumbnail:      dto.ImageRef{Path: "images/thumb.png"},
		PostDate:       dto.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		LastUpdateDate: dto.Date(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
		PublishedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Contents: []dto.ContentBlock{
			{Type: "h2", Text: "Intro"},
			{Type: "paragraph", Runs: []dto.RichTextRun{{Text: "hello"}}},
			{Type: "code", Title: "main.go", Code: "func main() {}", Language: "go"},
		},
	}
}

func TestBlogService_CreatePost(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	tests := []struct {
		name      string
		mutate    func(req *dto.CreateBlogPostRequest)
		mockSetup func(mockRepo *MockBlogRepository)
		wantErr   error
	}{
		{
			name:   "successful creation mints block ids",
			mutate: func(req *dto.CreateBlogPostRequest) {},
			mockSetup: func(mockRepo *MockBlogRepository) {
				mockRepo.On("Create", ctx, mock.AnythingOfType("*models.BlogPost")).
					Run(func(args mock.Arguments) {
						post := args.Get(1).(*models.BlogPost)
						assert.NotEqual(t, uuid.Nil, post.ID)
						for _, block := range post.Contents {
							assert.NotEqual(t, uuid.Nil, block.BlockID())
						}
					}).
					Return(nil).Once()

				mockRepo.On("FindAdmin", ctx, mock.AnythingOfType("uuid.UUID")).
					Return(storedPost(uuid.New(), "Test Post", time.Now().UTC()), nil).Once()
			},
		},
		{
			name: "missing title",
			mutate: func(req *dto.CreateBlogPostRequest) {
				req.Title = ""
			},
			mockSetup: func(mockRepo *MockBlogRepository) {},
			wantErr:   models.ErrInvalidTitle,
		},
		{
			name: "last update before post date",
			mutate: func(req *dto.CreateBlogPostRequest) {
				req.LastUpdateDate = dto.Date(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
			},
			mockSetup: func(mockRepo *MockBlogRepository) {},
			wantErr:   models.ErrDateOrder,
		},
		{
			name: "unknown block type",
			mutate: func(req *dto.CreateBlogPostRequest) {
				req.Contents = []dto.ContentBlock{{Type: "table"}}
			},
			mockSetup: func(mockRepo *MockBlogRepository) {},
			wantErr:   ErrUnknownBlockType,
		},
		{
			name: "invalid code language",
			mutate: func(req *dto.CreateBlogPostRequest) {
				req.Contents = []dto.ContentBlock{{Type: "code", Code: "x", Language: "C Sharp"}}
			},
			mockSetup: func(mockRepo *MockBlogRepository) {},
			wantErr:   models.ErrInvalidLanguage,
		},
		{
			name: "image block without image",
			mutate: func(req *dto.CreateBlogPostRequest) {
				req.Contents = []dto.ContentBlock{{Type: "image"}}
			},
			mockSetup: func(mockRepo *MockBlogRepository) {},
			wantErr:   ErrMissingBlockImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockBlogRepository)
			service := NewBlogService(log, mockRepo)

			req := validCreateRequest()
			tt.mutate(&req)
			tt.mockSetup(mockRepo)

			resp, err := service.CreatePost(ctx, req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, "Test Post", resp.Title)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBlogService_UpdatePost(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	postID := uuid.New()

	t.Run("successful full replacement", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("Update", ctx, mock.AnythingOfType("*models.BlogPost")).
			Run(func(args mock.Arguments) {
				post := args.Get(1).(*models.BlogPost)
				assert.Equal(t, postID, post.ID)
			}).
			Return(nil).Once()
		mockRepo.On("FindAdmin", ctx, postID).
			Return(storedPost(postID, "Test Post", time.Now().UTC()), nil).Once()

		req := dto.UpdateBlogPostRequest(validCreateRequest())
		resp, err := service.UpdatePost(ctx, postID, req)

		require.NoError(t, err)
		assert.Equal(t, postID, resp.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown post id", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("Update", ctx, mock.AnythingOfType("*models.BlogPost")).
			Return(storage.ErrPostNotFound).Once()

		req := dto.UpdateBlogPostRequest(validCreateRequest())
		_, err := service.UpdatePost(ctx, postID, req)

		assert.ErrorIs(t, err, storage.ErrPostNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestBlogService_GetPostByID(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	postID := uuid.New()

	t.Run("published post", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("Find", ctx, postID).
			Return(storedPost(postID, "Visible", time.Now().Add(-time.Hour).UTC()), nil).Once()

		resp, err := service.GetPostByID(ctx, postID)

		require.NoError(t, err)
		assert.Equal(t, "Visible", resp.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unpublished post is reported separately", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("Find", ctx, postID).
			Return(nil, storage.ErrPostNotFound).Once()
		mockRepo.On("FindAdmin", ctx, postID).
			Return(storedPost(postID, "Scheduled", time.Now().Add(time.Hour).UTC()), nil).Once()

		_, err := service.GetPostByID(ctx, postID)

		var unpublished *models.UnpublishedPostError
		require.ErrorAs(t, err, &unpublished)
		assert.Equal(t, "Scheduled", unpublished.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing post", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("Find", ctx, postID).
			Return(nil, storage.ErrPostNotFound).Once()
		mockRepo.On("FindAdmin", ctx, postID).
			Return(nil, storage.ErrPostNotFound).Once()

		_, err := service.GetPostByID(ctx, postID)

		assert.ErrorIs(t, err, storage.ErrPostNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestBlogService_ListLatestPosts(t *testing.T) {
	ctx := context.Background()
	log := slog.Default()

	t.Run("limit is clamped", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		mockRepo.On("ListLatest", ctx, 100).
			Return([]models.BlogPost{}, nil).Once()

		resp, err := service.ListLatestPosts(ctx, 1000)

		require.NoError(t, err)
		assert.Empty(t, resp)
		mockRepo.AssertExpectations(t)
	})

	t.Run("limit passed through", func(t *testing.T) {
		mockRepo := new(MockBlogRepository)
		service := NewBlogService(log, mockRepo)

		posts := []models.BlogPost{*storedPost(uuid.New(), "One", time.Now().UTC())}
		mockRepo.On("ListLatest", ctx, 5).
			Return(posts, nil).Once()

		resp, err := service.ListLatestPosts(ctx, 5)

		require.NoError(t, err)
		assert.Len(t, resp, 1)
		mockRepo.AssertExpectations(t)
	})
}
