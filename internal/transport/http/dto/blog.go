package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date — календарная дата без времени, в JSON сериализуется как 2006-01-02.
type Date time.Time

func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(d).Format(dateLayout))), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}

	*d = Date(t)
	return nil
}

type RichTextStyles struct {
	Bold       bool `json:"bold"`
	InlineCode bool `json:"inlineCode"`
}

type RichTextLink struct {
	URL string `json:"url" validate:"required"`
}

type RichTextRun struct {
	Text   string         `json:"text"`
	Styles RichTextStyles `json:"styles"`
	Link   *RichTextLink  `json:"link,omitempty"`
}

type ImageRef struct {
	ID   uuid.UUID `json:"id,omitempty" swaggertype:"string" format:"uuid"`
	Path string    `json:"path" validate:"required"`
}

// ContentBlock — полиморфный блок контента с дискриминатором type.
// Поле text меняет форму: для h2/h3 это строка, для paragraph —
// массив фрагментов, поэтому сериализация написана вручную.
type ContentBlock struct {
	ID       uuid.UUID
	Type     string
	Text     string        // h2, h3
	Runs     []RichTextRun // paragraph
	Image    *ImageRef     // image
	Title    string        // code
	Code     string        // code
	Language string        // code
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case "h2", "h3":
		return json.Marshal(struct {
			ID   uuid.UUID `json:"id"`
			Type string    `json:"type"`
			Text string    `json:"text"`
		}{b.ID, b.Type, b.Text})

	case "paragraph":
		runs := b.Runs
		if runs == nil {
			runs = []RichTextRun{}
		}
		return json.Marshal(struct {
			ID   uuid.UUID     `json:"id"`
			Type string        `json:"type"`
			Text []RichTextRun `json:"text"`
		}{b.ID, b.Type, runs})

	case "image":
		return json.Marshal(struct {
			ID    uuid.UUID `json:"id"`
			Type  string    `json:"type"`
			Image *ImageRef `json:"image"`
		}{b.ID, b.Type, b.Image})

	case "code":
		return json.Marshal(struct {
			ID       uuid.UUID `json:"id"`
			Type     string    `json:"type"`
			Title    string    `json:"title"`
			Code     string    `json:"code"`
			Language string    `json:"language"`
		}{b.ID, b.Type, b.Title, b.Code, b.Language})

	default:
		return nil, fmt.Errorf("unknown content block type %q", b.Type)
	}
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       *uuid.UUID      `json:"id"`
		Type     string          `json:"type"`
		Text     json.RawMessage `json:"text"`
		Image    *ImageRef       `json:"image"`
		Title    string          `json:"title"`
		Code     string          `json:"code"`
		Language string          `json:"language"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = ContentBlock{Type: raw.Type}
	if raw.ID != nil {
		b.ID = *raw.ID
	}

	switch raw.Type {
	case "h2", "h3":
		if len(raw.Text) > 0 {
			if err := json.Unmarshal(raw.Text, &b.Text); err != nil {
				return fmt.Errorf("%s block text: %w", raw.Type, err)
			}
		}

	case "paragraph":
		if len(raw.Text) > 0 {
			if err := json.Unmarshal(raw.Text, &b.Runs); err != nil {
				return fmt.Errorf("paragraph block text: %w", err)
			}
		}

	case "image":
		b.Image = raw.Image

	case "code":
		b.Title = raw.Title
		b.Code = raw.Code
		b.Language = raw.Language

	default:
		return fmt.Errorf("unknown content block type %q", raw.Type)
	}

	return nil
}

type CreateBlogPostRequest struct {
	Title          string         `json:"title" validate:"required"`
	Thumbnail      ImageRef       `json:"thumbnail" validate:"required"`
	PostDate       Date           `json:"postDate" validate:"required"`
	LastUpdateDate Date           `json:"lastUpdateDate" validate:"required"`
	PublishedAt    time.Time      `json:"publishedAt" validate:"required"`
	Contents       []ContentBlock `json:"contents"`
}

// UpdateBlogPostRequest повторяет форму создания: обновление целиком
// заменяет шапку и список блоков, частичного патча нет.
type UpdateBlogPostRequest struct {
	Title          string         `json:"title" validate:"required"`
	Thumbnail      ImageRef       `json:"thumbnail" validate:"required"`
	PostDate       Date           `json:"postDate" validate:"required"`
	LastUpdateDate Date           `json:"lastUpdateDate" validate:"required"`
	PublishedAt    time.Time      `json:"publishedAt" validate:"required"`
	Contents       []ContentBlock `json:"contents"`
}

type BlogPostResponse struct {
	ID             uuid.UUID      `json:"id" swaggertype:"string" format:"uuid"`
	Title          string         `json:"title"`
	Thumbnail      ImageResponse  `json:"thumbnail"`
	PostDate       Date           `json:"postDate"`
	LastUpdateDate Date           `json:"lastUpdateDate"`
	PublishedAt    time.Time      `json:"publishedAt"`
	Contents       []ContentBlock `json:"contents"`
}
