package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentTypeH2        ContentType = "h2"
	ContentTypeH3        ContentType = "h3"
	ContentTypeParagraph ContentType = "paragraph"
	ContentTypeImage     ContentType = "image"
	ContentTypeCode      ContentType = "code"
)

var (
	ErrInvalidTitle     = errors.New("blog post title must not be empty")
	ErrDateOrder        = errors.New("last update date is earlier than post date")
	ErrDuplicateBlockID = errors.New("duplicate content block id")
	ErrInvalidLanguage  = errors.New("code language must match [a-z0-9_+-]+")
	ErrEmptyCode        = errors.New("code block body must not be empty")
)

var languageRegexp = regexp.MustCompile(`^[a-z0-9_+-]+$`)

// UnpublishedPostError возвращается, когда пост с отложенной публикацией
// запрашивают через публичный маршрут.
type UnpublishedPostError struct {
	Title string
}

func (e *UnpublishedPostError) Error() string {
	return fmt.Sprintf("blog post %q is not published yet", e.Title)
}

// TextStyles — набор стилей одного фрагмента текста.
type TextStyles struct {
	Bold       bool
	InlineCode bool
}

type Link struct {
	URL string
}

// RichTextRun — максимальный фрагмент текста с одним набором стилей
// и необязательной ссылкой.
type RichTextRun struct {
	Text   string
	Styles TextStyles
	Link   *Link
}

func (r RichTextRun) sameFormat(other RichTextRun) bool {
	if r.Styles != other.Styles {
		return false
	}
	if (r.Link == nil) != (other.Link == nil) {
		return false
	}
	if r.Link != nil && r.Link.URL != other.Link.URL {
		return false
	}
	return true
}

type RichText []RichTextRun

// NewRichText склеивает соседние фрагменты с одинаковыми стилями и ссылкой.
// Операция идемпотентна: повторная нормализация ничего не меняет.
func NewRichText(runs []RichTextRun) RichText {
	if len(runs) == 0 {
		return RichText{}
	}

	normalized := make(RichText, 0, len(runs))
	for _, run := range runs {
		if n := len(normalized); n > 0 && normalized[n-1].sameFormat(run) {
			normalized[n-1].Text += run.Text
			continue
		}
		normalized = append(normalized, run)
	}

	return normalized
}

// PlainText возвращает текст абзаца без стилей.
func (rt RichText) PlainText() string {
	var b strings.Builder
	for _, run := range rt {
		b.WriteString(run.Text)
	}
	return b.String()
}

// ContentBlock — один элемент упорядоченного тела поста.
type ContentBlock interface {
	BlockID() uuid.UUID
	Type() ContentType
}

type H2Block struct {
	ID   uuid.UUID
	Text string
}

func (b H2Block) BlockID() uuid.UUID { return b.ID }
func (b H2Block) Type() ContentType  { return ContentTypeH2 }

type H3Block struct {
	ID   uuid.UUID
	Text string
}

func (b H3Block) BlockID() uuid.UUID { return b.ID }
func (b H3Block) Type() ContentType  { return ContentTypeH3 }

type ParagraphBlock struct {
	ID   uuid.UUID
	Text RichText
}

func (b ParagraphBlock) BlockID() uuid.UUID { return b.ID }
func (b ParagraphBlock) Type() ContentType  { return ContentTypeParagraph }

type ImageBlock struct {
	ID    uuid.UUID
	Image Image
}

func (b ImageBlock) BlockID() uuid.UUID { return b.ID }
func (b ImageBlock) Type() ContentType  { return ContentTypeImage }

type CodeBlock struct {
	ID       uuid.UUID
	Title    string
	Code     string
	Language string
}

func (b CodeBlock) BlockID() uuid.UUID { return b.ID }
func (b CodeBlock) Type() ContentType  { return ContentTypeCode }

// NewCodeBlock проверяет тег языка (строчные ascii: [a-z0-9_+-]+)
// и непустое тело сниппета.
func NewCodeBlock(id uuid.UUID, title, code, language string) (CodeBlock, error) {
	if !languageRegexp.MatchString(language) {
		return CodeBlock{}, fmt.Errorf("%w: %q", ErrInvalidLanguage, language)
	}
	if code == "" {
		return CodeBlock{}, ErrEmptyCode
	}

	return CodeBlock{
		ID:       id,
		Title:    title,
		Code:     code,
		Language: language,
	}, nil
}

// BlogPost — корень агрегата. Владеет списком блоков контента,
// миниатюра ссылается на разделяемую сущность Image.
type BlogPost struct {
	ID             uuid.UUID
	Title          string
	Thumbnail      Image
	PostDate       time.Time // календарная дата первой публикации текста
	LastUpdateDate time.Time // календарная дата последней правки
	PublishedAt    time.Time // UTC; значение в будущем = отложенная публикация
	Contents       []ContentBlock
}

// AssembleBlogPost собирает агрегат и проверяет его инварианты:
// непустой заголовок, порядок дат, уникальность id блоков.
func AssembleBlogPost(
	id uuid.UUID,
	title string,
	thumbnail Image,
	postDate time.Time,
	lastUpdateDate time.Time,
	publishedAt time.Time,
	contents []ContentBlock,
) (*BlogPost, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrInvalidTitle
	}
	if lastUpdateDate.Before(postDate) {
		return nil, ErrDateOrder
	}

	seen := make(map[uuid.UUID]struct{}, len(contents))
	for _, block := range contents {
		if _, ok := seen[block.BlockID()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBlockID, block.BlockID())
		}
		seen[block.BlockID()] = struct{}{}
	}

	return &BlogPost{
		ID:             id,
		Title:          title,
		Thumbnail:      thumbnail,
		PostDate:       postDate,
		LastUpdateDate: lastUpdateDate,
		PublishedAt:    publishedAt,
		Contents:       contents,
	}, nil
}

// IsPublic сообщает, виден ли пост публично на момент now.
func (p *BlogPost) IsPublic(now time.Time) bool {
	return !p.PublishedAt.After(now)
}
