package dto

import (
	"techblog/internal/domain/models"
)

func NewBlogPostResponse(post *models.BlogPost) *BlogPostResponse {
	contents := make([]ContentBlock, 0, len(post.Contents))
	for _, block := range post.Contents {
		contents = append(contents, newContentBlock(block))
	}

	return &BlogPostResponse{
		ID:             post.ID,
		Title:          post.Title,
		Thumbnail:      NewImageResponse(post.Thumbnail),
		PostDate:       Date(post.PostDate),
		LastUpdateDate: Date(post.LastUpdateDate),
		PublishedAt:    post.PublishedAt.UTC(),
		Contents:       contents,
	}
}

func NewBlogPostResponses(posts []models.BlogPost) []BlogPostResponse {
	responses := make([]BlogPostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, *NewBlogPostResponse(&posts[i]))
	}
	return responses
}

func NewImageResponse(image models.Image) ImageResponse {
	return ImageResponse{ID: image.ID, Path: image.Path}
}

func newContentBlock(block models.ContentBlock) ContentBlock {
	switch blk := block.(type) {
	case models.H2Block:
		return ContentBlock{ID: blk.ID, Type: string(models.ContentTypeH2), Text: blk.Text}

	case models.H3Block:
		return ContentBlock{ID: blk.ID, Type: string(models.ContentTypeH3), Text: blk.Text}

	case models.ParagraphBlock:
		runs := make([]RichTextRun, 0, len(blk.Text))
		for _, run := range blk.Text {
			r := RichTextRun{
				Text: run.Text,
				Styles: RichTextStyles{
					Bold:       run.Styles.Bold,
					InlineCode: run.Styles.InlineCode,
				},
			}
			if run.Link != nil {
				r.Link = &RichTextLink{URL: run.Link.URL}
			}
			runs = append(runs, r)
		}
		return ContentBlock{ID: blk.ID, Type: string(models.ContentTypeParagraph), Runs: runs}

	case models.ImageBlock:
		image := NewImageResponse(blk.Image)
		return ContentBlock{
			ID:    blk.ID,
			Type:  string(models.ContentTypeImage),
			Image: &ImageRef{ID: image.ID, Path: image.Path},
		}

	case models.CodeBlock:
		return ContentBlock{
			ID:       blk.ID,
			Type:     string(models.ContentTypeCode),
			Title:    blk.Title,
			Code:     blk.Code,
			Language: blk.Language,
		}

	default:
		return ContentBlock{}
	}
}
