package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	d := Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, d.Time().Equal(parsed.Time()))

	assert.Error(t, json.Unmarshal([]byte(`"01.03.2024"`), &parsed))
}

func TestContentBlock_MarshalJSON(t *testing.T) {
	blockID := uuid.MustParse("6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1")
	imageID := uuid.MustParse("8a1b8f0c-32e4-4ac5-b5a5-0c6a2bb43a10")

	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{
			name:  "h2 text is a string",
			block: ContentBlock{ID: blockID, Type: "h2", Text: "Intro"},
			want:  `{"id":"6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1","type":"h2","text":"Intro"}`,
		},
		{
			name: "paragraph text is a run array",
			block: ContentBlock{ID: blockID, Type: "paragraph", Runs: []RichTextRun{
				{Text: "use ", Styles: RichTextStyles{}},
				{Text: "pgx", Styles: RichTextStyles{InlineCode: true}},
			}},
			want: `{"id":"6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1","type":"paragraph","text":[{"text":"use ","styles":{"bold":false,"inlineCode":false}},{"text":"pgx","styles":{"bold":false,"inlineCode":true}}]}`,
		},
		{
			name:  "paragraph with no runs marshals an empty array",
			block: ContentBlock{ID: blockID, Type: "paragraph"},
			want:  `{"id":"6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1","type":"paragraph","text":[]}`,
		},
		{
			name:  "image block",
			block: ContentBlock{ID: blockID, Type: "image", Image: &ImageRef{ID: imageID, Path: "images/pic.png"}},
			want:  `{"id":"6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1","type":"image","image":{"id":"8a1b8f0c-32e4-4ac5-b5a5-0c6a2bb43a10","path":"images/pic.png"}}`,
		},
		{
			name:  "code block",
			block: ContentBlock{ID: blockID, Type: "code", Title: "main.go", Code: "func main() {}", Language: "go"},
			want:  `{"id":"6c1f5f6e-0db4-4bb8-9f2e-55157500a2a1","type":"code","title":"main.go","code":"func main() {}","language":"go"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.block)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := json.Marshal(ContentBlock{Type: "table"})
		assert.Error(t, err)
	})
}

func TestContentBlock_UnmarshalJSON(t *testing.T) {
	t.Run("heading", func(t *testing.T) {
		var block ContentBlock
		require.NoError(t, json.Unmarshal([]byte(`{"type":"h3","text":"Details"}`), &block))

		assert.Equal(t, "h3", block.Type)
		assert.Equal(t, "Details", block.Text)
		assert.Equal(t, uuid.Nil, block.ID)
	})

	t.Run("paragraph with styled runs and link", func(t *testing.T) {
		payload := `{
			"type": "paragraph",
			"text": [
				{"text": "read the ", "styles": {"bold": false, "inlineCode": false}},
				{"text": "docs", "styles": {"bold": true, "inlineCode": false}, "link": {"url": "https://go.dev"}}
			]
		}`

		var block ContentBlock
		require.NoError(t, json.Unmarshal([]byte(payload), &block))

		require.Len(t, block.Runs, 2)
		assert.Equal(t, "read the ", block.Runs[0].Text)
		assert.True(t, block.Runs[1].Styles.Bold)
		require.NotNil(t, block.Runs[1].Link)
		assert.Equal(t, "https://go.dev", block.Runs[1].Link.URL)
	})

	t.Run("paragraph text as string fails", func(t *testing.T) {
		var block ContentBlock
		err := json.Unmarshal([]byte(`{"type":"paragraph","text":"oops"}`), &block)
		assert.Error(t, err)
	})

	t.Run("heading text as array fails", func(t *testing.T) {
		var block ContentBlock
		err := json.Unmarshal([]byte(`{"type":"h2","text":[{"text":"oops"}]}`), &block)
		assert.Error(t, err)
	})

	t.Run("unknown type fails", func(t *testing.T) {
		var block ContentBlock
		err := json.Unmarshal([]byte(`{"type":"video"}`), &block)
		assert.Error(t, err)
	})

	t.Run("round trip keeps every variant", func(t *testing.T) {
		blocks := []ContentBlock{
			{ID: uuid.New(), Type: "h2", Text: "Intro"},
			{ID: uuid.New(), Type: "paragraph", Runs: []RichTextRun{{Text: "hello"}}},
			{ID: uuid.New(), Type: "image", Image: &ImageRef{ID: uuid.New(), Path: "images/p.png"}},
			{ID: uuid.New(), Type: "code", Title: "t", Code: "c", Language: "go"},
		}

		data, err := json.Marshal(blocks)
		require.NoError(t, err)

		var parsed []ContentBlock
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, blocks, parsed)
	})
}
