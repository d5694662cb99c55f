package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Sardor-M/p-website-backend/models"
)

func TestFromDocumentToleratesMissingFields(t *testing.T) {
	post := fromDocument("abc", map[string]any{})

	assert.Equal(t, "abc", post.ID)
	assert.Equal(t, "", post.Title)
	assert.Equal(t, "10 min read", post.ReadTime)
	assert.NotNil(t, post.Topics)
	assert.True(t, post.CreatedAt.IsZero())
	assert.True(t, post.Content.IsZero())
}

func TestFromDocumentAcceptsNativeAndStringTimes(t *testing.T) {
	native := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	post := fromDocument("abc", map[string]any{
		"date":      "2025-01-01",
		"createdAt": native,
		"updatedAt": timestamppb.New(native.Add(time.Hour)),
	})

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), post.Date)
	assert.Equal(t, native, post.CreatedAt)
	assert.Equal(t, native.Add(time.Hour), post.UpdatedAt)
}

func TestFromDocumentEpochMillis(t *testing.T) {
	post := fromDocument("abc", map[string]any{"createdAt": float64(1735689600000)})
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), post.CreatedAt)
}

func TestFromDocumentLegacyMetadata(t *testing.T) {
	post := fromDocument("abc", map[string]any{
		"title": "Old",
		"metadata": map[string]any{
			"author": map[string]any{"name": "Legacy", "bio": "wrote things"},
			"topics": []any{"go", "history"},
		},
		"author": map[string]any{"name": "Current", "image": "/img.png"},
	})

	assert.Equal(t, "Legacy", post.Author.Name)
	assert.Equal(t, "wrote things", post.Author.Bio)
	assert.Equal(t, "/img.png", post.Author.Image)
	assert.Equal(t, []string{"go", "history"}, post.Topics)
}

func TestFromDocumentContentShapes(t *testing.T) {
	blocks := fromDocument("a", map[string]any{
		"content": []any{map[string]any{"type": "heading", "level": float64(2), "text": "Hi"}},
	})
	require.Len(t, blocks.Content.Blocks, 1)
	assert.Equal(t, 2, blocks.Content.Blocks[0].Level)

	rich := fromDocument("b", map[string]any{
		"content": map[string]any{"html": "<b>x</b>"},
	})
	require.True(t, rich.Content.IsRichText())

	broken := fromDocument("c", map[string]any{"content": "plain string"})
	assert.True(t, broken.Content.IsZero())
}

func TestMemoryQuerySkipsDocumentsWithoutOrderField(t *testing.T) {
	coll := NewMemoryCollection()
	ctx := t.Context()

	require.NoError(t, coll.Set(ctx, "a", map[string]any{"createdAt": time.Unix(1, 0)}))
	require.NoError(t, coll.Set(ctx, "b", map[string]any{"title": "no timestamp"}))

	snaps, err := coll.Query(ctx, Query{OrderBy: "createdAt", Descending: true})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "a", snaps[0].ID)
}

func TestMemoryCollectionCopiesDocuments(t *testing.T) {
	coll := NewMemoryCollection()
	ctx := t.Context()

	doc := map[string]any{"topics": []string{"go"}}
	require.NoError(t, coll.Set(ctx, "a", doc))
	doc["topics"].([]string)[0] = "mutated"

	stored, ok, err := coll.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"go"}, stored["topics"])

	assert.Error(t, coll.Update(ctx, "missing", map[string]any{"x": 1}))
}

func TestFromDocumentLegacyBody(t *testing.T) {
	post := fromDocument("old", map[string]any{
		"title":        "Stacks",
		"introduction": "Why stacks matter.",
		"dataStructures": []any{
			map[string]any{
				"name":        "Stack",
				"description": "Last in, first out.",
				"code":        "s = append(s, x)",
				"language":    "go",
			},
			"A loose note.",
		},
	})

	assert.Equal(t, []models.ContentBlock{
		{Type: "paragraph", Text: "Why stacks matter."},
		{Type: "heading", Level: 2, Text: "Stack"},
		{Type: "paragraph", Text: "Last in, first out."},
		{Type: "code", Language: "go", Content: "s = append(s, x)"},
		{Type: "paragraph", Text: "A loose note."},
	}, post.Content.Blocks)
}

func TestFromDocumentPrefersContentOverLegacyBody(t *testing.T) {
	post := fromDocument("both", map[string]any{
		"introduction": "ignored",
		"content":      []any{map[string]any{"type": "paragraph", "text": "current"}},
	})

	require.Len(t, post.Content.Blocks, 1)
	assert.Equal(t, "current", post.Content.Blocks[0].Text)
}

func TestToDocumentWritesISOStrings(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 5_000_000, time.UTC)
	doc := toDocument(models.BlogPost{Date: at, CreatedAt: at, UpdatedAt: at})

	assert.Equal(t, "2025-03-01T12:00:00.005Z", doc["createdAt"])
	assert.Equal(t, "2025-03-01T12:00:00.005Z", doc["updatedAt"])
	assert.Equal(t, "2025-03-01T12:00:00.005Z", doc["date"])
	assert.Equal(t, at, fromDocument("x", doc).CreatedAt)
}
