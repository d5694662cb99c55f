package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sardor-M/p-website-backend/docstore"
	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/models"
)

func tickingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func newTestService(t *testing.T) *BlogService {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := docstore.NewBlogRepo(docstore.NewMemoryCollection(), docstore.WithClock(tickingClock(start, time.Second)))
	return NewBlogService(repo)
}

func createInput(title string, topics ...string) models.CreateBlogPost {
	return models.CreateBlogPost{
		Title:    title,
		Date:     &models.FlexibleTime{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		Author:   models.Author{Name: "Sardor"},
		ReadTime: "3 min",
		Topics:   topics,
		Content:  models.NewBlockContent(models.ContentBlock{Type: "paragraph", Text: "hello"}),
	}
}

func TestCreateThenFindOne(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput("First", "go"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	found, err := svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "First", found.Title)
	assert.Equal(t, []string{"go"}, found.Topics)
}

func TestCreateWithoutTopicsStoresEmptyList(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(context.Background(), createInput("No topics"))
	require.NoError(t, err)
	assert.NotNil(t, created.Topics)
	assert.Empty(t, created.Topics)
}

func TestUpdateKeepsAbsentFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput("Before", "go", "web"))
	require.NoError(t, err)

	title := "After"
	updated, err := svc.Update(ctx, created.ID, models.BlogPostPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.Author, updated.Author)
	assert.Equal(t, created.ReadTime, updated.ReadTime)
	assert.Equal(t, created.Topics, updated.Topics)
	assert.Equal(t, created.Content, updated.Content)
}

func TestMissingPostsAreNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := "7b0c5a4e-1d1f-4c55-9a53-0f1de6a1c3aa"

	_, err := svc.FindOne(ctx, id)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, err.Error(), id)

	title := "x"
	_, err = svc.Update(ctx, id, models.BlogPostPatch{Title: &title})
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), id)

	err = svc.Delete(ctx, id)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), id)
}

func TestDeleteTwice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput("Gone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	_, err = svc.FindOne(ctx, created.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestFindByTopic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, in := range []models.CreateBlogPost{
		createInput("A", "go"),
		createInput("B", "rust"),
		createInput("C", "go", "rust"),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	posts, err := svc.FindByTopic(ctx, "go")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	// newest first
	assert.Equal(t, "C", posts[0].Title)
	assert.Equal(t, "A", posts[1].Title)

	posts, err = svc.FindByTopic(ctx, "python")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFindLatest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := range 4 {
		_, err := svc.Create(ctx, createInput(fmt.Sprintf("post %d", i)))
		require.NoError(t, err)
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"post 3", "post 2"}},
		{limit: 10, want: []string{"post 3", "post 2", "post 1", "post 0"}},
		{limit: 0, want: nil},
		{limit: -3, want: nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			posts, err := svc.FindLatest(ctx, tt.limit)
			require.NoError(t, err)

			var titles []string
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
			for i := 1; i < len(posts); i++ {
				assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
			}
		})
	}
}

func TestFindAllAppliesDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("Only"))
	require.NoError(t, err)

	page, err := svc.FindAll(ctx, models.BlogQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Meta.Total)
	assert.Equal(t, 1, page.Meta.Page)
}

type failingStore struct {
	BlogStore
	err error
}

func (s failingStore) FindOne(context.Context, string) (*models.BlogPost, error) {
	return nil, s.err
}

func (s failingStore) Delete(context.Context, string) (bool, error) {
	return false, s.err
}

func TestStoreErrorsPassThrough(t *testing.T) {
	storeErr := errs.NewDocumentStoreError("read blog post", errors.New("boom"))
	svc := NewBlogService(failingStore{err: storeErr})
	ctx := context.Background()

	_, err := svc.FindOne(ctx, "id")
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, errs.IsNotFound(err))

	err = svc.Delete(ctx, "id")
	assert.ErrorIs(t, err, storeErr)
}
