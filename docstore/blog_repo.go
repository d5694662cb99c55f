package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/models"
)

// CollectionName is where blog posts live in the document store.
const CollectionName = "blog_posts"

// BlogRepo stores blog posts as documents keyed by a UUID v4 it generates
// itself. Audit timestamps are stamped here rather than by the store.
type BlogRepo struct {
	coll  Collection
	now   func() time.Time
	newID func() string
}

type Option func(*BlogRepo)

func WithClock(now func() time.Time) Option {
	return func(r *BlogRepo) {
		r.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *BlogRepo) {
		r.newID = newID
	}
}

func NewBlogRepo(coll Collection, opts ...Option) *BlogRepo {
	r := &BlogRepo{
		coll:  coll,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// stamp returns the current time at the precision stored timestamps keep.
func (r *BlogRepo) stamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// Create assigns a new id and sets date, createdAt and updatedAt to the
// same instant.
func (r *BlogRepo) Create(ctx context.Context, post models.BlogPost) (*models.BlogPost, error) {
	now := r.stamp()
	post.ID = r.newID()
	post.Date = now
	post.CreatedAt = now
	post.UpdatedAt = now

	data := toDocument(post)
	if err := r.coll.Set(ctx, post.ID, data); err != nil {
		return nil, errs.NewDocumentStoreError("create blog post", err)
	}

	created := fromDocument(post.ID, data)
	return &created, nil
}

// FindAll returns every post, newest first. The query filters are not
// supported by this backend and are ignored.
func (r *BlogRepo) FindAll(ctx context.Context, _ models.BlogQuery) (models.Page, error) {
	snaps, err := r.coll.Query(ctx, Query{OrderBy: "createdAt", Descending: true})
	if err != nil {
		return models.Page{}, errs.NewDocumentStoreError("list blog posts", err)
	}
	items := fromSnapshots(snaps)
	return models.NewPage(items, int64(len(items)), models.DefaultPage, len(items)), nil
}

func (r *BlogRepo) FindOne(ctx context.Context, id string) (*models.BlogPost, error) {
	if id == "" {
		return nil, nil
	}
	data, ok, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, errs.NewDocumentStoreError("get blog post", err)
	}
	if !ok {
		return nil, nil
	}
	post := fromDocument(id, data)
	return &post, nil
}

// Update overlays the provided fields and returns the document as re-read
// after the write, so concurrent writers are reflected in the result.
func (r *BlogRepo) Update(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error) {
	if id == "" {
		return nil, nil
	}
	existing, ok, err := r.coll.Get(ctx, id)
	if err != nil {
		return nil, errs.NewDocumentStoreError("get blog post", err)
	}
	if !ok {
		return nil, nil
	}

	// updatedAt has to move forward even when the clock has not.
	now := r.stamp()
	if prev := timeValue(existing["updatedAt"]); !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}

	fields := patchToFields(patch)
	fields["updatedAt"] = isoString(now)
	if err := r.coll.Update(ctx, id, fields); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, errs.NewDocumentStoreError("update blog post", err)
	}

	return r.FindOne(ctx, id)
}

// Delete reports false when no document with id exists.
func (r *BlogRepo) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, ok, err := r.coll.Get(ctx, id)
	if err != nil {
		return false, errs.NewDocumentStoreError("get blog post", err)
	}
	if !ok {
		return false, nil
	}
	if err := r.coll.Delete(ctx, id); err != nil {
		return false, errs.NewDocumentStoreError("delete blog post", err)
	}
	return true, nil
}

func (r *BlogRepo) FindByTopic(ctx context.Context, topic string) ([]models.BlogPost, error) {
	snaps, err := r.coll.Query(ctx, Query{
		ArrayContains: &Filter{Field: "topics", Value: topic},
		OrderBy:       "createdAt",
		Descending:    true,
	})
	if err != nil {
		return nil, errs.NewDocumentStoreError("list blog posts by topic", err)
	}
	return fromSnapshots(snaps), nil
}

func (r *BlogRepo) FindLatest(ctx context.Context, limit int) ([]models.BlogPost, error) {
	if limit <= 0 {
		return []models.BlogPost{}, nil
	}
	snaps, err := r.coll.Query(ctx, Query{OrderBy: "createdAt", Descending: true, Limit: limit})
	if err != nil {
		return nil, errs.NewDocumentStoreError("list latest blog posts", err)
	}
	return fromSnapshots(snaps), nil
}

func fromSnapshots(snaps []Snapshot) []models.BlogPost {
	posts := make([]models.BlogPost, 0, len(snaps))
	for _, snap := range snaps {
		posts = append(posts, fromDocument(snap.ID, snap.Data))
	}
	return posts
}
