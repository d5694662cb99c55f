package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/models"
)

// BlogStore is implemented by every persistence backend. Absence is reported
// as a nil post (or false from Delete), never as an error.
type BlogStore interface {
	Create(ctx context.Context, post models.BlogPost) (*models.BlogPost, error)
	FindAll(ctx context.Context, query models.BlogQuery) (models.Page, error)
	FindOne(ctx context.Context, id string) (*models.BlogPost, error)
	Update(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByTopic(ctx context.Context, topic string) ([]models.BlogPost, error)
	FindLatest(ctx context.Context, limit int) ([]models.BlogPost, error)
}

// BlogService exposes the same operations for whichever store is wired in
// and turns absence into a not-found error carrying the requested id.
type BlogService struct {
	store  BlogStore
	logger zerolog.Logger
}

func NewBlogService(store BlogStore) *BlogService {
	return &BlogService{
		store:  store,
		logger: log.With().Str("service", "blog").Logger(),
	}
}

func (s *BlogService) Create(ctx context.Context, input models.CreateBlogPost) (*models.BlogPost, error) {
	post, err := s.store.Create(ctx, input.BlogPost())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("id", post.ID).Msg("blog post created")
	return post, nil
}

func (s *BlogService) FindAll(ctx context.Context, query models.BlogQuery) (models.Page, error) {
	return s.store.FindAll(ctx, query.WithDefaults())
}

func (s *BlogService) FindOne(ctx context.Context, id string) (*models.BlogPost, error) {
	post, err := s.store.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errs.NewBlogPostNotFound(id)
	}
	return post, nil
}

func (s *BlogService) Update(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error) {
	post, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errs.NewBlogPostNotFound(id)
	}
	s.logger.Info().Str("id", id).Msg("blog post updated")
	return post, nil
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NewBlogPostNotFound(id)
	}
	s.logger.Info().Str("id", id).Msg("blog post deleted")
	return nil
}

func (s *BlogService) FindByTopic(ctx context.Context, topic string) ([]models.BlogPost, error) {
	return s.store.FindByTopic(ctx, topic)
}

// FindLatest returns at most limit posts, newest first. Negative limits
// are treated as zero.
func (s *BlogService) FindLatest(ctx context.Context, limit int) ([]models.BlogPost, error) {
	if limit < 0 {
		limit = 0
	}
	return s.store.FindLatest(ctx, limit)
}
