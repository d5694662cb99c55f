package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/Sardor-M/p-website-backend/errs"
	"github.com/Sardor-M/p-website-backend/models"
)

// BlogPostRow is the blog_posts table. Column names keep the camelCase
// spelling the table was created with.
type BlogPostRow struct {
	ID        string                             `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string                             `gorm:"column:title;type:varchar(255);not null"`
	Subtitle  *string                            `gorm:"column:subtitle;type:varchar(255)"`
	Date      time.Time                          `gorm:"column:date;type:timestamp;not null;index:idx_blog_posts_date,sort:desc"`
	Author    datatypes.JSONType[models.Author]  `gorm:"column:author;type:jsonb;not null"`
	ReadTime  string                             `gorm:"column:readTime;type:varchar(70);not null"`
	Topics    pq.StringArray                     `gorm:"column:topics;type:text[];not null;index:idx_blog_posts_topics,type:gin"`
	Content   datatypes.JSONType[models.Content] `gorm:"column:content;type:jsonb;not null"`
	CreatedAt time.Time                          `gorm:"column:createdAt;type:timestamp;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time                          `gorm:"column:updatedAt;type:timestamp;not null;default:now();autoUpdateTime"`
}

func (BlogPostRow) TableName() string {
	return "blog_posts"
}

func rowFromPost(post models.BlogPost) BlogPostRow {
	row := BlogPostRow{
		ID:        post.ID,
		Title:     post.Title,
		Date:      post.Date,
		Author:    datatypes.NewJSONType(post.Author),
		ReadTime:  post.ReadTime,
		Topics:    pq.StringArray(models.NormalizeTopics(post.Topics)),
		Content:   datatypes.NewJSONType(post.Content),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if post.Subtitle != "" {
		subtitle := post.Subtitle
		row.Subtitle = &subtitle
	}
	return row
}

// newRow prepares an insert: the id is left for the database and both audit
// timestamps are now.
func newRow(post models.BlogPost, now time.Time) BlogPostRow {
	post.ID = ""
	post.CreatedAt = now
	post.UpdatedAt = now
	return rowFromPost(post)
}

// mergePatch overlays patch onto a stored row. createdAt is kept and
// updatedAt moves to now.
func mergePatch(row BlogPostRow, patch models.BlogPostPatch, now time.Time) BlogPostRow {
	post := row.post()
	patch.Apply(&post)
	post.UpdatedAt = now
	return rowFromPost(post)
}

func (row BlogPostRow) post() models.BlogPost {
	post := models.BlogPost{
		ID:        row.ID,
		Title:     row.Title,
		Date:      row.Date,
		Author:    row.Author.Data(),
		ReadTime:  row.ReadTime,
		Topics:    models.NormalizeTopics(row.Topics),
		Content:   row.Content.Data(),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Subtitle != nil {
		post.Subtitle = *row.Subtitle
	}
	return post
}

func postsFromRows(rows []BlogPostRow) []models.BlogPost {
	posts := make([]models.BlogPost, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.post())
	}
	return posts
}

type BlogPostRepo struct {
	db *gorm.DB
}

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{db}
}

// Create inserts a post. The database assigns id; the audit timestamps come
// from the connection's clock.
func (r *BlogPostRepo) Create(ctx context.Context, post models.BlogPost) (*models.BlogPost, error) {
	row := newRow(post, r.db.NowFunc())
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, errs.NewDatabaseError("create", "blog post", err)
	}
	created := row.post()
	return &created, nil
}

// FindAll returns one page of posts matching the query, newest date first.
// The total and the page itself are fetched concurrently.
func (r *BlogPostRepo) FindAll(ctx context.Context, query models.BlogQuery) (models.Page, error) {
	query = query.WithDefaults()

	var (
		total int64
		rows  []BlogPostRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return applyFilters(r.db.WithContext(gctx), query).Count(&total).Error
	})
	g.Go(func() error {
		return applyFilters(r.db.WithContext(gctx), query).
			Order("date DESC").
			Offset(query.Offset()).
			Limit(query.Limit).
			Find(&rows).Error
	})
	if err := g.Wait(); err != nil {
		return models.Page{}, errs.NewDatabaseError("list", "blog posts", err)
	}

	return models.NewPage(postsFromRows(rows), total, query.Page, query.Limit), nil
}

// applyFilters narrows tx to posts whose title contains the search text,
// case-insensitively, and whose topics include the requested topic.
func applyFilters(tx *gorm.DB, query models.BlogQuery) *gorm.DB {
	tx = tx.Model(&BlogPostRow{})
	if query.Search != "" {
		tx = tx.Where("title ILIKE ?", "%"+escapeLike(query.Search)+"%")
	}
	if query.Topic != "" {
		tx = tx.Where("? = ANY(topics)", query.Topic)
	}
	return tx
}

// FindOne returns nil when no post has the id. Ids that are not UUIDs
// cannot exist and are reported the same way.
func (r *BlogPostRepo) FindOne(ctx context.Context, id string) (*models.BlogPost, error) {
	row, err := r.findRow(r.db.WithContext(ctx), id)
	if err != nil || row == nil {
		return nil, err
	}
	post := row.post()
	return &post, nil
}

func (r *BlogPostRepo) findRow(tx *gorm.DB, id string) (*BlogPostRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var row BlogPostRow
	err := tx.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "blog post", err)
	}
	return &row, nil
}

// Update loads the row from the primary, overlays the patch and writes the
// whole row back.
func (r *BlogPostRepo) Update(ctx context.Context, id string, patch models.BlogPostPatch) (*models.BlogPost, error) {
	row, err := r.findRow(r.db.WithContext(ctx).Clauses(dbresolver.Write), id)
	if err != nil || row == nil {
		return nil, err
	}

	updated := mergePatch(*row, patch, r.db.NowFunc())
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, errs.NewDatabaseError("update", "blog post", err)
	}
	result := updated.post()
	return &result, nil
}

// Delete reports false when no row was removed.
func (r *BlogPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BlogPostRow{})
	if res.Error != nil {
		return false, errs.NewDatabaseError("delete", "blog post", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *BlogPostRepo) FindByTopic(ctx context.Context, topic string) ([]models.BlogPost, error) {
	var rows []BlogPostRow
	err := withTopic(r.db.WithContext(ctx), topic).Find(&rows).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list by topic", "blog posts", err)
	}
	return postsFromRows(rows), nil
}

func (r *BlogPostRepo) FindLatest(ctx context.Context, limit int) ([]models.BlogPost, error) {
	if limit <= 0 {
		return []models.BlogPost{}, nil
	}
	var rows []BlogPostRow
	err := r.db.WithContext(ctx).Order("date DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list latest", "blog posts", err)
	}
	return postsFromRows(rows), nil
}

func withTopic(tx *gorm.DB, topic string) *gorm.DB {
	return tx.Where("topics @> ARRAY[?]::text[]", topic).Order("date DESC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
