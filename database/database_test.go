package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// dryRunDB builds SQL without ever opening a connection.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
		NowFunc:              func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return db
}

func TestFindAllSQL(t *testing.T) {
	db := dryRunDB(t)
	query := models.BlogQuery{Search: "50%_off", Topic: "go", Page: 2, Limit: 10}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []BlogPostRow
		return applyFilters(tx, query).Order("date DESC").Offset(query.Offset()).Limit(query.Limit).Find(&rows)
	})

	assert.Contains(t, sql, `FROM "blog_posts"`)
	assert.Contains(t, sql, `title ILIKE '%50\%\_off%'`)
	assert.Contains(t, sql, `'go' = ANY(topics)`)
	assert.Contains(t, sql, "ORDER BY date DESC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
}

func TestFindAllWithoutFiltersHasNoWhere(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var total int64
		return applyFilters(tx, models.BlogQuery{}).Count(&total)
	})

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "count(*)")
}

func TestFindByTopicSQL(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []BlogPostRow
		return withTopic(tx, "go").Find(&rows)
	})

	assert.Contains(t, sql, `topics @> ARRAY['go']::text[]`)
	assert.Contains(t, sql, "ORDER BY date DESC")
}

func TestRepoShortCircuits(t *testing.T) {
	repo := NewBlogPostRepo(dryRunDB(t))
	ctx := context.Background()

	post, err := repo.FindOne(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, post)

	deleted, err := repo.Delete(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, deleted)

	updated, err := repo.Update(ctx, "not-a-uuid", models.BlogPostPatch{})
	require.NoError(t, err)
	assert.Nil(t, updated)

	latest, err := repo.FindLatest(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, latest)
	assert.Empty(t, latest)
}

func TestRowConversion(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	post := models.BlogPost{
		ID:        "6f1c3f7e-9a7e-4b43-9d43-7a3f0c1f2d11",
		Title:     "A",
		Date:      now,
		Author:    models.Author{Name: "X", Bio: "bio"},
		ReadTime:  "1 min",
		Topics:    []string{"go"},
		Content:   models.NewRichTextContent(models.RichText{HTML: "<p>x</p>"}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	row := rowFromPost(post)
	assert.Nil(t, row.Subtitle, "empty subtitle is stored as NULL")
	assert.Equal(t, "go", row.Topics[0])

	back := row.post()
	assert.Equal(t, post, back)

	empty := rowFromPost(models.BlogPost{}).post()
	assert.NotNil(t, empty.Topics)
}

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	seen := map[int]bool{}
	prev := 0
	for _, m := range sortedMigrations() {
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		assert.Greater(t, m.Version, prev)
		assert.NotEmpty(t, m.Description)
		seen[m.Version] = true
		prev = m.Version
	}
	assert.Contains(t, migrations[0].SQL, `"readTime" character varying(70)`)
	assert.Contains(t, migrations[0].SQL, `"topics" text[] NOT NULL`)
}

func TestColumnReportHelpers(t *testing.T) {
	fields := getModelFields(BlogPostRow{})
	assert.ElementsMatch(t, []string{
		"id", "title", "subtitle", "date", "author", "readTime", "topics", "content", "createdAt", "updatedAt",
	}, fields)

	assert.Equal(t, "readTime", extractColumnNameFromGormTag("column:readTime;type:varchar(70)"))
	assert.Equal(t, "", extractColumnNameFromGormTag("type:text"))

	assert.Equal(t, []string{"legacy"}, findColumnMismatches([]string{"id", "legacy"}, fields))
	assert.Empty(t, findColumnMismatches([]string{"id", "title"}, fields))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}

func TestGormConfigStampsUTC(t *testing.T) {
	cfg := gormConfig(config.Config{})
	require.NotNil(t, cfg.NowFunc)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}

func samplePost() models.BlogPost {
	return models.BlogPost{
		ID:        "6f1c3f7e-9a7e-4b43-9d43-7a3f0c1f2d11",
		Title:     "Before",
		Subtitle:  "sub",
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Author:    models.Author{Name: "X"},
		ReadTime:  "1 min",
		Topics:    []string{"go", "web"},
		Content:   models.NewBlockContent(models.ContentBlock{Type: "paragraph", Text: "hi"}),
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateSQL(t *testing.T) {
	db := dryRunDB(t)
	row := newRow(samplePost(), db.NowFunc())

	assert.Empty(t, row.ID, "id is assigned by the database")
	assert.Equal(t, fixedNow, row.CreatedAt)
	assert.Equal(t, fixedNow, row.UpdatedAt)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Create(&row)
	})

	assert.Contains(t, sql, `INSERT INTO "blog_posts"`)
	assert.Contains(t, sql, `"readTime"`)
	assert.Contains(t, sql, `"createdAt"`)
	assert.Contains(t, sql, `'Before'`)
	assert.Contains(t, sql, `'2025-03-01 12:00:00`)
	assert.NotContains(t, sql, "6f1c3f7e-9a7e-4b43-9d43-7a3f0c1f2d11")
}

func TestSaveSQLWritesWholeRow(t *testing.T) {
	db := dryRunDB(t)
	title := "After"
	row := mergePatch(rowFromPost(samplePost()), models.BlogPostPatch{Title: &title}, db.NowFunc())

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Save(&row)
	})

	assert.Contains(t, sql, `UPDATE "blog_posts" SET`)
	assert.Contains(t, sql, `"title"='After'`)
	assert.Contains(t, sql, `"subtitle"='sub'`)
	assert.Contains(t, sql, `"readTime"='1 min'`)
	assert.Contains(t, sql, `"createdAt"='2025-01-01 00:00:00`)
	assert.Contains(t, sql, `"updatedAt"='2025-03-01 12:00:00`)
	assert.Contains(t, sql, `"id" = '6f1c3f7e-9a7e-4b43-9d43-7a3f0c1f2d11'`)
}

func TestMergePatch(t *testing.T) {
	stored := rowFromPost(samplePost())
	title := "After"
	author := models.Author{Name: "Y", Bio: "new"}
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	merged := mergePatch(stored, models.BlogPostPatch{Title: &title, Author: &author}, now).post()

	assert.Equal(t, "After", merged.Title)
	assert.Equal(t, author, merged.Author, "author is replaced wholesale")
	assert.Equal(t, "sub", merged.Subtitle)
	assert.Equal(t, "1 min", merged.ReadTime)
	assert.Equal(t, []string{"go", "web"}, merged.Topics)
	assert.Equal(t, samplePost().Content, merged.Content)
	assert.Equal(t, samplePost().ID, merged.ID)
	assert.Equal(t, samplePost().CreatedAt, merged.CreatedAt)
	assert.Equal(t, now, merged.UpdatedAt)

	untouched := mergePatch(stored, models.BlogPostPatch{}, now).post()
	assert.Equal(t, "Before", untouched.Title)
	assert.Equal(t, now, untouched.UpdatedAt)
}

func TestFindAllPageMetadata(t *testing.T) {
	repo := NewBlogPostRepo(dryRunDB(t))

	page, err := repo.FindAll(context.Background(), models.BlogQuery{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Meta.Page)
	assert.Equal(t, 5, page.Meta.Limit)
	assert.EqualValues(t, 0, page.Meta.Total)
	assert.Equal(t, 0, page.Meta.Pages)

	page, err = repo.FindAll(context.Background(), models.BlogQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 10, page.Meta.Limit)
}
