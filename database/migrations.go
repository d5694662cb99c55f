package database

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Sardor-M/p-website-backend/errs"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "create blog_posts",
		SQL: `
CREATE TABLE IF NOT EXISTS "blog_posts" (
	"id" uuid NOT NULL DEFAULT gen_random_uuid(),
	"title" character varying(255) NOT NULL,
	"subtitle" character varying(255),
	"date" TIMESTAMP NOT NULL,
	"author" jsonb NOT NULL,
	"readTime" character varying(70) NOT NULL,
	"topics" text[] NOT NULL,
	"content" jsonb NOT NULL,
	"createdAt" TIMESTAMP NOT NULL DEFAULT now(),
	"updatedAt" TIMESTAMP NOT NULL DEFAULT now(),
	CONSTRAINT "PK_blog_posts_id" PRIMARY KEY ("id")
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_date ON "blog_posts" ("date" DESC);
CREATE INDEX IF NOT EXISTS idx_blog_posts_topics ON "blog_posts" USING gin ("topics");
`,
	},
	{
		Version:     2,
		Description: "seed sample posts into an empty table",
		SQL: `
INSERT INTO "blog_posts" ("title", "subtitle", "date", "author", "readTime", "topics", "content")
SELECT * FROM (VALUES
	(
		'Getting Started with React Hooks',
		'A comprehensive guide to React''s most powerful feature',
		TIMESTAMP '2025-01-01 00:00:00',
		'{"name": "John Doe", "image": "/api/placeholder/48/48", "bio": "Senior Frontend Developer"}'::jsonb,
		'4 min read',
		ARRAY['React', 'Frontend', 'Web Development'],
		'[
			{"type": "heading", "level": 2, "text": "Understanding React Hooks"},
			{"type": "paragraph", "text": "Hooks are a powerful feature introduced in React 16.8 that allow you to use state and other React features in functional components."},
			{"type": "heading", "level": 3, "text": "Why Hooks?"},
			{"type": "paragraph", "text": "Hooks solve many problems that developers faced with class components and lifecycle methods."}
		]'::jsonb
	),
	(
		'Node.js Best Practices for 2025',
		'Optimize your Node.js applications for production',
		TIMESTAMP '2025-02-01 00:00:00',
		'{"name": "Jane Smith", "image": "/api/placeholder/48/48", "bio": "Backend Architecture Specialist"}'::jsonb,
		'2 min read',
		ARRAY['Node.js', 'Backend', 'Performance'],
		'[
			{"type": "heading", "level": 2, "text": "Building Scalable Node.js Applications"},
			{"type": "paragraph", "text": "Learn the essential practices for creating production-ready Node.js applications that can handle high traffic and complex operations."},
			{"type": "heading", "level": 3, "text": "Performance Optimization"},
			{"type": "paragraph", "text": "Discover key strategies for optimizing your Node.js application''s performance."}
		]'::jsonb
	)
) AS seed
WHERE NOT EXISTS (SELECT 1 FROM "blog_posts");
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT now()
);
`

// sortedMigrations returns the migrations in ascending version order.
func sortedMigrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(db *gorm.DB) (int, error) {
	var version int
	err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version).Error
	return version, err
}

// RunMigrations applies all pending SQL migrations in order, each in its
// own transaction.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(migrationsTableSQL).Error; err != nil {
		return errs.NewMigrationError(0, err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return errs.NewMigrationError(0, fmt.Errorf("get current version: %w", err))
	}

	for _, m := range sortedMigrations() {
		if m.Version <= current {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.SQL).Error; err != nil {
				return fmt.Errorf("apply %q: %w", m.Description, err)
			}
			return tx.Exec("INSERT INTO schema_migrations (version, description) VALUES (?, ?)", m.Version, m.Description).Error
		})
		if err != nil {
			return errs.NewMigrationError(m.Version, err)
		}
		log.Info().Int("version", m.Version).Str("description", m.Description).Msg("migration applied")
	}
	return nil
}

// Migrate prepares the schema. Production runs the versioned SQL
// migrations; everywhere else the table is synchronized from BlogPostRow.
func Migrate(db *gorm.DB, production bool) error {
	if production {
		return RunMigrations(db)
	}
	if err := db.AutoMigrate(&BlogPostRow{}); err != nil {
		return errs.NewMigrationError(0, err)
	}
	return nil
}
