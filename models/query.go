package models

const (
	DefaultPage        = 1
	DefaultPageLimit   = 10
	DefaultLatestLimit = 5
)

// BlogQuery filters and paginates a post listing.
type BlogQuery struct {
	Search string `json:"search,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

// WithDefaults fills in page and limit when missing or non-positive.
func (q BlogQuery) WithDefaults() BlogQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	return q
}

// Offset is the number of rows skipped to reach the requested page.
func (q BlogQuery) Offset() int {
	q = q.WithDefaults()
	return (q.Page - 1) * q.Limit
}

type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type Page struct {
	Items []BlogPost `json:"items"`
	Meta  PageMeta   `json:"meta"`
}

// NewPage wraps one page of results with its pagination metadata.
func NewPage(items []BlogPost, total int64, page, limit int) Page {
	if items == nil {
		items = []BlogPost{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page{
		Items: items,
		Meta: PageMeta{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}
