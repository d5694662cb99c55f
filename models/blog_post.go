package models

import (
	"time"
)

// BlogPost represents a complete blog post with metadata
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Date      time.Time `json:"date,omitzero"`
	Author    Author    `json:"author"`
	ReadTime  string    `json:"readTime"`
	Topics    []string  `json:"topics"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Author is the byline attached to a post. Image and Avatar are both
// accepted since older clients sent one or the other.
type Author struct {
	Name   string `json:"name" validate:"required"`
	Image  string `json:"image,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

// CreateBlogPost is the request body for creating a post.
type CreateBlogPost struct {
	Title    string        `json:"title" validate:"required,max=255"`
	Subtitle string        `json:"subtitle,omitempty" validate:"max=255"`
	Date     *FlexibleTime `json:"date" validate:"required"`
	Author   Author        `json:"author"`
	ReadTime string        `json:"readTime,omitempty" validate:"max=70"`
	Topics   []string      `json:"topics,omitempty"`
	Content  Content       `json:"content"`
}

// BlogPost builds the entity described by the request. ID and audit
// timestamps are left for the store to assign.
func (c CreateBlogPost) BlogPost() BlogPost {
	post := BlogPost{
		Title:    c.Title,
		Subtitle: c.Subtitle,
		Author:   c.Author,
		ReadTime: c.ReadTime,
		Topics:   NormalizeTopics(c.Topics),
		Content:  c.Content,
	}
	if c.Date != nil {
		post.Date = c.Date.Time
	}
	return post
}

// BlogPostPatch carries a partial update. A nil field was not provided and
// leaves the stored value untouched.
type BlogPostPatch struct {
	Title    *string       `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Subtitle *string       `json:"subtitle,omitempty" validate:"omitnil,max=255"`
	Date     *FlexibleTime `json:"date,omitempty"`
	Author   *Author       `json:"author,omitempty"`
	ReadTime *string       `json:"readTime,omitempty" validate:"omitnil,max=70"`
	Topics   []string      `json:"topics,omitempty"`
	Content  *Content      `json:"content,omitempty"`
}

// Apply overlays the provided fields onto post. It is a shallow merge:
// a provided author or content replaces the stored one wholesale.
func (p BlogPostPatch) Apply(post *BlogPost) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Subtitle != nil {
		post.Subtitle = *p.Subtitle
	}
	if p.Date != nil {
		post.Date = p.Date.Time
	}
	if p.Author != nil {
		post.Author = *p.Author
	}
	if p.ReadTime != nil {
		post.ReadTime = *p.ReadTime
	}
	if p.Topics != nil {
		post.Topics = NormalizeTopics(p.Topics)
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
}

// NormalizeTopics returns a non-nil copy so topics always encode as an array.
func NormalizeTopics(topics []string) []string {
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}
