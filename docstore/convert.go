package docstore

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/models"
)

const defaultReadTime = "10 min read"

// isoLayout matches what JavaScript's toISOString produces. It is fixed
// width, so stored timestamps order correctly as strings.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func isoString(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// toDocument flattens a post into the field map stored in the collection.
// The id is the document key and is not repeated in the body.
func toDocument(post models.BlogPost) map[string]any {
	return map[string]any{
		"title":     post.Title,
		"subtitle":  post.Subtitle,
		"date":      isoString(post.Date),
		"author":    authorToValue(post.Author),
		"readTime":  post.ReadTime,
		"topics":    models.NormalizeTopics(post.Topics),
		"content":   contentToValue(post.Content),
		"createdAt": isoString(post.CreatedAt),
		"updatedAt": isoString(post.UpdatedAt),
	}
}

// patchToFields returns only the fields the patch provides.
func patchToFields(patch models.BlogPostPatch) map[string]any {
	fields := make(map[string]any)
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Subtitle != nil {
		fields["subtitle"] = *patch.Subtitle
	}
	if patch.Date != nil {
		fields["date"] = isoString(patch.Date.Time)
	}
	if patch.Author != nil {
		fields["author"] = authorToValue(*patch.Author)
	}
	if patch.ReadTime != nil {
		fields["readTime"] = *patch.ReadTime
	}
	if patch.Topics != nil {
		fields["topics"] = models.NormalizeTopics(patch.Topics)
	}
	if patch.Content != nil {
		fields["content"] = contentToValue(*patch.Content)
	}
	return fields
}

// fromDocument builds a post from whatever is stored, tolerating missing
// fields, string or native timestamps, and the older layout that nested
// author and topics under "metadata" and kept the body in "introduction"
// and "dataStructures".
func fromDocument(id string, data map[string]any) models.BlogPost {
	post := models.BlogPost{
		ID:        id,
		Title:     stringValue(data["title"]),
		Subtitle:  stringValue(data["subtitle"]),
		Date:      timeValue(data["date"]),
		Author:    authorValue(data["author"]),
		ReadTime:  stringValue(data["readTime"]),
		Topics:    stringsValue(data["topics"]),
		Content:   contentValue(id, data["content"]),
		CreatedAt: timeValue(data["createdAt"]),
		UpdatedAt: timeValue(data["updatedAt"]),
	}

	if metadata, ok := data["metadata"].(map[string]any); ok {
		legacy := authorValue(metadata["author"])
		if legacy.Name != "" {
			post.Author.Name = legacy.Name
		}
		if legacy.Bio != "" {
			post.Author.Bio = legacy.Bio
		}
		if topics := stringsValue(metadata["topics"]); len(topics) > 0 {
			post.Topics = topics
		}
	}

	if _, ok := data["content"]; !ok {
		post.Content = legacyContent(data)
	}

	if post.ReadTime == "" {
		post.ReadTime = defaultReadTime
	}
	return post
}

// legacyContent turns the older introduction + dataStructures body into
// blocks: the introduction as a paragraph, then per entry a heading, its
// description and its code sample.
func legacyContent(data map[string]any) models.Content {
	var blocks []models.ContentBlock
	if intro := stringValue(data["introduction"]); intro != "" {
		blocks = append(blocks, models.ContentBlock{Type: "paragraph", Text: intro})
	}

	entries, _ := data["dataStructures"].([]any)
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			if e != "" {
				blocks = append(blocks, models.ContentBlock{Type: "paragraph", Text: e})
			}
		case map[string]any:
			if title := firstString(e, "name", "title"); title != "" {
				blocks = append(blocks, models.ContentBlock{Type: "heading", Level: 2, Text: title})
			}
			if text := firstString(e, "description", "explanation", "text"); text != "" {
				blocks = append(blocks, models.ContentBlock{Type: "paragraph", Text: text})
			}
			if code := firstString(e, "code", "example"); code != "" {
				blocks = append(blocks, models.ContentBlock{Type: "code", Language: stringValue(e["language"]), Content: code})
			}
		}
	}
	return models.NewBlockContent(blocks...)
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func authorToValue(a models.Author) map[string]any {
	out := map[string]any{"name": a.Name}
	if a.Image != "" {
		out["image"] = a.Image
	}
	if a.Avatar != "" {
		out["avatar"] = a.Avatar
	}
	if a.Bio != "" {
		out["bio"] = a.Bio
	}
	return out
}

func authorValue(v any) models.Author {
	m, ok := v.(map[string]any)
	if !ok {
		return models.Author{}
	}
	return models.Author{
		Name:   stringValue(m["name"]),
		Image:  stringValue(m["image"]),
		Avatar: stringValue(m["avatar"]),
		Bio:    stringValue(m["bio"]),
	}
}

// contentToValue stores content as plain maps and slices, in whichever of
// its two shapes it holds.
func contentToValue(c models.Content) any {
	raw, err := json.Marshal(c)
	if err != nil {
		return []any{}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return []any{}
	}
	return out
}

func contentValue(id string, v any) models.Content {
	if v == nil {
		return models.Content{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("unreadable content in stored blog post")
		return models.Content{}
	}
	var c models.Content
	if err := json.Unmarshal(raw, &c); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("unreadable content in stored blog post")
		return models.Content{}
	}
	return c
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringsValue(v any) []string {
	switch t := v.(type) {
	case []string:
		return models.NormalizeTopics(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// timeValue accepts native timestamps, anything exposing AsTime (protobuf
// timestamps), date strings and epoch milliseconds. Unusable values give
// the zero time.
func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t != nil {
			return t.UTC()
		}
	case interface{ AsTime() time.Time }:
		return t.AsTime().UTC()
	case string:
		if parsed, err := models.ParseTime(t); err == nil {
			return parsed
		}
	case int64:
		return time.UnixMilli(t).UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	}
	return time.Time{}
}
