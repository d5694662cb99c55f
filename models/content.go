package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentBlock is one entry of a block-structured post body: a heading,
// paragraph, code sample and so on.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Level    int    `json:"level,omitempty"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content,omitempty"`
}

// RichText is the editor-produced body shape: rendered HTML plus the raw
// editor state it came from.
type RichText struct {
	HTML      string           `json:"html"`
	Blocks    []map[string]any `json:"blocks,omitempty"`
	EntityMap map[string]any   `json:"entityMap,omitempty"`
}

// Content holds a post body in exactly one of its two shapes. On the wire
// it is either a JSON array of blocks or a single rich-text object, and it
// is written back in whichever shape it was read.
type Content struct {
	Blocks []ContentBlock
	Rich   *RichText
}

func NewBlockContent(blocks ...ContentBlock) Content {
	return Content{Blocks: blocks}
}

func NewRichTextContent(rt RichText) Content {
	return Content{Rich: &rt}
}

// IsRichText reports whether the body uses the rich-text shape.
func (c Content) IsRichText() bool {
	return c.Rich != nil
}

func (c Content) IsZero() bool {
	return c.Rich == nil && len(c.Blocks) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Rich != nil {
		return json.Marshal(c.Rich)
	}
	if c.Blocks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Blocks)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = Content{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return fmt.Errorf("content blocks: %w", err)
		}
		c.Blocks = blocks
	case '{':
		var rt RichText
		if err := json.Unmarshal(trimmed, &rt); err != nil {
			return fmt.Errorf("rich text content: %w", err)
		}
		c.Rich = &rt
	default:
		return fmt.Errorf("content must be an array of blocks or a rich text object")
	}
	return nil
}
