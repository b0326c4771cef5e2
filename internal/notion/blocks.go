package notion

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Block is a content block appended to a page.
type Block struct {
	Type string
	Text string
	// Link turns the text into a hyperlink.
	Link string
}

func Heading(text string) Block { return Block{Type: "heading_2", Text: text} }

func Paragraph(text string) Block { return Block{Type: "paragraph", Text: text} }

func LinkItem(text, link string) Block {
	return Block{Type: "bulleted_list_item", Text: text, Link: link}
}

type linkTarget struct {
	URL string `json:"url"`
}

type blockText struct {
	Content string      `json:"content"`
	Link    *linkTarget `json:"link,omitempty"`
}

type blockRun struct {
	Type string    `json:"type"`
	Text blockText `json:"text"`
}

type blockBody struct {
	RichText []blockRun `json:"rich_text"`
}

func (b Block) payload() map[string]any {
	run := blockRun{Type: "text", Text: blockText{Content: b.Text}}
	if b.Link != "" {
		run.Text.Link = &linkTarget{URL: b.Link}
	}
	return map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   blockBody{RichText: []blockRun{run}},
	}
}

// AppendBlocks adds blocks to the end of pageID.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []Block) error {
	if pageID == "" {
		return errors.New("notion: page id is empty")
	}
	children := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "" {
			return errors.New("notion: block type is empty")
		}
		children = append(children, b.payload())
	}
	body := map[string]any{"children": children}
	return c.do(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(pageID)+"/children", body, nil)
}
