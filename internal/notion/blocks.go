package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chartsync/internal/core"
)

// maxRichTextLength is the API limit on the content of one rich text item.
const maxRichTextLength = 2000

type (
	richText struct {
		Type      string       `json:"type,omitempty"`
		PlainText string       `json:"plain_text,omitempty"`
		Text      *textContent `json:"text,omitempty"`
	}

	textContent struct {
		Content string `json:"content"`
	}

	codeBody struct {
		RichText []richText `json:"rich_text"`
		Language string     `json:"language,omitempty"`
	}

	blockObject struct {
		ID          string    `json:"id"`
		Type        string    `json:"type"`
		HasChildren bool      `json:"has_children"`
		Code        *codeBody `json:"code,omitempty"`
	}

	blockList struct {
		Results    []blockObject `json:"results"`
		HasMore    bool          `json:"has_more"`
		NextCursor *string       `json:"next_cursor"`
	}

	updateCode struct {
		Code codeBody `json:"code"`
	}
)

// ListChildren returns every child of blockID, following pagination.
func (c *Client) ListChildren(ctx context.Context, blockID string) ([]core.Block, error) {
	var out []core.Block
	cursor := ""
	for {
		q := url.Values{}
		q.Set("page_size", strconv.Itoa(pageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		path := "/v1/blocks/" + url.PathEscape(blockID) + "/children?" + q.Encode()

		var page blockList
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		for _, b := range page.Results {
			out = append(out, b.toBlock())
		}
		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return out, nil
		}
		cursor = *page.NextCursor
	}
}

// ReplaceContent overwrites the rich text of a code block with text.
func (c *Client) ReplaceContent(ctx context.Context, blockID, text string) error {
	body := updateCode{Code: codeBody{RichText: splitRichText(text)}}
	if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+url.PathEscape(blockID), body, nil); err != nil {
		return fmt.Errorf("update block %s: %w", blockID, err)
	}
	return nil
}

func (b blockObject) toBlock() core.Block {
	out := core.Block{ID: b.ID, Type: b.Type, HasChildren: b.HasChildren}
	if b.Code != nil {
		var sb strings.Builder
		for _, rt := range b.Code.RichText {
			switch {
			case rt.PlainText != "":
				sb.WriteString(rt.PlainText)
			case rt.Text != nil:
				sb.WriteString(rt.Text.Content)
			}
		}
		out.Text = sb.String()
	}
	return out
}

// splitRichText cuts text into items within the per-item length limit.
// An empty text still yields one empty item so the block is cleared.
func splitRichText(text string) []richText {
	runes := []rune(text)
	items := make([]richText, 0, len(runes)/maxRichTextLength+1)
	for len(runes) > maxRichTextLength {
		items = append(items, textItem(string(runes[:maxRichTextLength])))
		runes = runes[maxRichTextLength:]
	}
	return append(items, textItem(string(runes)))
}

func textItem(s string) richText {
	return richText{Type: "text", Text: &textContent{Content: s}}
}
