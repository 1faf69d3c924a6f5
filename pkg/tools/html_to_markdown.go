package tools

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToMarkdown converts an HTML document or fragment to Markdown. It
// handles headings, paragraphs, links, emphasis, inline and fenced code,
// blockquotes, ordered and unordered lists, and horizontal rules; script
// and style contents are dropped.
func HTMLToMarkdown() *Tool {
	return &Tool{
		Name:        "html_to_markdown",
		Description: "Convert HTML content to Markdown",
		InputSchema: objectSchema(map[string]interface{}{
			"html": map[string]interface{}{
				"type":        "string",
				"description": "HTML content to convert",
			},
		}, "html"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			src, err := stringArg(args, "html", true)
			if err != nil {
				return nil, err
			}
			md, err := convertHTML(src)
			if err != nil {
				return nil, fmt.Errorf("html_to_markdown: %w", err)
			}
			return map[string]interface{}{"markdown": md}, nil
		},
	}
}

type mdConverter struct {
	out       strings.Builder
	listDepth int
	ordered   []bool
	itemNum   []int
	skipDepth int
	pre       bool
	href      string
}

func convertHTML(src string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	c := &mdConverter{}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF terminates; tokenizer errors on malformed input are
			// folded into best-effort output like browsers do.
			return c.finish(), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			c.open(tok, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			tok := z.Token()
			c.close(tok)
		case html.TextToken:
			c.text(string(z.Text()))
		}
	}
}

func (c *mdConverter) open(tok html.Token, selfClosing bool) {
	if c.skipDepth > 0 {
		if !selfClosing {
			c.skipDepth++
		}
		return
	}
	switch tok.Data {
	case "script", "style", "head":
		if !selfClosing {
			c.skipDepth = 1
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.blockBreak()
		c.out.WriteString(strings.Repeat("#", int(tok.Data[1]-'0')) + " ")
	case "p", "div":
		c.blockBreak()
	case "br":
		c.out.WriteString("\n")
	case "hr":
		c.blockBreak()
		c.out.WriteString("---\n")
	case "strong", "b":
		c.out.WriteString("**")
	case "em", "i":
		c.out.WriteString("*")
	case "code":
		if !c.pre {
			c.out.WriteString("`")
		}
	case "pre":
		c.blockBreak()
		c.out.WriteString("```\n")
		c.pre = true
	case "blockquote":
		c.blockBreak()
		c.out.WriteString("> ")
	case "a":
		c.out.WriteString("[")
	case "ul":
		c.blockBreak()
		c.listDepth++
		c.ordered = append(c.ordered, false)
		c.itemNum = append(c.itemNum, 0)
	case "ol":
		c.blockBreak()
		c.listDepth++
		c.ordered = append(c.ordered, true)
		c.itemNum = append(c.itemNum, 0)
	case "li":
		c.trimTrailing()
		c.out.WriteString("\n")
		indent := strings.Repeat("  ", max(c.listDepth-1, 0))
		if c.listDepth > 0 && c.ordered[c.listDepth-1] {
			c.itemNum[c.listDepth-1]++
			c.out.WriteString(fmt.Sprintf("%s%d. ", indent, c.itemNum[c.listDepth-1]))
		} else {
			c.out.WriteString(indent + "- ")
		}
	}

	if tok.Data == "a" {
		// href is emitted at the closing tag; remember it on a stack of one
		// since nested anchors are invalid HTML anyway.
		for _, attr := range tok.Attr {
			if attr.Key == "href" {
				c.href = attr.Val
			}
		}
	}
	if tok.Data == "img" {
		var src, alt string
		for _, attr := range tok.Attr {
			switch attr.Key {
			case "src":
				src = attr.Val
			case "alt":
				alt = attr.Val
			}
		}
		if src != "" {
			c.out.WriteString(fmt.Sprintf("![%s](%s)", alt, src))
		}
	}
}

func (c *mdConverter) close(tok html.Token) {
	if c.skipDepth > 0 {
		c.skipDepth--
		return
	}
	switch tok.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "blockquote":
		c.out.WriteString("\n")
	case "strong", "b":
		c.out.WriteString("**")
	case "em", "i":
		c.out.WriteString("*")
	case "code":
		if !c.pre {
			c.out.WriteString("`")
		}
	case "pre":
		c.trimTrailing()
		c.out.WriteString("\n```\n")
		c.pre = false
	case "a":
		c.out.WriteString("](" + c.href + ")")
		c.href = ""
	case "ul", "ol":
		if c.listDepth > 0 {
			c.listDepth--
			c.ordered = c.ordered[:c.listDepth]
			c.itemNum = c.itemNum[:c.listDepth]
		}
		c.out.WriteString("\n")
	}
}

func (c *mdConverter) text(s string) {
	if c.skipDepth > 0 {
		return
	}
	if c.pre {
		c.out.WriteString(s)
		return
	}
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return
	}
	if n := c.out.Len(); n > 0 {
		last := c.out.String()[n-1]
		if last != '\n' && last != ' ' && last != '(' && last != '[' && last != '`' && last != '*' && last != '#' && last != '>' {
			if strings.HasPrefix(s, " ") || strings.HasPrefix(s, "\n") {
				c.out.WriteString(" ")
			}
		}
	}
	c.out.WriteString(collapsed)
	if strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n") {
		c.out.WriteString(" ")
	}
}

func (c *mdConverter) blockBreak() {
	s := c.out.String()
	switch {
	case s == "" || strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		c.out.WriteString("\n")
	default:
		c.out.WriteString("\n\n")
	}
}

func (c *mdConverter) trimTrailing() {
	s := strings.TrimRight(c.out.String(), " \n")
	c.out.Reset()
	c.out.WriteString(s)
}

func (c *mdConverter) finish() string {
	out := c.out.String()
	out = strings.TrimSpace(out)
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return out
}
