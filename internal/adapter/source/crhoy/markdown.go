package crhoy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// renderMarkdown converts the selection's HTML subtree to markdown. It covers
// the subset of HTML that CRHoy article bodies actually use: paragraphs,
// headings, emphasis, links, lists and blockquotes.
func renderMarkdown(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		renderChildren(&b, node, 0)
	}
	out := blankLines.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

func renderChildren(b *strings.Builder, n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c, depth)
	}
}

func renderNode(b *strings.Builder, n *html.Node, depth int) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(collapseSpace(n.Data))
	case html.ElementNode:
		switch n.Data {
		case "p", "div":
			b.WriteString("\n\n")
			renderChildren(b, n, depth)
			b.WriteString("\n\n")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			b.WriteString("\n\n")
			b.WriteString(strings.Repeat("#", level))
			b.WriteString(" ")
			renderChildren(b, n, depth)
			b.WriteString("\n\n")
		case "strong", "b":
			b.WriteString("**")
			renderChildren(b, n, depth)
			b.WriteString("**")
		case "em", "i":
			b.WriteString("*")
			renderChildren(b, n, depth)
			b.WriteString("*")
		case "a":
			var inner strings.Builder
			renderChildren(&inner, n, depth)
			href := attr(n, "href")
			text := strings.TrimSpace(inner.String())
			if href == "" || text == "" {
				b.WriteString(inner.String())
			} else {
				fmt.Fprintf(b, "[%s](%s)", text, href)
			}
		case "ul", "ol":
			b.WriteString("\n\n")
			i := 1
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || c.Data != "li" {
					continue
				}
				b.WriteString(strings.Repeat("  ", depth))
				if n.Data == "ol" {
					fmt.Fprintf(b, "%d. ", i)
					i++
				} else {
					b.WriteString("- ")
				}
				var item strings.Builder
				renderChildren(&item, c, depth+1)
				b.WriteString(strings.TrimSpace(item.String()))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		case "blockquote":
			var inner strings.Builder
			renderChildren(&inner, n, depth)
			b.WriteString("\n\n")
			for _, line := range strings.Split(strings.TrimSpace(inner.String()), "\n") {
				b.WriteString("> ")
				b.WriteString(strings.TrimSpace(line))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		case "br":
			b.WriteString("\n")
		case "img", "figure", "picture", "video", "audio":
			// Media is dropped; summaries work from text only.
		default:
			renderChildren(b, n, depth)
		}
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

var spaceRun = regexp.MustCompile(`[ \t\r\n]+`)

func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}
