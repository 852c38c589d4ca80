package crhoy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// unwantedSelectors are stripped from article bodies before conversion: ads,
// recommendation boxes, comments, tags and galleries.
var unwantedSelectors = []string{
	"script", "style", "iframe",
	"div.banner-d", "div.bannerEmbedsHome", "div.moreBox",
	"div.comentarios-container", "div.etiquetas",
	"div.leerMasOuter", "div.gallery",
	"div.wp-caption",
}

// Parser extracts title and markdown content from CRHoy article pages.
// It understands both the regular article layout and opinion pieces.
type Parser struct{}

// NewParser constructs a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse extracts the article title and its content as markdown.
func (p *Parser) Parse(html []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("op=crhoy.parse: %w", err)
	}

	title, markdown := p.parseOpinion(doc)
	if title == "" || markdown == "" {
		title, markdown = p.parseRegular(doc)
	}
	if title == "" || markdown == "" {
		return "", "", fmt.Errorf("op=crhoy.parse: empty title or content: %w", domain.ErrSchemaInvalid)
	}
	return title, markdown, nil
}

func (p *Parser) parseOpinion(doc *goquery.Document) (string, string) {
	section := doc.Find("section.main-content.opinion").First()
	if section.Length() == 0 {
		return "", ""
	}
	article := section.Find("article.articulo-opinion").First()
	if article.Length() == 0 {
		return "", ""
	}
	title := strings.TrimSpace(article.Find("h1").First().Text())
	content := article.Find("div.contenido").First()
	if content.Length() == 0 {
		return title, ""
	}
	stripUnwanted(content)
	return title, renderMarkdown(content)
}

func (p *Parser) parseRegular(doc *goquery.Document) (string, string) {
	title := strings.TrimSpace(doc.Find("h1.titulo").First().Text())
	contentDiv := doc.Find("div#contenido").First()
	if contentDiv.Length() == 0 {
		return title, ""
	}
	// The real body is the first direct child div; siblings hold bullet
	// points and embeds.
	main := contentDiv.ChildrenFiltered("div").First()
	if main.Length() == 0 {
		return title, ""
	}
	stripUnwanted(main)
	return title, renderMarkdown(main)
}

func stripUnwanted(sel *goquery.Selection) {
	for _, s := range unwantedSelectors {
		sel.Find(s).Remove()
	}
}
