// Package labels renders and parses the HTML snippets the annotation server
// uses to display a depicted value.
package labels

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/ppiankov/depicta/internal/model"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EntityURIPrefix is the concept URI prefix used in item links.
const EntityURIPrefix = "http://www.wikidata.org/entity/"

// ErrNoLink is returned when a snippet contains neither an item link nor a snak span.
var ErrNoLink = errors.New("no item link found")

// ItemLink is the parsed form of a rendered depicted value.
type ItemLink struct {
	ItemID string      // empty for somevalue/novalue
	Label  model.Label // visible text and its language
}

// RenderItem renders a link to an item.
func RenderItem(itemID string, label model.Label) string {
	return fmt.Sprintf(`<a href="%s%s" lang="%s" data-entity-id="%s">%s</a>`,
		EntityURIPrefix, html.EscapeString(itemID),
		html.EscapeString(label.Language),
		html.EscapeString(itemID),
		html.EscapeString(label.Value))
}

// RenderSnak renders the placeholder for a statement without an item value.
func RenderSnak(label model.Label) string {
	return fmt.Sprintf(`<span class="wd-image-positions--snaktype-not-value" lang="%s">%s</span>`,
		html.EscapeString(label.Language),
		html.EscapeString(label.Value))
}

// Render picks RenderItem or RenderSnak for a statement.
func Render(s model.Statement) string {
	if s.SnakType == model.SnakValue && s.ItemID != "" {
		return RenderItem(s.ItemID, s.Label)
	}
	return RenderSnak(s.Label)
}

// Parse extracts the item id and label from a rendered snippet.
func Parse(snippet string) (ItemLink, error) {
	nodes, err := xhtml.ParseFragment(strings.NewReader(snippet), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return ItemLink{}, fmt.Errorf("parse item link: %w", err)
	}

	var found *ItemLink
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if found != nil {
			return
		}
		if link, ok := linkFromNode(n); ok {
			found = &link
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	if found == nil {
		return ItemLink{}, ErrNoLink
	}
	return *found, nil
}

// linkFromNode accepts <a data-entity-id> and <span> elements.
func linkFromNode(n *xhtml.Node) (ItemLink, bool) {
	if n.Type != xhtml.ElementNode || (n.Data != "a" && n.Data != "span") {
		return ItemLink{}, false
	}
	link := ItemLink{}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "data-entity-id":
			link.ItemID = strings.TrimSpace(attr.Val)
		case "lang":
			link.Label.Language = attr.Val
		}
	}
	if n.Data == "a" && link.ItemID == "" {
		return ItemLink{}, false
	}
	link.Label.Value = strings.TrimSpace(textContent(n))
	return link, true
}

func textContent(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
