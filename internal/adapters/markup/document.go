// Package markup is the presentation-side half of distance annotation. It
// finds coordinate-bearing elements in rendered HTML and writes computed
// distances back into them.
//
// Contract shared with the templates:
//
//	<span class="distance-separator hidden">•</span>
//	<span class="distance-display hidden" data-lat="18.80" data-lng="98.96"></span>
//
//	<article class="spot-card">
//	  <span class="distance-badge hidden" data-lat="18.80" data-lng="98.96">
//	    <span class="distance-value"></span>
//	  </span>
//	  <p class="distance-text hidden"><span class="distance-value-text"></span></p>
//	</article>
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"hostel_guide/internal/domain"
)

const (
	ClassDisplay   = "distance-display"
	ClassSeparator = "distance-separator"
	ClassBadge     = "distance-badge"
	ClassValue     = "distance-value"
	ClassCard      = "spot-card"
	ClassText      = "distance-text"
	ClassValueText = "distance-value-text"
	ClassHidden    = "hidden"

	AttrLat = "data-lat"
	AttrLng = "data-lng"
)

type Document struct {
	root    *html.Node
	targets map[string]*html.Node
	order   []domain.DistanceTarget
}

// Parse reads an HTML document or fragment and indexes its distance targets.
// A fragment is parsed in a <body> context and renders back as a fragment,
// without the html/head/body wrapper a full parse would add.
func Parse(r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	var root *html.Node
	if isFullDocument(src) {
		if root, err = html.Parse(bytes.NewReader(src)); err != nil {
			return nil, fmt.Errorf("parse markup: %w", err)
		}
	} else {
		body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(bytes.NewReader(src), body)
		if err != nil {
			return nil, fmt.Errorf("parse markup fragment: %w", err)
		}
		root = &html.Node{Type: html.DocumentNode}
		for _, n := range nodes {
			root.AppendChild(n)
		}
	}
	d := &Document{root: root, targets: map[string]*html.Node{}}
	d.index()
	return d, nil
}

func isFullDocument(src []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(src))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}

func (d *Document) index() {
	var inline, badges []*html.Node
	walk(d.root, func(n *html.Node) {
		if !hasAttr(n, AttrLat) || !hasAttr(n, AttrLng) {
			return
		}
		switch {
		case hasClass(n, ClassDisplay):
			inline = append(inline, n)
		case hasClass(n, ClassBadge):
			badges = append(badges, n)
		}
	})
	d.add(domain.TargetInline, inline)
	d.add(domain.TargetBadge, badges)
}

func (d *Document) add(kind domain.TargetKind, nodes []*html.Node) {
	for i, n := range nodes {
		key := string(kind) + ":" + strconv.Itoa(i)
		d.targets[key] = n
		d.order = append(d.order, domain.DistanceTarget{
			Key:  key,
			Kind: kind,
			Lat:  attr(n, AttrLat),
			Lng:  attr(n, AttrLng),
		})
	}
}

// Targets lists inline displays first, then card badges, each in document
// order.
func (d *Document) Targets() []domain.DistanceTarget {
	out := make([]domain.DistanceTarget, len(d.order))
	copy(out, d.order)
	return out
}

// Apply writes annotations into their elements and reveals them. Unknown keys
// are ignored.
func (d *Document) Apply(anns []domain.DistanceAnnotation) {
	for _, a := range anns {
		n, ok := d.targets[a.Key]
		if !ok {
			continue
		}
		switch a.Kind {
		case domain.TargetInline:
			setText(n, a.Text)
			removeClass(n, ClassHidden)
			if sep := prevElementSibling(n); sep != nil && hasClass(sep, ClassSeparator) {
				removeClass(sep, ClassHidden)
			}
		case domain.TargetBadge:
			if v := find(n, ClassValue); v != nil {
				setText(v, a.Text)
			}
			removeClass(n, ClassHidden)
			if card := closest(n, ClassCard); card != nil {
				text, value := find(card, ClassText), find(card, ClassValueText)
				if text != nil && value != nil {
					caption := a.Caption
					if caption == "" {
						caption = a.Text + " walk"
					}
					setText(value, caption)
					removeClass(text, ClassHidden)
				}
			}
		}
	}
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

// ---- node helpers ----

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, class string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) {
		if found == nil && c != n && hasClass(c, class) {
			found = c
		}
	})
	return found
}

func closest(n *html.Node, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasClass(p, class) {
			return p
		}
	}
	return nil
}

func prevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func removeClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		fields := strings.Fields(a.Val)
		kept := fields[:0]
		for _, c := range fields {
			if c != class {
				kept = append(kept, c)
			}
		}
		n.Attr[i].Val = strings.Join(kept, " ")
		return
	}
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
