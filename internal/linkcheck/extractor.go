// Package linkcheck verifies that every link the rendered site emits
// resolves: internal links against the site tree and its anchors, external
// links over HTTP.
package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is a link extracted from rendered HTML.
type Link struct {
	URL        string
	Text       string
	Tag        string // a, img, link, script
	IsInternal bool
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string, baseURL string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer file.Close()

	return ExtractLinksFromReader(file, baseURL)
}

// ExtractLinksFromReader extracts all links from an HTML stream.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	var attrName string
	switch n.Data {
	case "a", "link":
		attrName = "href"
	case "img", "script", "source", "video", "audio":
		attrName = "src"
	default:
		return Link{}, false
	}
	target := attr(n, attrName)
	if target == "" {
		return Link{}, false
	}
	return Link{
		URL:        target,
		Text:       nodeText(n),
		Tag:        n.Data,
		IsInternal: isInternal(target, base),
	}, true
}

// ExtractAnchors returns the set of element ids in an HTML stream, for
// fragment resolution.
func ExtractAnchors(r io.Reader) (map[string]struct{}, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	anchors := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, "id"); id != "" {
				anchors[id] = struct{}{}
			}
			if n.Data == "a" {
				if name := attr(n, "name"); name != "" {
					anchors[name] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return anchors, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return strings.TrimSpace(b.String())
}

func isInternal(target string, base *url.URL) bool {
	if strings.HasPrefix(target, "#") {
		return true
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// ShouldVerify filters out targets that do not name a fetchable resource.
func ShouldVerify(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(l.URL, prefix) {
			return false
		}
	}
	return true
}
