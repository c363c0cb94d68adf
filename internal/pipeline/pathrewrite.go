package pipeline

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteAssetURLs resolves relative image and link targets in compiled
// HTML against baseURL. If baseURL is empty, returns the HTML unchanged.
//
// Rewrites:
//   - img[src]: relative paths to images
//   - a[href]: relative file paths (not anchors, not URLs)
//
// Does NOT rewrite:
//   - root-relative paths ("/blog/x") which point at site routes
//   - URLs with a scheme or host, anchors, data URIs
//   - targets that would escape the base path via ".."
//   - srcset attributes
func RewriteAssetURLs(htmlContent, baseURL string) (string, error) {
	if baseURL == "" {
		return htmlContent, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	doc, err := parseFragment(htmlContent)
	if err != nil {
		return "", err
	}

	rewriteNode(doc, base)

	return renderFragment(doc)
}

// parseFragment parses body HTML with a <body> context so no document
// wrapper is added.
func parseFragment(content string) (*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// renderFragment renders the children of the container only.
func renderFragment(doc *html.Node) (string, error) {
	var buf strings.Builder
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and rewrites relative targets.
func rewriteNode(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", base)
		case atom.A:
			rewriteAttr(n, "href", base)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, base)
	}
}

// rewriteAttr rewrites a single attribute if it's a relative path.
func rewriteAttr(n *html.Node, attrName string, base *url.URL) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativeTarget(attr.Val) {
			continue
		}

		ref, err := url.Parse(attr.Val)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)

		// Leave targets that climb out of the base path untouched.
		if !isPathUnder(resolved.Path, base.Path) {
			continue
		}

		n.Attr[i].Val = resolved.String()
	}
}

// isRelativeTarget returns true if the target should be rewritten.
func isRelativeTarget(target string) bool {
	if target == "" {
		return false
	}
	if strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "?") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// isPathUnder checks if p is at or below dir (prevents traversal).
func isPathUnder(p, dir string) bool {
	cleanPath := path.Clean("/" + p)
	cleanDir := path.Clean("/" + dir)
	if cleanDir == "/" {
		return true
	}
	return cleanPath == cleanDir || strings.HasPrefix(cleanPath, cleanDir+"/")
}
