// Package htmlentry inspects HTML entry points for the module scripts they
// embed. The markup-embedding plugin and the default entry detection both
// route through it.
package htmlentry

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// ScriptRef is one script reference found in an HTML document.
type ScriptRef struct {
	// Src is the script's src attribute, as written.
	Src string

	// IsModule reports type="module".
	IsModule bool
}

// ScanFile parses the HTML file at path and returns its script references in
// document order.
func ScanFile(path string) ([]ScriptRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html entry: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html entry %s: %w", path, err)
	}
	return collectScripts(doc), nil
}

// ModuleScripts returns only the type="module" script sources from refs.
func ModuleScripts(refs []ScriptRef) []string {
	var srcs []string
	for _, ref := range refs {
		if ref.IsModule && ref.Src != "" {
			srcs = append(srcs, ref.Src)
		}
	}
	return srcs
}

func collectScripts(n *html.Node) []ScriptRef {
	var refs []ScriptRef
	if n.Type == html.ElementNode && n.Data == "script" {
		var ref ScriptRef
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "src":
				ref.Src = attr.Val
			case "type":
				ref.IsModule = strings.EqualFold(attr.Val, "module")
			}
		}
		refs = append(refs, ref)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		refs = append(refs, collectScripts(c)...)
	}
	return refs
}
