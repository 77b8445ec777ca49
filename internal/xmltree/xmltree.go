// Package xmltree wraps the structured-record boundary: a parsed attribute
// tree with slash-separated location queries, the shape every upstream XML
// document shares.
package xmltree

import (
	"fmt"
	"io"
	"os"

	"github.com/antchfx/xmlquery"
)

// Tree is a parsed attribute tree rooted at the document's top element.
type Tree struct {
	root *xmlquery.Node
}

// Parse reads an XML document from r.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse attribute tree: %w", err)
	}
	root := xmlquery.FindOne(doc, "*")
	if root == nil {
		return nil, fmt.Errorf("parse attribute tree: no root element")
	}
	return &Tree{root: root}, nil
}

// ParseFile reads an XML document from disk.
func ParseFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// find returns the first node matching the slash-separated location relative
// to the root element, or nil.
func (t *Tree) find(location string) *xmlquery.Node {
	return xmlquery.FindOne(t.root, location)
}

// Has reports whether any node exists at the location.
func (t *Tree) Has(location string) bool {
	return t.find(location) != nil
}

// Attr reads the named attribute of the first node at the location. An empty
// name reads the node's text content instead. The second return is false when
// the node or the attribute is absent.
func (t *Tree) Attr(location, name string) (string, bool) {
	node := t.find(location)
	if node == nil {
		return "", false
	}
	if name == "" {
		return node.InnerText(), true
	}
	for _, attr := range node.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// FileAttr is the one-shot form used for companion files during bundling:
// parse the file at path and read a single attribute. Missing nodes or
// attributes yield an empty string, parse failures an error.
func FileAttr(path, location, name string) (string, error) {
	tree, err := ParseFile(path)
	if err != nil {
		return "", err
	}
	value, _ := tree.Attr(location, name)
	return value, nil
}
