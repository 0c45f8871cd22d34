// Package tree materializes XML and JSON documents into grid.Node trees.
package tree

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/gridview/internal/grid"
)

// DefaultMaxSize is the largest document accepted by Load (50MB).
const DefaultMaxSize = 50 << 20

var (
	// ErrMalformed is returned for documents that do not parse.
	ErrMalformed = errors.New("malformed document")

	// ErrTooLarge is returned when a document exceeds the size limit.
	ErrTooLarge = errors.New("document too large")

	// ErrUnsupported is returned for files that are neither XML nor JSON.
	ErrUnsupported = errors.New("unsupported document type")
)

// ParseXML reads one XML document into a node tree.
//
// Paths join tag names with "/". A node's XPath is its path, with a [n]
// suffix (1-based) on the second and later siblings that share a tag.
// Text is the element's leading character data with surrounding space
// removed, or nil when that is empty. Namespaces are dropped from tag and
// attribute names. maxSize <= 0 disables the size limit.
func ParseXML(r io.Reader, maxSize int64) (*grid.Node, error) {
	if maxSize > 0 {
		r = &limitReader{r: r, left: maxSize}
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	type frame struct {
		node      *grid.Node
		text      strings.Builder
		sawChild  bool
		tagCounts map[string]int
	}
	var (
		root  *grid.Node
		stack []*frame
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &grid.Node{Tag: t.Name.Local, Attributes: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attributes[a.Name.Local] = a.Value
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				n.Path = n.Tag
				n.XPath = n.Tag
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.sawChild = true
				idx := parent.tagCounts[n.Tag]
				parent.tagCounts[n.Tag] = idx + 1

				n.Path = parent.node.Path + "/" + n.Tag
				n.XPath = n.Path
				if idx > 0 {
					n.XPath += "[" + strconv.Itoa(idx+1) + "]"
				}
				parent.node.Children = append(parent.node.Children, n)
			}
			stack = append(stack, &frame{node: n, tagCounts: make(map[string]int)})

		case xml.CharData:
			if len(stack) > 0 {
				if top := stack[len(stack)-1]; !top.sawChild {
					top.text.Write(t)
				}
			}

		case xml.EndElement:
			top := stack[len(stack)-1]
			if text := strings.TrimSpace(top.text.String()); text != "" {
				top.node.Text = &text
			}
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return root, nil
}

// DecodeJSON reads a node tree in the collaborator's JSON shape. Both a bare
// node and an object wrapping it under "root" are accepted.
func DecodeJSON(r io.Reader) (*grid.Node, error) {
	var doc struct {
		grid.Node
		Root *grid.Node `json:"root"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Root != nil {
		return doc.Root, nil
	}
	if doc.Tag == "" {
		return nil, fmt.Errorf("%w: missing tag", ErrMalformed)
	}
	n := doc.Node
	return &n, nil
}

// Load reads an .xml or .json file into a node tree.
func Load(path string) (*grid.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return ParseXML(f, DefaultMaxSize)
	case ".json":
		return DecodeJSON(io.LimitReader(f, DefaultMaxSize))
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
}

// Stats returns the node count and depth of the tree. A lone root has
// depth 1.
func Stats(root *grid.Node) (nodes, depth int) {
	if root == nil {
		return 0, 0
	}
	nodes, depth = 1, 1
	for _, c := range root.Children {
		n, d := Stats(c)
		nodes += n
		depth = max(depth, d+1)
	}
	return nodes, depth
}

// charsetReader decodes documents that declare a non-UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q: %w", label, ErrUnsupported)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// limitReader fails with ErrTooLarge once more than left bytes are read.
type limitReader struct {
	r    io.Reader
	left int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
