package a2a

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is a generic XML element. Names keep the prefix exactly as written
// in the document ("a2a:Person" or "Person"), so lookups can try both.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node

	text strings.Builder
}

// Text returns the element's own character data, trimmed.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.text.String())
}

// Attr returns the first present attribute among names.
func (n *Node) Attr(names ...string) string {
	if n == nil {
		return ""
	}
	for _, name := range names {
		if v, ok := n.Attrs[name]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Child returns the first child matching the earliest alias.
func (n *Node) Child(aliases ...string) *Node {
	if n == nil {
		return nil
	}
	for _, alias := range aliases {
		for _, c := range n.Children {
			if c.Name == alias {
				return c
			}
		}
	}
	return nil
}

// All returns the children matching the earliest alias that has matches,
// in document order.
func (n *Node) All(aliases ...string) []*Node {
	if n == nil {
		return nil
	}
	for _, alias := range aliases {
		var out []*Node
		for _, c := range n.Children {
			if c.Name == alias {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Find returns the first node, depth-first, matching any alias.
func (n *Node) Find(aliases ...string) *Node {
	if n == nil {
		return nil
	}
	for _, alias := range aliases {
		if n.Name == alias {
			return n
		}
	}
	for _, c := range n.Children {
		if found := c.Find(aliases...); found != nil {
			return found
		}
	}
	return nil
}

// ParseNode decodes a payload into a Node tree.
// Non-UTF-8 payloads are converted using their XML declaration.
func ParseNode(payload []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(t.Name), Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[qualified(a.Name)] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("decode xml: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decode xml: unexpected </%s>", qualified(t.Name))
			}
			top := stack[len(stack)-1]
			if name := qualified(t.Name); name != top.Name {
				return nil, fmt.Errorf("decode xml: element <%s> closed by </%s>", top.Name, name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("decode xml: unclosed <%s>", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, errors.New("decode xml: no root element")
	}
	return root, nil
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
