package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"go.yaml.in/yaml/v3"
)

type Kind int

const (
	KindLeaf Kind = iota
	KindSequence
	KindMapping
)

// Node is a format-independent document tree. Mapping entries keep document order.
type Node struct {
	Kind    Kind
	Value   string
	Items   []*Node
	Entries []Entry
}

type Entry struct {
	Key   string
	Value *Node
}

// Field returns the value of a direct mapping child, or nil.
func (n *Node) Field(key string) *Node {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Scalar returns the leaf value of a direct mapping child, or "" when absent or not a leaf.
func (n *Node) Scalar(key string) string {
	child := n.Field(key)
	if child == nil || child.Kind != KindLeaf {
		return ""
	}
	return child.Value
}

// Walk visits n and then every descendant depth first, in document order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	switch n.Kind {
	case KindSequence:
		for _, item := range n.Items {
			Walk(item, visit)
		}
	case KindMapping:
		for _, e := range n.Entries {
			Walk(e.Value, visit)
		}
	}
}

// DecodeJSON reads one JSON value token by token so object key order survives.
func DecodeJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return decodeJSONValue(dec)
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			node := &Node{Kind: KindMapping}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeJSONValue(dec)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", key, err)
				}
				node.Entries = append(node.Entries, Entry{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &Node{Kind: KindSequence}
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				node.Items = append(node.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &Node{Kind: KindLeaf, Value: t}, nil
	case json.Number:
		return &Node{Kind: KindLeaf, Value: t.String()}, nil
	case bool:
		return &Node{Kind: KindLeaf, Value: strconv.FormatBool(t)}, nil
	case nil:
		return &Node{Kind: KindLeaf}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// DecodeYAML converts the first YAML document in r into a Node tree.
func DecodeYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &Node{Kind: KindMapping}, nil
		}
		return nil, err
	}
	return fromYAML(&doc, 0)
}

const maxYAMLDepth = 256

func fromYAML(y *yaml.Node, depth int) (*Node, error) {
	if depth > maxYAMLDepth {
		return nil, fmt.Errorf("yaml nesting deeper than %d at line %d", maxYAMLDepth, y.Line)
	}

	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return &Node{Kind: KindMapping}, nil
		}
		return fromYAML(y.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAML(y.Alias, depth+1)
	case yaml.ScalarNode:
		if y.Tag == "!!null" {
			return &Node{Kind: KindLeaf}, nil
		}
		return &Node{Kind: KindLeaf, Value: y.Value}, nil
	case yaml.SequenceNode:
		node := &Node{Kind: KindSequence}
		for _, c := range y.Content {
			item, err := fromYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, item)
		}
		return node, nil
	case yaml.MappingNode:
		node := &Node{Kind: KindMapping}
		for i := 0; i+1 < len(y.Content); i += 2 {
			value, err := fromYAML(y.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			node.Entries = append(node.Entries, Entry{Key: y.Content[i].Value, Value: value})
		}
		return node, nil
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", y.Kind, y.Line)
}
