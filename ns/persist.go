package ns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuples are stored as arrays, for instance a request is ["Login", "Init"].

func decodeTuple(data []byte, fields ...any) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != len(fields) {
		return fmt.Errorf("ns: expected a tuple of %d elements, got %d", len(fields), len(raw))
	}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return err
		}
	}
	return nil
}

func decodeYAMLTuple(node *yaml.Node, fields ...any) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != len(fields) {
		return fmt.Errorf("ns: line %d: expected a sequence of %d elements", node.Line, len(fields))
	}
	for i, f := range fields {
		if err := node.Content[i].Decode(f); err != nil {
			return err
		}
	}
	return nil
}

func (r Request[Req, L]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Request, r.Local})
}

func (r *Request[Req, L]) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &r.Request, &r.Local)
}

func (r Request[Req, L]) MarshalYAML() (any, error) {
	return []any{r.Request, r.Local}, nil
}

func (r *Request[Req, L]) UnmarshalYAML(node *yaml.Node) error {
	return decodeYAMLTuple(node, &r.Request, &r.Local)
}

func (r Response[L, Resp]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Local, r.Response})
}

func (r *Response[L, Resp]) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &r.Local, &r.Response)
}

func (r Response[L, Resp]) MarshalYAML() (any, error) {
	return []any{r.Local, r.Response}, nil
}

func (r *Response[L, Resp]) UnmarshalYAML(node *yaml.Node) error {
	return decodeYAMLTuple(node, &r.Local, &r.Response)
}

func (t Transition[G, L]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.FromLocal, t.FromGlobal, t.ToLocal, t.ToGlobal})
}

func (t *Transition[G, L]) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &t.FromLocal, &t.FromGlobal, &t.ToLocal, &t.ToGlobal)
}

func (t Transition[G, L]) MarshalYAML() (any, error) {
	return []any{t.FromLocal, t.FromGlobal, t.ToLocal, t.ToGlobal}, nil
}

func (t *Transition[G, L]) UnmarshalYAML(node *yaml.Node) error {
	return decodeYAMLTuple(node, &t.FromLocal, &t.FromGlobal, &t.ToLocal, &t.ToGlobal)
}

// ToJSON returns the indented JSON encoding of n
func (n *NS[G, L, Req, Resp]) ToJSON() ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}

// FromJSON decodes a Network System encoded by ToJSON
func FromJSON[G, L, Req, Resp comparable](data []byte) (*NS[G, L, Req, Resp], error) {
	n := &NS[G, L, Req, Resp]{}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("ns: decoding json: %w", err)
	}
	return n, nil
}

func (n *NS[G, L, Req, Resp]) ToYAML() ([]byte, error) {
	return yaml.Marshal(n)
}

func FromYAML[G, L, Req, Resp comparable](data []byte) (*NS[G, L, Req, Resp], error) {
	n := &NS[G, L, Req, Resp]{}
	if err := yaml.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("ns: decoding yaml: %w", err)
	}
	return n, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads a Network System from a .json, .yaml or .yml file
func Load[G, L, Req, Resp comparable](path string) (*NS[G, L, Req, Resp], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return FromYAML[G, L, Req, Resp](data)
	}
	return FromJSON[G, L, Req, Resp](data)
}

// Save writes n to path, as YAML if the extension asks for it and as JSON otherwise
func (n *NS[G, L, Req, Resp]) Save(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = n.ToYAML()
	} else {
		data, err = n.ToJSON()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
