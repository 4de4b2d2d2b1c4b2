package hostval

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one workload item: a value and how many times to dispatch it.
type Entry struct {
	Name   string `toml:"name" msgpack:"name,omitempty"`
	Repeat int    `toml:"repeat" msgpack:"repeat,omitempty"`
	Spec   `msgpack:",inline"`
}

// Workload is a set of records and values replayed through a dispatcher.
type Workload struct {
	Records []Record `toml:"record" msgpack:"records,omitempty"`
	Values  []Entry  `toml:"value" msgpack:"values"`
}

// Item is a built workload entry.
type Item struct {
	Name   string
	Repeat int
	Value  any
}

// LoadWorkload reads a workload from path. Files ending in .msgpack or .mp
// are msgpack payloads; anything else is TOML.
func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		return DecodeWorkload(data)
	}
	var w Workload
	meta, err := toml.Decode(string(data), &w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !meta.IsDefined("value") {
		return nil, fmt.Errorf("%s: %w: no [[value]] entries", path, ErrBadSpec)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: %w: unknown key %s", path, ErrBadSpec, undecoded[0])
	}
	return &w, nil
}

// DecodeWorkload decodes a msgpack workload payload.
func DecodeWorkload(data []byte) (*Workload, error) {
	var w Workload
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode workload: %w", err)
	}
	return &w, nil
}

// EncodeWorkload encodes w as a msgpack payload.
func EncodeWorkload(w *Workload) ([]byte, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSpec decodes a single msgpack-encoded Spec.
func DecodeSpec(data []byte) (Spec, error) {
	var s Spec
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("decode spec: %w", err)
	}
	return s, nil
}

// EncodeSpec encodes s as msgpack.
func EncodeSpec(s Spec) ([]byte, error) {
	return msgpack.Marshal(s)
}

// Build declares w's records in b and builds every value.
func (w *Workload) Build(b *Builder) ([]Item, error) {
	for _, r := range w.Records {
		if _, err := b.Declare(r); err != nil {
			return nil, err
		}
	}
	items := make([]Item, len(w.Values))
	for i, e := range w.Values {
		v, err := b.Build(e.Spec)
		if err != nil {
			name := e.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("value %s: %w", name, err)
		}
		items[i] = Item{Name: e.Name, Repeat: max(e.Repeat, 1), Value: v}
		if items[i].Name == "" {
			items[i].Name = fmt.Sprintf("value%d", i)
		}
	}
	return items, nil
}
