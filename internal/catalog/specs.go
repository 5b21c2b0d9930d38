package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Spec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Specs is an ordered name→value list. It decodes from either an array of
// {name,value} pairs or a JSON object, keeping the object's key order.
type Specs []Spec

func (s Specs) Clone() Specs {
	if s == nil {
		return nil
	}
	out := make(Specs, len(s))
	copy(out, s)
	return out
}

func (s Specs) Value(name string) (string, bool) {
	for _, sp := range s {
		if sp.Name == name {
			return sp.Value, true
		}
	}
	return "", false
}

func (s *Specs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = nil
		return nil
	case data[0] == '[':
		var list []Spec
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	case data[0] == '{':
		return s.unmarshalObject(data)
	default:
		return fmt.Errorf("specs: unexpected json %q", data[:1])
	}
}

func (s *Specs) unmarshalObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	var out Specs
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("specs: non-string key %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("specs: value for %q: %w", name, err)
		}
		out = append(out, Spec{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
