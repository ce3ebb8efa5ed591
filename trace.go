package project

import (
	"encoding/json"
)

// Layer names used in provenance traces, ordered strongest to weakest.
const (
	LayerOverrides  = "overrides"
	LayerExtensions = "extensions"
	LayerConfig     = "config"
)

// Trace captures provenance information for a given path lookup across the
// layers that produced the effective value.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific layer contributed to a traced path.
type Provenance struct {
	Layer string `json:"layer"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// EffectiveValue returns the value the strongest contributing layer supplied
// for the traced path, along with that layer's name.
func (t Trace) EffectiveValue() (any, string, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer.Value, layer.Layer, true
		}
	}
	return nil, "", false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
