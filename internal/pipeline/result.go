package pipeline

import (
	"bytes"
	"encoding/json"
	"image"
	"strconv"
)

// NoSymbolsMessage is reported when no region survives the pipeline.
const NoSymbolsMessage = "No symbols detected"

// SymbolPrediction is the label assigned to one symbol.
type SymbolPrediction struct {
	Index      int             `json:"index"`
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"-"`
}

// Key returns the output key for the symbol, e.g. "symbol_3".
func (s SymbolPrediction) Key() string {
	return "symbol_" + strconv.Itoa(s.Index)
}

// Result is the prediction set for one image.
//
// It marshals to a flat JSON object whose keys appear in reading order:
//
//	{"symbol_1": "1", "symbol_2": "+", "symbol_3": "2", "expression": "1+2", "result": "3"}
//
// or {"message": "No symbols detected"} when Symbols is empty.
type Result struct {
	Symbols    []SymbolPrediction
	Expression string
	Value      string

	evaluate bool
}

// Empty reports whether no symbol was detected.
func (r *Result) Empty() bool {
	return len(r.Symbols) == 0
}

// Evaluated reports whether Expression and Value were filled in.
func (r *Result) Evaluated() bool {
	return r.evaluate && !r.Empty()
}

// Labels returns the labels in index order.
func (r *Result) Labels() []string {
	labels := make([]string, len(r.Symbols))
	for i, s := range r.Symbols {
		labels[i] = s.Label
	}
	return labels
}

// MeanConfidence averages the confidence of the reported symbols, or returns
// 0 when there are none.
func (r *Result) MeanConfidence() float64 {
	if r.Empty() {
		return 0
	}
	var sum float64
	for _, s := range r.Symbols {
		sum += s.Confidence
	}
	return sum / float64(len(r.Symbols))
}

// MarshalJSON writes the keys in index order. encoding/json sorts map keys,
// which would put symbol_10 before symbol_2.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if r.Empty() {
		if err := writeField(&buf, "message", NoSymbolsMessage, true); err != nil {
			return nil, err
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	for i, s := range r.Symbols {
		if err := writeField(&buf, s.Key(), s.Label, i == 0); err != nil {
			return nil, err
		}
	}
	if r.Evaluated() {
		if err := writeField(&buf, "expression", r.Expression, false); err != nil {
			return nil, err
		}
		if err := writeField(&buf, "result", r.Value, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key, value string, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
