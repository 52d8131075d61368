package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// peer is a union-typed identifier, like a Telegram chat id.
type peer string

func (peer) JSONSchema() *Schema {
	return &Schema{AnyOf: []*Schema{{Type: "integer"}, {Type: "string"}}}
}

// handle implements Provider on its pointer receiver.
type handle struct{ v string }

func (*handle) JSONSchema() *Schema {
	return &Schema{Type: "string", Description: "a handle"}
}

func TestGenerate(t *testing.T) {
	t.Run("maps kinds to types", func(t *testing.T) {
		type Input struct {
			Text    string   `json:"text"`
			Offset  int64    `json:"offset"`
			Ratio   float64  `json:"ratio"`
			Silent  bool     `json:"silent"`
			Tags    []string `json:"tags"`
			Ignored string   `json:"-"`
			hidden  string
		}

		got, err := Generate(Input{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}

		want := &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"text":   {Type: "string"},
				"offset": {Type: "integer"},
				"ratio":  {Type: "number"},
				"silent": {Type: "boolean"},
				"tags":   {Type: "array", Items: &Schema{Type: "string"}},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("parses jsonschema tags", func(t *testing.T) {
		type Input struct {
			Text  string `json:"text" jsonschema:"required,description=Message text"`
			Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,default=10"`
		}

		got, err := Generate(Input{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}

		if diff := cmp.Diff([]string{"text"}, got.Required); diff != "" {
			t.Errorf("Required mismatch (-want +got):\n%s", diff)
		}
		if got.Properties["text"].Description != "Message text" {
			t.Errorf("Description = %q", got.Properties["text"].Description)
		}
		limit := got.Properties["limit"]
		if limit.Minimum == nil || *limit.Minimum != 1 {
			t.Errorf("Minimum = %v, want 1", limit.Minimum)
		}
		if limit.Maximum == nil || *limit.Maximum != 100 {
			t.Errorf("Maximum = %v, want 100", limit.Maximum)
		}
		if limit.Default != float64(10) {
			t.Errorf("Default = %#v, want 10", limit.Default)
		}
	})

	t.Run("rejects malformed bounds", func(t *testing.T) {
		type Input struct {
			Limit int `json:"limit" jsonschema:"minimum=one"`
		}
		if _, err := Generate(Input{}); err == nil {
			t.Fatal("expected error for non-numeric minimum")
		}
	})

	t.Run("uses Provider schemas", func(t *testing.T) {
		type Input struct {
			Peer   peer   `json:"peer" jsonschema:"required"`
			Handle handle `json:"handle"`
		}

		got, err := Generate(Input{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}

		if n := len(got.Properties["peer"].AnyOf); n != 2 {
			t.Errorf("peer anyOf has %d alternatives, want 2", n)
		}
		if got.Properties["handle"].Description != "a handle" {
			t.Errorf("handle schema = %+v", got.Properties["handle"])
		}
	})

	t.Run("marshals to JSON Schema", func(t *testing.T) {
		type Input struct {
			Peer peer `json:"peer" jsonschema:"required"`
		}

		s, err := Generate(Input{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}

		want := `{"type":"object","properties":{"peer":{"anyOf":[{"type":"integer"},{"type":"string"}]}},"required":["peer"]}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})
}
