/*
Package snapshot
File: snapshot.go
Description:
    The save-file contract: World JSON in, World JSON out.
    Decoding runs four layers in order: a generic parse, a minimal shape
    check, JSON Schema validation and a strict typed decode. The schema's
    stat and rank bounds come from the active catalog, so a Codec is built
    per catalog.
*/

package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

var (
	// ErrInvalidFormat is the minimal shape check: money must be a number
	// and facilities an array.
	ErrInvalidFormat = errors.New("invalid save data format")
	// ErrSchema wraps a structural validation failure.
	ErrSchema = errors.New("save data failed schema validation")
)

//go:embed schema.json
var schemaJSON string

// Codec decodes snapshots against a schema whose stat and rank bounds come
// from the active catalog's balance. A catalog that raises a cap must decode
// the states its own engine produces.
type Codec struct {
	schema *jsonschema.Schema
}

// NewCodec compiles the snapshot schema for b.
func NewCodec(b game.Balance) (*Codec, error) {
	if b.StatCap <= 0 || b.RankCap <= 0 {
		return nil, fmt.Errorf("snapshot codec: stat_cap %d and rank_cap %d must be positive", b.StatCap, b.RankCap)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("snapshot codec: %w", err)
	}
	defs, ok := doc["$defs"].(map[string]any)
	if !ok {
		return nil, errors.New("snapshot codec: schema has no $defs")
	}
	for name, limit := range map[string]int{"stat": b.StatCap, "level": b.RankCap} {
		def, ok := defs[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("snapshot codec: schema has no %q definition", name)
		}
		def["maximum"] = limit
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("snapshot codec: %w", err)
	}
	schema, err := jsonschema.CompileString("schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("snapshot codec: %w", err)
	}
	return &Codec{schema: schema}, nil
}

var defaultCodec = sync.OnceValue(func() *Codec {
	c, err := NewCodec(game.MustDefaultCatalog().Balance)
	if err != nil {
		panic(err)
	}
	return c
})

// Default is the codec for the embedded catalog.
func Default() *Codec {
	return defaultCodec()
}

// Encode renders w as canonical snapshot JSON.
func Encode(w game.World) ([]byte, error) {
	return json.Marshal(w)
}

// Decode validates data with the default codec.
func Decode(data []byte) (game.World, error) {
	return Default().Decode(data)
}

// Decode validates and parses a snapshot. The result is normalized so every
// map is non-nil.
func (c *Codec) Decode(data []byte) (game.World, error) {
	// 1. Generic parse, numbers kept exact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return game.World{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	// 2. Minimal shape check
	if err := checkShape(doc); err != nil {
		return game.World{}, err
	}

	// 3. Structural validation
	if err := c.schema.Validate(doc); err != nil {
		return game.World{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	// 4. Strict typed decode
	typed := json.NewDecoder(bytes.NewReader(data))
	typed.DisallowUnknownFields()
	var w game.World
	if err := typed.Decode(&w); err != nil {
		return game.World{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return w.Normalize(), nil
}

func checkShape(doc any) error {
	obj, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: not an object", ErrInvalidFormat)
	}
	if _, ok := obj["money"].(json.Number); !ok {
		return fmt.Errorf("%w: money must be a number", ErrInvalidFormat)
	}
	if _, ok := obj["facilities"].([]any); !ok {
		return fmt.Errorf("%w: facilities must be an array", ErrInvalidFormat)
	}
	return nil
}
