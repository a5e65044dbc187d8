package options

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nvr-ai/go-imageopt/codecs"
	"github.com/nvr-ai/go-imageopt/images"
)

type kind int

const (
	kindAny kind = iota
	kindString
	kindBool
	kindQuality
	kindFormat
	kindFilter
	kindCodec
)

type rule struct {
	kind kind
	// targets are the codec structs a nested map may fill.
	targets []any
}

var fileSchema = map[string]rule{
	"format":        {kind: kindFormat},
	"f":             {kind: kindFormat},
	"quality":       {kind: kindQuality},
	"q":             {kind: kindQuality},
	"width":         {kind: kindAny},
	"w":             {kind: kindAny},
	"height":        {kind: kindAny},
	"h":             {kind: kindAny},
	"inline":        {kind: kindAny},
	"skip":          {kind: kindAny},
	"placeholder":   {kind: kindAny},
	"interpolation": {kind: kindFilter},
	"svgo":          {kind: kindCodec, targets: []any{codecs.SVGOptions{}}},
	"svg":           {kind: kindCodec, targets: []any{codecs.SVGOptions{}}},
}

var globalSchema = map[string]rule{
	"jpg":        {kind: kindCodec, targets: []any{codecs.MozjpegOptions{}}},
	"jpeg":       {kind: kindCodec, targets: []any{codecs.MozjpegOptions{}}},
	"png":        {kind: kindCodec, targets: []any{codecs.PngquantOptions{}, codecs.OptipngOptions{}}},
	"gif":        {kind: kindCodec, targets: []any{codecs.GifsicleOptions{}}},
	"webp":       {kind: kindCodec, targets: []any{codecs.WebPOptions{}}},
	"svgo":       {kind: kindCodec, targets: []any{codecs.SVGOptions{}}},
	"svg":        {kind: kindCodec, targets: []any{codecs.SVGOptions{}}},
	"gifsicle":   {kind: kindCodec, targets: []any{codecs.GifsicleOptions{}}},
	"mozjpeg":    {kind: kindCodec, targets: []any{codecs.MozjpegOptions{}}},
	"pngquant":   {kind: kindCodec, targets: []any{codecs.PngquantOptions{}}},
	"optipng":    {kind: kindCodec, targets: []any{codecs.OptipngOptions{}}},
	"outputPath": {kind: kindString},
	"emitFile":   {kind: kindBool},
	"name":       {kind: kindString},
	"gzip":       {kind: kindBool},
}

// codecKeyAliases maps legacy codec option spellings to their json names.
var codecKeyAliases = map[string]string{
	"palletteReduction": "paletteReduction",
}

// canonicalCodecKeys renames legacy keys. A key already present under its
// current name wins over the legacy one.
func canonicalCodecKeys(m Layer) Layer {
	out := make(Layer, len(m))
	for k, v := range m {
		if name, ok := codecKeyAliases[k]; ok {
			if _, set := m[name]; set {
				continue
			}
			k = name
		}
		out[k] = v
	}
	return out
}

// Validate checks a layer against the vocabulary of its source. A nil or
// empty layer is valid.
func Validate(name LayerName, l Layer) error {
	schema := globalSchema
	if name == FileLayer {
		schema = fileSchema
	}

	for _, key := range l.Keys() {
		r, ok := schema[key]
		if !ok {
			return &ValidationError{Layer: name, Key: key, Reason: "unknown option"}
		}
		if v := l[key]; v == nil || v == "" {
			// Empty values are unset; the merge falls back to the next alias.
			continue
		}
		if reason := r.check(l[key]); reason != "" {
			return &ValidationError{Layer: name, Key: key, Reason: reason}
		}
	}
	return nil
}

func (r rule) check(v any) string {
	if r.kind != kindCodec && asLayer(v) != nil {
		return "expected a value, got an object"
	}

	switch r.kind {
	case kindString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("expected a string, got %T", v)
		}
	case kindBool:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected a boolean, got %T", v)
		}
	case kindQuality:
		return checkQuality(v)
	case kindFormat:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("expected a format name, got %T", v)
		}
		if f, ok := images.ParseFormat(s); !ok || !f.Resizable() {
			return fmt.Sprintf("unsupported target format %q (want jpg, jpeg, png or webp)", s)
		}
	case kindFilter:
		if _, err := images.ParseFilter(fmt.Sprint(v)); err != nil {
			return err.Error()
		}
	case kindCodec:
		return checkCodec(v, r.targets)
	}
	return ""
}

func checkQuality(v any) string {
	q, ok := toInt(v)
	if !ok {
		return fmt.Sprintf("expected a number, got %v", v)
	}
	if q < 0 || q > 100 {
		return fmt.Sprintf("quality %d out of range 0..100", q)
	}
	return ""
}

// checkCodec verifies every key of a nested map belongs to one of the target
// option structs and decodes into it.
func checkCodec(v any, targets []any) string {
	m := asLayer(v)
	if m == nil {
		return fmt.Sprintf("expected an object, got %T", v)
	}
	m = canonicalCodecKeys(m)

	for _, key := range m.Keys() {
		if key == "quality" {
			if reason := checkQuality(m[key]); reason != "" {
				return reason
			}
			continue
		}
		matched := false
		for _, t := range targets {
			if jsonFields(reflect.TypeOf(t))[key] {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Sprintf("unknown codec option %q", key)
		}
	}

	for _, t := range targets {
		if err := decodeInto(m, reflect.New(reflect.TypeOf(t)).Interface()); err != nil {
			return err.Error()
		}
	}
	return ""
}

// jsonFields lists the json names of a struct's fields.
func jsonFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out[name] = true
		}
	}
	return out
}

// decodeInto overlays m onto dst through JSON, so field names and types
// follow the struct tags. Keys dst does not know are ignored.
func decodeInto(m Layer, dst any) error {
	filtered := make(Layer, len(m))
	fields := jsonFields(reflect.TypeOf(dst).Elem())
	for k, v := range canonicalCodecKeys(m) {
		if !fields[k] {
			continue
		}
		if k == "quality" {
			if q, ok := toInt(v); ok {
				v = q
			}
		}
		filtered[k] = normalizeValue(v)
	}
	if len(filtered) == 0 {
		return nil
	}

	raw, err := json.Marshal(filtered)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		if te, ok := err.(*json.UnmarshalTypeError); ok {
			return fmt.Errorf("option %q: expected %s, got %s", te.Field, te.Type, te.Value)
		}
		return err
	}
	return nil
}

// normalizeValue turns YAML-decoded nested maps into JSON-encodable ones.
func normalizeValue(v any) any {
	if sub := asLayer(v); sub != nil {
		out := make(map[string]any, len(sub))
		for k, v := range sub {
			out[k] = normalizeValue(v)
		}
		return out
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = normalizeValue(v)
		}
		return out
	}
	return v
}
