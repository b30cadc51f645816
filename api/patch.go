package api

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/wI2L/jsondiff"
)

// Operation is one JSON-Patch step of a partial update.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// MarshalJSON always writes value for add and replace, null included, and
// never for other operations.
func (o Operation) MarshalJSON() ([]byte, error) {
	type plain struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Value *any   `json:"value,omitempty"`
	}
	out := plain{Op: o.Op, Path: o.Path}
	if o.Op == "add" || o.Op == "replace" {
		value := o.Value
		out.Value = &value
	}
	return json.Marshal(out)
}

// Replace sets field to value. Nested fields are dot separated
// ("birthday.year").
func Replace(field string, value any) Operation {
	return Operation{Op: "replace", Path: pointer(field), Value: value}
}

// Add sets a field that is currently absent.
func Add(field string, value any) Operation {
	return Operation{Op: "add", Path: pointer(field), Value: value}
}

// Remove clears field.
func Remove(field string) Operation {
	return Operation{Op: "remove", Path: pointer(field)}
}

// ParseAssignment reads "field=value". The value is taken as JSON when it
// parses as JSON (numbers, booleans, arrays, objects, quoted strings, null)
// and as a plain string otherwise.
func ParseAssignment(expr string) (Operation, error) {
	field, raw, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Operation{}, invalidf("expected field=value, got %q", expr)
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	return Replace(field, value), nil
}

// diff returns the operations that turn from into to. Nested objects are
// compared field by field.
func diff(from, to []byte) ([]Operation, error) {
	patch, err := jsondiff.CompareJSON(from, to)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	if len(patch) == 0 {
		return nil, nil
	}

	ops := make([]Operation, len(patch))
	for i, op := range patch {
		ops[i] = Operation{Op: op.Type, Path: op.Path, Value: op.Value}
	}
	return ops, nil
}

// Plan works out the patch for an edit of current. merge, when not empty,
// is a JSON merge patch (RFC 7386) laid over current first; ops are then
// applied, with replaces of absent fields treated as adds. The result is
// the minimal difference between current and the edited document, which
// is empty when the edit changes nothing.
func Plan(current any, merge []byte, ops []Operation) ([]Operation, error) {
	doc, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode current value: %w", err)
	}

	desired := doc
	if len(strings.TrimSpace(string(merge))) > 0 {
		if desired, err = jsonpatch.MergePatch(desired, merge); err != nil {
			return nil, invalidf("merge document: %v", err)
		}
	}

	if len(ops) > 0 {
		local := make([]Operation, len(ops))
		for i, op := range ops {
			if op.Op == "replace" {
				op.Op = "add"
			}
			local[i] = op
		}
		raw, err := json.Marshal(local)
		if err != nil {
			return nil, err
		}
		patch, err := jsonpatch.DecodePatch(raw)
		if err != nil {
			return nil, invalidf("patch: %v", err)
		}
		options := jsonpatch.NewApplyOptions()
		options.EnsurePathExistsOnAdd = true
		options.AllowMissingPathOnRemove = true
		if desired, err = patch.ApplyWithOptions(desired, options); err != nil {
			return nil, invalidf("patch: %v", err)
		}
	}

	return diff(doc, desired)
}

func pointer(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		parts[i] = escapePointer(p)
	}
	return "/" + strings.Join(parts, "/")
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
