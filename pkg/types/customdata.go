package types

import (
	"strings"

	"github.com/unet-io/unet/pkg/errcode"
)

// getCustomData walks a dot-path over a JSON-like value tree (maps and
// scalars, as produced by encoding/json unmarshaling into `any`).
// Absence at any step resolves to (nil, false).
func getCustomData(root any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	current := root
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setCustomData sets a dot-path value, creating intermediate objects as
// needed, and returns the (possibly replaced) root. It fails with a
// ValidationError when traversal hits a non-object, non-null value.
func setCustomData(root any, path string, value any) (any, error) {
	if path == "" {
		return root, errcode.ValidationError{Message: "path cannot be empty"}
	}
	parts := strings.Split(path, ".")

	if root == nil {
		root = map[string]any{}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return root, errcode.ValidationError{Message: "cannot navigate through non-object"}
	}

	current := obj
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return obj, nil
		}
		next, exists := current[part]
		if !exists || next == nil {
			created := map[string]any{}
			current[part] = created
			current = created
			continue
		}
		nextObj, ok := next.(map[string]any)
		if !ok {
			return obj, errcode.ValidationError{Message: "cannot navigate through non-object"}
		}
		current = nextObj
	}
	return obj, nil
}
