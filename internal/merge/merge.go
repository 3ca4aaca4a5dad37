// Package merge folds a set of decoded JSON documents into one aggregate
// value. Object contents deep-merge, sequence contents extend the document
// or land under a key derived from their filename, primitives always land
// under the filename key.
//
// Note the asymmetry: sequences concatenate at the top level, but inside a
// deep merge an incoming sequence always overwrites. This is surprising but
// intentional, changing it would change which values survive a merge.
package merge

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// FileSet maps a base filename to its decoded JSON content. Contents are one
// of map[string]any, []any, string, float64, bool or nil, as produced by
// encoding/json into an any.
type FileSet map[string]any

// Merge folds all files in lexicographic filename order into a single
// document, starting from an empty object. Filename order decides which
// value wins on conflicting keys, later names win.
func Merge(files FileSet) (any, error) {
	var doc any = map[string]any{}

	for _, name := range slices.Sorted(maps.Keys(files)) {
		var err error
		doc, err = mergeOne(doc, name, files[name])
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func mergeOne(doc any, name string, content any) (any, error) {
	switch v := content.(type) {
	case map[string]any:
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot merge object file '%s' into a sequence document", name)
		}
		return deepMerge(m, v), nil
	case []any:
		return mergeSequence(doc, name, v)
	default:
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot store value of file '%s' into a sequence document", name)
		}
		m[stem(name)] = v
		return m, nil
	}
}

func mergeSequence(doc any, name string, content []any) (any, error) {
	if isEmpty(doc) {
		return slices.Clone(content), nil
	}

	if s, ok := doc.([]any); ok {
		return append(s, content...), nil
	}

	m := doc.(map[string]any)
	key := stem(name)
	if existing, ok := m[key].([]any); ok {
		m[key] = append(slices.Clone(existing), content...)
	} else {
		m[key] = content
	}
	return m, nil
}

// deepMerge combines two objects key by key. Values recurse only when both
// sides are objects, any other pairing lets the incoming value overwrite,
// sequences included. Neither argument is mutated.
func deepMerge(base, incoming map[string]any) map[string]any {
	result := maps.Clone(base)

	for key, value := range incoming {
		existing, ok := result[key].(map[string]any)
		if incomingMap, bothObjects := value.(map[string]any); ok && bothObjects {
			result[key] = deepMerge(existing, incomingMap)
		} else {
			result[key] = value
		}
	}

	return result
}

func isEmpty(doc any) bool {
	switch v := doc.(type) {
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
