// Package access provides the container-access capability the evaluation
// engine calls into: enumerating, indexing and counting arbitrary host
// values. The engine is polymorphic only over the Accessor interface, never
// over concrete container types.
package access

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Entry is one key/value pair of a container's ordered view. Key is a string
// for maps and member-bearing objects, an int for sequences.
type Entry struct {
	Key   any
	Value any
}

// Accessor produces ordered key/value views of host containers.
//
// Entries must return a deterministic ordering for a given value so that
// repeated extractions over the same roots yield identical output.
type Accessor interface {
	// IsContainer reports whether v can be enumerated.
	IsContainer(v any) bool

	// Entries returns the ordered key/value view of v, or nil when v is not
	// a container.
	Entries(v any) []Entry

	// Get performs a single-key lookup. Key is a string or an int.
	Get(v any, key any) (any, bool)

	// IsCountable reports whether v has a length usable to resolve negative
	// slice indices.
	IsCountable(v any) bool

	// Len returns the entry count of a countable value.
	Len(v any) int
}

var defaultAccessor Accessor = reflectAccessor{}

// Register replaces the process-wide default accessor. Intended for
// bootstrapping hosts with bespoke container kinds; not safe to call
// concurrently with extractions.
func Register(a Accessor) {
	if a != nil {
		defaultAccessor = a
	}
}

// Default returns the process-wide accessor.
func Default() Accessor {
	return defaultAccessor
}

// reflectAccessor handles maps, slices, arrays, structs and pointers to
// these. Map entries are ordered by key so enumeration is deterministic.
type reflectAccessor struct{}

func (reflectAccessor) IsContainer(v any) bool {
	rv := deref(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

func (a reflectAccessor) Entries(v any) []Entry {
	rv := deref(reflect.ValueOf(v))

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		entries := make([]Entry, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			entries = append(entries, Entry{Key: i, Value: rv.Index(i).Interface()})
		}
		return entries

	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return mapKeyLess(keys[i], keys[j])
		})
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: mapKey(k), Value: rv.MapIndex(k).Interface()})
		}
		return entries

	case reflect.Struct:
		return structEntries(rv)

	default:
		return nil
	}
}

func (a reflectAccessor) Get(v any, key any) (any, bool) {
	rv := deref(reflect.ValueOf(v))

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		idx, ok := asIndex(key)
		if !ok {
			return nil, false
		}
		if idx < 0 {
			idx += rv.Len()
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true

	case reflect.Map:
		return mapGet(rv, key)

	case reflect.Struct:
		name, ok := key.(string)
		if !ok {
			return nil, false
		}
		return structGet(rv, name)

	default:
		return nil, false
	}
}

func (a reflectAccessor) IsCountable(v any) bool {
	rv := deref(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

func (a reflectAccessor) Len(v any) int {
	rv := deref(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len()
	default:
		return 0
	}
}

func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func asIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case string:
		idx, err := strconv.Atoi(k)
		if err != nil {
			return 0, false
		}
		return idx, true
	default:
		return 0, false
	}
}

func mapKey(k reflect.Value) any {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(k.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(k.Uint())
	default:
		return fmt.Sprintf("%v", k.Interface())
	}
}

func mapKeyLess(a, b reflect.Value) bool {
	if a.Kind() == reflect.String && b.Kind() == reflect.String {
		return a.String() < b.String()
	}
	ka, aInt := mapKey(a).(int)
	kb, bInt := mapKey(b).(int)
	if aInt && bInt {
		return ka < kb
	}
	return fmt.Sprintf("%v", a.Interface()) < fmt.Sprintf("%v", b.Interface())
}

func mapGet(rv reflect.Value, key any) (any, bool) {
	keyType := rv.Type().Key()

	kv := reflect.ValueOf(key)
	if !kv.IsValid() {
		return nil, false
	}

	if !kv.Type().AssignableTo(keyType) {
		switch {
		case keyType.Kind() == reflect.String:
			// reflect.Convert turns an int into its rune string, so
			// render numeric keys in decimal instead.
			if i, ok := key.(int); ok {
				kv = reflect.ValueOf(strconv.Itoa(i)).Convert(keyType)
			} else if kv.Kind() == reflect.String && kv.CanConvert(keyType) {
				kv = kv.Convert(keyType)
			} else {
				return nil, false
			}
		case isIntKind(keyType.Kind()):
			if s, ok := key.(string); ok {
				idx, err := strconv.Atoi(s)
				if err != nil {
					return nil, false
				}
				kv = reflect.ValueOf(idx).Convert(keyType)
			} else if kv.CanConvert(keyType) {
				kv = kv.Convert(keyType)
			} else {
				return nil, false
			}
		case kv.CanConvert(keyType):
			kv = kv.Convert(keyType)
		default:
			return nil, false
		}
	}

	out := rv.MapIndex(kv)
	if !out.IsValid() {
		return nil, false
	}
	return out.Interface(), true
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// structEntries enumerates exported fields in declaration order, then
// zero-argument single-return exported methods that do not shadow a field.
func structEntries(rv reflect.Value) []Entry {
	t := rv.Type()
	var entries []Entry
	seen := map[string]bool{}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		seen[f.Name] = true
		entries = append(entries, Entry{Key: f.Name, Value: rv.Field(i).Interface()})
	}

	pv := rv
	if rv.CanAddr() {
		pv = rv.Addr()
	}
	pt := pv.Type()
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if seen[m.Name] || !isAccessorMethod(m.Func.Type()) {
			continue
		}
		out := pv.Method(i).Call(nil)
		entries = append(entries, Entry{Key: m.Name, Value: out[0].Interface()})
	}

	return entries
}

func structGet(rv reflect.Value, name string) (any, bool) {
	if f := rv.FieldByName(name); f.IsValid() {
		if sf, ok := rv.Type().FieldByName(name); ok && sf.IsExported() {
			return f.Interface(), true
		}
		return nil, false
	}

	for _, candidate := range []string{name, "Get" + name} {
		m := rv.MethodByName(candidate)
		if !m.IsValid() && rv.CanAddr() {
			m = rv.Addr().MethodByName(candidate)
		}
		if m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
			return m.Call(nil)[0].Interface(), true
		}
	}

	return nil, false
}

// isAccessorMethod reports whether a method (including its receiver
// parameter) is a zero-argument, single-return getter.
func isAccessorMethod(t reflect.Type) bool {
	return t.NumIn() == 1 && t.NumOut() == 1
}

// Stringify renders a scalar value for key construction and regex matching.
// It reports false for values with no meaningful string form.
func Stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case uint64:
		return strconv.FormatUint(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	case fmt.Stringer:
		return s.String(), true
	case nil:
		return "", false
	default:
		return "", false
	}
}

// KeyString renders an entry key as its property-path label.
func KeyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case int:
		return strconv.Itoa(k)
	default:
		return fmt.Sprintf("%v", k)
	}
}
