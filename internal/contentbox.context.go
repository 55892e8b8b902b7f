package internal

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Context is a persistent stack of named bindings used during evaluation.
// Push never mutates the receiver: it returns a new frame whose binding
// shadows any earlier binding of the same name. Frames are immutable and
// safe to share between goroutines.
type Context struct {
	parent *Context
	name   string
	value  any
	size   int
}

// NewContext creates an empty evaluation context
func NewContext() *Context {
	return &Context{}
}

// Push returns a new context with name bound to value
func (c *Context) Push(name string, value any) *Context {
	size := 1
	if c != nil {
		size = c.size + 1
	}
	return &Context{
		parent: c,
		name:   name,
		value:  value,
		size:   size,
	}
}

// PushAll pushes the given bindings in key order
func (c *Context) PushAll(bindings map[string]any) *Context {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := c
	for _, k := range keys {
		result = result.Push(k, bindings[k])
	}
	return result
}

// Value returns the most recent binding for name
func (c *Context) Value(name string) (any, bool) {
	for frame := c; frame != nil; frame = frame.parent {
		if frame.size > 0 && frame.name == name {
			return frame.value, true
		}
	}
	return nil, false
}

// Has reports whether name is bound
func (c *Context) Has(name string) bool {
	_, ok := c.Value(name)
	return ok
}

// Lookup resolves a dotted path such as "props.title" against the context.
// Missing intermediate values yield (nil, false, nil).
func (c *Context) Lookup(path string) (any, bool, error) {
	segments := strings.Split(path, string(CharDot))
	value, ok := c.Value(segments[0])
	if !ok {
		return nil, false, nil
	}
	for _, segment := range segments[1:] {
		next, found, err := Traverse(value, segment)
		if err != nil || !found {
			return nil, false, err
		}
		value = next
	}
	return value, true, nil
}

// Get resolves a dotted path and ignores lookup errors
func (c *Context) Get(path string) (any, bool) {
	value, ok, err := c.Lookup(path)
	if err != nil {
		return nil, false
	}
	return value, ok
}

// Names returns all visible binding names in sorted order
func (c *Context) Names() []string {
	seen := make(map[string]bool)
	for frame := c; frame != nil; frame = frame.parent {
		if frame.size > 0 {
			seen[frame.name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Depth returns the number of frames pushed onto this context
func (c *Context) Depth() int {
	if c == nil {
		return 0
	}
	return c.size
}

// PropertyAccessor is implemented by values whose properties are resolved
// on demand, such as Fusion objects exposed as "this" or "props".
type PropertyAccessor interface {
	GetProperty(name string) (any, bool, error)
}

// Traverse reads a single named member of a value.
// Supported are property accessors, ordered maps, maps, slices (numeric keys)
// and exported struct fields or zero-argument methods.
func Traverse(value any, key string) (any, bool, error) {
	if value == nil {
		return nil, false, nil
	}

	switch v := value.(type) {
	case PropertyAccessor:
		return v.GetProperty(key)
	case map[string]any:
		result, ok := v[key]
		return result, ok, nil
	case map[string]string:
		result, ok := v[key]
		return result, ok, nil
	case map[any]any:
		result, ok := v[key]
		return result, ok, nil
	case []any:
		return indexSlice(reflect.ValueOf(v), key)
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false, nil
		}
		if method, ok := lookupMethod(rv, key); ok {
			return method, true, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
		result := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !result.IsValid() {
			return nil, false, nil
		}
		return result.Interface(), true, nil
	case reflect.Slice, reflect.Array:
		return indexSlice(rv, key)
	case reflect.Struct:
		field := rv.FieldByName(exportedName(key))
		if field.IsValid() && field.CanInterface() {
			return field.Interface(), true, nil
		}
		if method, ok := lookupMethod(rv, key); ok {
			return method, true, nil
		}
	}
	return nil, false, nil
}

// lookupMethod calls an exported zero-argument method named after key
func lookupMethod(rv reflect.Value, key string) (any, bool) {
	method := rv.MethodByName(exportedName(key))
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil, false
	}
	return method.Call(nil)[0].Interface(), true
}

func indexSlice(rv reflect.Value, key string) (any, bool, error) {
	index, err := strconv.Atoi(key)
	if err != nil || index < 0 || index >= rv.Len() {
		return nil, false, nil
	}
	return rv.Index(index).Interface(), true, nil
}

func exportedName(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if size == 0 {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// OrderedMap is a string-keyed map that remembers insertion order.
// It is the result type of DataStructure evaluation.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty ordered map
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// OrderedMapFromMap creates an ordered map from m with keys sorted
func OrderedMapFromMap(m map[string]any) *OrderedMap {
	result := NewOrderedMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result.Set(k, m[k])
	}
	return result
}

// Set assigns a value; existing keys keep their position
func (m *OrderedMap) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m.values[key]
	return value, ok
}

// GetProperty implements PropertyAccessor
func (m *OrderedMap) GetProperty(name string) (any, bool, error) {
	value, ok := m.Get(name)
	return value, ok, nil
}

// Delete removes a key
func (m *OrderedMap) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Values returns the values in key order
func (m *OrderedMap) Values() []any {
	if m == nil {
		return nil
	}
	values := make([]any, len(m.keys))
	for i, k := range m.keys {
		values[i] = m.values[k]
	}
	return values
}

// Len returns the number of entries
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// ToMap returns a plain map copy
func (m *OrderedMap) ToMap() map[string]any {
	result := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		result[k] = m.values[k]
	}
	return result
}

// MarshalJSON encodes the map as a JSON object preserving key order
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}
