package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// keySerializer renders entity ids and lookup arguments into "::" separated keys.
// Values implementing fmt.Stringer (uuid.UUID, time.Time) use their String form so
// the same id always maps to the same key.
type keySerializer struct {
	namespace string
}

// NewDefaultKeySerializer creates a serializer without a namespace.
func NewDefaultKeySerializer() KeySerializer {
	return &keySerializer{}
}

// NewNamespacedKeySerializer prefixes every key with namespace. Keys from different
// namespaces never collide, which makes DeleteByPrefix(namespace+KeySeparator) safe.
func NewNamespacedKeySerializer(namespace string) KeySerializer {
	return &keySerializer{namespace: namespace}
}

// SerializeKey builds a key from method and args.
func (s *keySerializer) SerializeKey(method string, args ...any) string {
	parts := make([]string, 0, len(args)+2)
	if s.namespace != "" {
		parts = append(parts, s.namespace)
	}
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, segment(arg))
	}
	return strings.Join(parts, KeySeparator)
}

// KeyPrefix joins parts into a prefix usable with CacheService.DeleteByPrefix.
func KeyPrefix(parts ...string) string {
	return strings.Join(parts, KeySeparator) + KeySeparator
}

func segment(v any) string {
	if v == nil {
		return "nil"
	}

	switch tv := v.(type) {
	case string:
		return tv
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "nil"
		}
		return tv.String()
	case []byte:
		return fmt.Sprintf("bytes:%x", tv)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return fmt.Sprintf("%v", v)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return segment(rv.Elem().Interface())
	case reflect.Func:
		// stable only for the lifetime of the process
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "slice:nil"
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = segment(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ",") + "]"
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, segment(iter.Key().Interface())+"="+segment(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"
	case reflect.Struct:
		return structSegment(rv)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "type:" + rv.Type().String()
	}
	return "json:" + string(data)
}

func structSegment(rv reflect.Value) string {
	rt := rv.Type()
	fields := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f.Name+":"+segment(rv.Field(i).Interface()))
	}
	return rt.Name() + "{" + strings.Join(fields, ",") + "}"
}
