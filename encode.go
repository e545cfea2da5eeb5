package multiform

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Marshaler is the interface implemented by types that can marshal themselves
// into a form field value.
type Marshaler interface {
	MarshalForm() (string, error)
}

var readerType = reflect.TypeOf((*io.Reader)(nil)).Elem()

// Marshal returns a new form holding the fields of v.
func Marshal(v interface{}, opts ...Option) (*Form, error) {
	f := New(opts...)
	if err := f.Encode(v); err != nil {
		return nil, err
	}
	return f, nil
}

// Encode appends the fields of v, which must be a struct or a map with string
// keys. Nested values are named with bracketed paths, such as address[city]
// and tags[]. Byte slices and io.Reader values become binary fields; struct
// tags may set filename= and type= for them:
//
//	Avatar io.Reader `form:"avatar,filename=avatar.png"`
//
// Either every field is appended or, on error, none are.
func (f *Form) Encode(v interface{}) error {
	if v == nil {
		return nil
	}

	// Dereference pointer if needed.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	// Ensure the top-level value is a struct or map.
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return fmt.Errorf("%w: top-level value must be struct or map", ErrInvalidField)
	}

	// Ensure map keys are strings.
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map keys must be strings", ErrInvalidField)
	}

	e := &encodeState{services: f.services}
	if err := e.marshalValue(nil, rv, nil); err != nil {
		return err
	}

	f.Boundary()
	f.parts = append(f.parts, e.parts...)
	return nil
}

// encodeState collects parts so that Encode can commit them all at once.
type encodeState struct {
	services *Services
	parts    []*Part
}

func (e *encodeState) add(path []string, value interface{}, t *tag) error {
	var opts *FieldOptions
	if t != nil {
		opts = &FieldOptions{Filename: t.Filename, ContentType: t.ContentType}
	}
	p, err := newPart(e.services, renderPath(path), value, opts)
	if err != nil {
		return err
	}
	e.parts = append(e.parts, p)
	return nil
}

func (e *encodeState) marshalValue(path []string, v reflect.Value, t *tag) error {
	if !v.IsValid() {
		return nil
	}

	// Handle nil pointers early to avoid dereferencing them.
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}

	// Readers are checked before dereferencing since most of them, like
	// *os.File, only implement io.Reader on the pointer.
	if r, ok := asReader(v); ok {
		return e.add(path, r, t)
	}

	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	// Handle custom Marshaler first.
	if m, ok := asMarshaler(v); ok {
		s, err := m.MarshalForm()
		if err != nil {
			return fmt.Errorf("form: marshalling field %q: %w", renderPath(path), err)
		}
		return e.add(path, s, t)
	}

	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return e.add(path, v.Bytes(), t)
	}

	// Dispatch based on the kind of the value.
	switch v.Kind() {
	case reflect.Struct:
		return e.marshalStruct(path, v)
	case reflect.Map:
		return e.marshalMap(path, v, t)
	case reflect.Slice, reflect.Array:
		return e.marshalSlice(path, v, t)
	case reflect.Interface:
		return e.marshalValue(path, v.Elem(), t)
	default:
		s, ok := getScalar(v)
		if !ok {
			return invalidField(renderPath(path), "unsupported type %s", v.Type())
		}
		return e.add(path, s, t)
	}
}

func (e *encodeState) marshalStruct(path []string, v reflect.Value) error {
	tags := tags(v)
	for i := 0; i < v.NumField(); i++ {
		tag := tags[i]
		if tag.Ignore {
			continue
		}
		fv := v.Field(i)
		if tag.Omit && isEmptyValue(fv) {
			continue
		}
		if tag.Name == "" || !v.Type().Field(i).IsExported() {
			continue
		}
		if err := e.marshalValue(append(path, tag.Name), fv, tag); err != nil {
			return err
		}
	}
	return nil
}

func (e *encodeState) marshalMap(path []string, v reflect.Value, t *tag) error {
	if v.Type().Key().Kind() != reflect.String {
		return invalidField(renderPath(path), "map keys must be strings")
	}

	// Map iteration order is random; fields are emitted in key order.
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	for _, k := range keys {
		mv := v.MapIndex(k)
		if !mv.IsValid() || (mv.Kind() == reflect.Interface && mv.IsNil()) {
			continue
		}
		if err := e.marshalValue(append(path, k.String()), mv, t); err != nil {
			return err
		}
	}
	return nil
}

func (e *encodeState) marshalSlice(path []string, v reflect.Value, t *tag) error {
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if !elem.IsValid() || (elem.Kind() == reflect.Interface && elem.IsNil()) {
			continue
		}
		if err := e.marshalValue(append(path, ""), elem, t); err != nil {
			return err
		}
	}
	return nil
}

func asReader(v reflect.Value) (io.Reader, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Type().Implements(readerType) {
		return v.Interface().(io.Reader), true
	}
	return nil, false
}

func asMarshaler(v reflect.Value) (Marshaler, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	if v.CanAddr() {
		if m, ok := v.Addr().Interface().(Marshaler); ok {
			return m, true
		}
	}
	if m, ok := v.Interface().(Marshaler); ok {
		return m, true
	}
	return nil, false
}

func renderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(path[0])
	for _, p := range path[1:] {
		if p == "" {
			b.WriteString("[]")
		} else {
			b.WriteString("[")
			b.WriteString(p)
			b.WriteString("]")
		}
	}
	return b.String()
}

// getScalar formats booleans and numbers. It reports false for any other
// kind.
func getScalar(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	default:
		return "", false
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
