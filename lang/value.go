package lang

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// undefined is the type of [Undefined].
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of a name or member that does not exist.
// It is distinct from nil, which expressions spell as null.
var Undefined any = undefined{}

// IsUndefined reports whether v is [Undefined].
func IsUndefined(v any) bool {
	_, ok := v.(undefined)

	return ok
}

// isNullish reports whether v is nil or [Undefined].
func isNullish(v any) bool { return v == nil || IsUndefined(v) }

// Context is the property namespace an expression reads names from and
// assigns names to. A scope implements Context.
type Context interface {
	// Lookup returns the value bound to name and whether it exists.
	Lookup(name string) (any, bool)
	// Assign binds name to value in the receiver's own namespace.
	Assign(name string, value any)
}

// Locals are name bindings consulted before the [Context].
type Locals map[string]any

// Func is a callable value reachable from expressions.
type Func func(args ...any) (any, error)

// intrinsic identifies a host function that expressions must never reach.
type intrinsic struct{ name string }

func (i *intrinsic) String() string { return "function " + i.name }

// Host intrinsics rejected by the sandbox. Embedding these values in a scope
// makes any expression that references them fail with [ErrSecurity].
var (
	FunctionConstructor any = &intrinsic{"Function"}
	FunctionCall        any = &intrinsic{"call"}
	FunctionApply       any = &intrinsic{"apply"}
	FunctionBind        any = &intrinsic{"bind"}
)

// number returns v as a float64 if v holds any Go numeric kind.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}

	return 0, false
}

func isNaN(v any) bool {
	n, ok := number(v)

	return ok && math.IsNaN(n)
}

// Truthy reports whether v converts to true: everything except false, 0,
// NaN, "", null and undefined.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil, undefined:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}

	if n, ok := number(v); ok {
		return n != 0 && !math.IsNaN(n)
	}

	return true
}

// ToNumber converts v to a float64 the way arithmetic operators do.
func ToNumber(v any) float64 {
	if n, ok := number(v); ok {
		return n
	}

	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}

		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}

		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}

		return n
	}

	return math.NaN()
}

// ToString converts v to the string used for concatenation and comparison.
func ToString(v any) string {
	switch t := v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		part := make([]string, len(t))
		for i, e := range t {
			if !isNullish(e) {
				part[i] = ToString(e)
			}
		}

		return strings.Join(part, ",")
	case map[string]any, Locals:
		return "[object Object]"
	case fmt.Stringer:
		return t.String()
	}

	if n, ok := number(v); ok {
		return formatNumber(n)
	}

	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if a := math.Abs(f); a >= 1e21 || (a != 0 && a < 1e-6) {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)

		return strings.Replace(s, "e+0", "e+", 1)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toKey converts a computed member key to a property name.
func toKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return ToString(v)
}

// sameRef reports whether a and b are the same Go value, comparing
// reference kinds by address.
func sameRef(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if ta == nil {
		return true
	}

	switch ta.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan,
		reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()

	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)

		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if !ta.Comparable() {
		return false
	}

	return a == b
}

// StrictEqual implements the === operator.
func StrictEqual(a, b any) bool {
	if na, ok := number(a); ok {
		nb, ok := number(b)

		return ok && na == nb
	}

	if _, ok := number(b); ok {
		return false
	}

	return sameRef(a, b)
}

// Identical reports whether a and b are equal under the dirty-checking
// rule: strictly equal, or both NaN.
func Identical(a, b any) bool {
	return StrictEqual(a, b) || (isNaN(a) && isNaN(b))
}

// LooseEqual implements the == operator.
func LooseEqual(a, b any) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}

	if ba, ok := a.(bool); ok {
		return LooseEqual(ToNumber(ba), b)
	}

	if bb, ok := b.(bool); ok {
		return LooseEqual(a, ToNumber(bb))
	}

	_, aNum := number(a)
	_, bNum := number(b)
	_, aStr := a.(string)
	_, bStr := b.(string)

	if (aNum && bStr) || (aStr && bNum) {
		return ToNumber(a) == ToNumber(b)
	}

	return StrictEqual(a, b)
}

// DeepEqual reports whether a and b are structurally equal. NaN equals NaN.
func DeepEqual(a, b any) bool {
	if Identical(a, b) {
		return true
	}

	switch ta := a.(type) {
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}

		for i := range ta {
			if !DeepEqual(ta[i], tb[i]) {
				return false
			}
		}

		return true

	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}

		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !DeepEqual(va, vb) {
				return false
			}
		}

		return true
	}

	if _, ok := number(a); ok {
		return false
	}

	ka := reflect.TypeOf(a)
	if ka == nil || ka.Kind() == reflect.Func || ka != reflect.TypeOf(b) {
		return false
	}

	switch ka.Kind() {
	case reflect.Slice, reflect.Map:
		return deepEqualValue(reflect.ValueOf(a), reflect.ValueOf(b))
	}

	return reflect.DeepEqual(a, b)
}

// deepEqualValue compares two slices or maps of the same type element by
// element with [DeepEqual].
func deepEqualValue(a, b reflect.Value) bool {
	if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
		return false
	}

	if a.Kind() == reflect.Slice {
		for i := range a.Len() {
			if !DeepEqual(a.Index(i).Interface(), b.Index(i).Interface()) {
				return false
			}
		}

		return true
	}

	for iter := a.MapRange(); iter.Next(); {
		vb := b.MapIndex(iter.Key())
		if !vb.IsValid() || !DeepEqual(iter.Value().Interface(), vb.Interface()) {
			return false
		}
	}

	return true
}

// DeepClone returns a copy of v in which every nested slice and map is
// copied, whatever its element type. Other values, pointers included, are
// shared.
func DeepClone(v any) any {
	switch t := v.(type) {
	case []any:
		if t == nil {
			return t
		}

		c := make([]any, len(t))
		for i, e := range t {
			c[i] = DeepClone(e)
		}

		return c

	case map[string]any:
		if t == nil {
			return t
		}

		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = DeepClone(e)
		}

		return c

	case nil, bool, string, float64:
		return v
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map:
		return cloneValue(reflect.ValueOf(v)).Interface()
	}

	return v
}

func cloneValue(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}

		c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := range rv.Len() {
			c.Index(i).Set(cloneValue(rv.Index(i)))
		}

		return c

	case reflect.Map:
		if rv.IsNil() {
			return rv
		}

		c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		for iter := rv.MapRange(); iter.Next(); {
			c.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}

		return c

	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}

		c := reflect.New(rv.Type()).Elem()
		c.Set(cloneValue(rv.Elem()))

		return c
	}

	return rv
}

// Collection returns v as a []any or map[string]any when it is a slice,
// an array or a map with string keys of another type. The elements are
// shared. Other values are returned unchanged.
func Collection(v any) any {
	switch v.(type) {
	case nil, []any, map[string]any:
		return v
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}

		c := make([]any, rv.Len())
		for i := range c {
			c[i] = rv.Index(i).Interface()
		}

		return c

	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}

		c := make(map[string]any, rv.Len())
		for iter := rv.MapRange(); iter.Next(); {
			c[iter.Key().String()] = iter.Value().Interface()
		}

		return c
	}

	return v
}

// ShallowClone copies the top level of a []any or map[string]any.
func ShallowClone(v any) any {
	switch t := v.(type) {
	case []any:
		if t == nil {
			return t
		}

		return append(make([]any, 0, len(t)), t...)

	case map[string]any:
		if t == nil {
			return t
		}

		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = e
		}

		return c
	}

	return v
}

// Plain replaces every [Undefined] in v with nil so the result can be
// marshalled.
func Plain(v any) any {
	switch t := v.(type) {
	case undefined:
		return nil
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = Plain(e)
		}

		return c
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = Plain(e)
		}

		return c
	case Locals:
		return Plain(map[string]any(t))
	}

	return v
}

// Normalize converts decoded JSON or YAML data into the value model the
// evaluator works with. Every number becomes a float64, every sequence a
// []any and every mapping a map[string]any. Keys that are not strings are
// formatted with [ToString].
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64:
		return v
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = Normalize(e)
		}

		return c
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = Normalize(e)
		}

		return c
	case map[any]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[ToString(k)] = Normalize(e)
		}

		return c
	}

	if n, ok := number(v); ok {
		return n
	}

	return v
}

// arrayIndex parses key as a canonical non-negative array index.
func arrayIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}

	return i, true
}

// member reads property key of obj. Missing members yield [Undefined].
func member(obj any, key string) any {
	switch o := obj.(type) {
	case map[string]any:
		if v, ok := o[key]; ok {
			return v
		}

		return Undefined

	case Locals:
		if v, ok := o[key]; ok {
			return v
		}

		return Undefined

	case []any:
		if key == "length" {
			return float64(len(o))
		}

		if i, ok := arrayIndex(key); ok && i < len(o) {
			return o[i]
		}

		return Undefined

	case string:
		if key == "length" {
			return float64(utf8.RuneCountInString(o))
		}

		if i, ok := arrayIndex(key); ok {
			r := []rune(o)
			if i < len(r) {
				return string(r[i])
			}
		}

		return Undefined

	case Context:
		if v, ok := o.Lookup(key); ok {
			return v
		}

		return Undefined
	}

	return reflectMember(obj, key)
}

func reflectMember(obj any, key string) any {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return Undefined
	}

	if m := rv.MethodByName(key); m.IsValid() {
		return m.Interface()
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Undefined
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Undefined
		}

		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return Undefined
		}

		return v.Interface()

	case reflect.Slice, reflect.Array:
		if key == "length" {
			return float64(rv.Len())
		}

		if i, ok := arrayIndex(key); ok && i < rv.Len() {
			return rv.Index(i).Interface()
		}

	case reflect.Struct:
		f, ok := rv.Type().FieldByName(key)
		if ok && f.IsExported() {
			return rv.FieldByIndex(f.Index).Interface()
		}
	}

	return Undefined
}

// setMember assigns value to property key of obj.
func setMember(obj any, key string, value any) error {
	switch o := obj.(type) {
	case map[string]any:
		o[key] = value

		return nil

	case Locals:
		o[key] = value

		return nil

	case []any:
		if i, ok := arrayIndex(key); ok && i < len(o) {
			o[i] = value

			return nil
		}

		return fmt.Errorf("index %q out of range [0,%d)", key, len(o))

	case Context:
		o.Assign(key, value)

		return nil
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			break
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt, vt := rv.Type().Key(), rv.Type().Elem()
		if kt.Kind() == reflect.String && !rv.IsNil() {
			val, ok := convertArg(value, vt)
			if ok {
				rv.SetMapIndex(reflect.ValueOf(key).Convert(kt), val)

				return nil
			}
		}

	case reflect.Struct:
		f, ok := rv.Type().FieldByName(key)
		if ok && f.IsExported() {
			field := rv.FieldByIndex(f.Index)
			if field.CanSet() {
				if val, ok := convertArg(value, field.Type()); ok {
					field.Set(val)

					return nil
				}
			}
		}
	}

	return fmt.Errorf("cannot assign member %q of %s", key, typeName(obj))
}

// convertArg converts v to a reflect.Value of type t. Nullish values become
// the zero value of t.
func convertArg(v any, t reflect.Type) (reflect.Value, bool) {
	if isNullish(v) {
		return reflect.Zero(t), true
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}

	if _, ok := number(v); ok && rv.Type().ConvertibleTo(t) {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
			return rv.Convert(t), true
		}
	}

	return reflect.Value{}, false
}

var errorType = reflect.TypeFor[error]()

// call invokes fn with args. Funcs of type [Func], func(...any) any, and
// arbitrary Go funcs (through reflection) are callable.
func call(fn any, args []any) (any, error) {
	switch f := fn.(type) {
	case Func:
		return f(args...)
	case func(...any) (any, error):
		return f(args...)
	case func(...any) any:
		return f(args...), nil
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, fmt.Errorf("%s is not a function", typeName(fn))
	}

	ft := rv.Type()
	in := make([]reflect.Value, 0, len(args))

	for i := range ft.NumIn() {
		pt := ft.In(i)
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			et := pt.Elem()
			for _, a := range args[min(i, len(args)):] {
				v, ok := convertArg(a, et)
				if !ok {
					return nil, fmt.Errorf("argument %d: cannot use %s as %s",
						len(in), typeName(a), et)
				}

				in = append(in, v)
			}

			break
		}

		var a any = Undefined
		if i < len(args) {
			a = args[i]
		}

		v, ok := convertArg(a, pt)
		if !ok {
			return nil, fmt.Errorf("argument %d: cannot use %s as %s",
				i, typeName(a), pt)
		}

		in = append(in, v)
	}

	out := rv.Call(in)

	switch len(out) {
	case 0:
		return Undefined, nil
	case 1:
		if ft.Out(0) == errorType {
			err, _ := out[0].Interface().(error)

			return Undefined, err
		}

		return out[0].Interface(), nil
	default:
		var err error
		if ft.Out(len(out)-1) == errorType {
			err, _ = out[len(out)-1].Interface().(error)
		}

		return out[0].Interface(), err
	}
}

// callable reports whether fn can be invoked by [call].
func callable(fn any) bool {
	switch fn.(type) {
	case Func, func(...any) (any, error), func(...any) any:
		return true
	case *intrinsic:
		return false
	}

	rv := reflect.ValueOf(fn)

	return rv.Kind() == reflect.Func && !rv.IsNil()
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case undefined:
		return "undefined"
	}

	return reflect.TypeOf(value).String()
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
