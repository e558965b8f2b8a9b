package lang

import (
	"log/slog"
)

var forbiddenMembers = map[string]bool{
	"constructor":      true,
	"__proto__":        true,
	"__defineGetter__": true,
	"__defineSetter__": true,
	"__lookupGetter__": true,
	"__lookupSetter__": true,
}

// RejectMemberName returns an [ErrSecurity] error if name is a member that
// expressions may not access.
func RejectMemberName(name string) error {
	if forbiddenMembers[name] {
		return ErrSecurity.Reason("Attempting to access a disallowed field").
			With(slog.String("member", name))
	}

	return nil
}

// RejectUnsafeObject returns an [ErrSecurity] error if v has the shape of a
// host global, a document node, the function constructor, or the object
// reflection namespace.
func RejectUnsafeObject(v any) error {
	if !Truthy(v) || primitive(v) {
		return nil
	}

	switch {
	case has(v, "document", "location", "alert", "setInterval"):
		return ErrSecurity.Reason("Referencing window is disallowed")

	case has(v, "children") &&
		(has(v, "nodeName") || has(v, "prop", "attr", "find")):
		return ErrSecurity.Reason("Referencing DOM nodes is disallowed")

	case v == FunctionConstructor || selfConstructor(v):
		return ErrSecurity.Reason("Referencing Function is disallowed")

	case has(v, "getOwnPropertyNames") || has(v, "getOwnPropertyDescriptor"):
		return ErrSecurity.Reason("Referencing Object is disallowed")
	}

	return nil
}

// RejectUnsafeFunction returns an [ErrSecurity] error if fn is the
// function constructor or one of the call, apply and bind intrinsics.
func RejectUnsafeFunction(fn any) error {
	if !Truthy(fn) || primitive(fn) {
		return nil
	}

	switch {
	case fn == FunctionConstructor || selfConstructor(fn):
		return ErrSecurity.Reason("Referencing Function is disallowed")

	case fn == FunctionCall || fn == FunctionApply || fn == FunctionBind:
		return ErrSecurity.Reason("Referencing call, apply, or bind is disallowed")
	}

	return nil
}

func primitive(v any) bool {
	switch v.(type) {
	case nil, undefined, bool, string:
		return true
	}

	_, ok := number(v)

	return ok
}

// has reports whether every named member of v is truthy.
func has(v any, names ...string) bool {
	for _, name := range names {
		if !Truthy(member(v, name)) {
			return false
		}
	}

	return true
}

func selfConstructor(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}

	c, ok := m["constructor"]

	return ok && sameRef(c, m)
}
