// Package lang compiles data-binding expressions into evaluators.
//
// An expression is read against a [Context], usually a scope, with
// optional [Locals] that take precedence:
//
//	e, err := lang.Parse("user.first + ' ' + user.last | json")
//	if err != nil {
//		return err
//	}
//
//	v, err := e.Eval(scope, nil)
//
// # Grammar
//
// Informal EBNF, lowest precedence first:
//
//	program        → filter (';' filter)* ';'?
//	filter         → assignment ('|' identifier (':' assignment)*)*
//	assignment     → ternary ('=' ternary)?
//	ternary        → logicalOR ('?' assignment ':' assignment)?
//	logicalOR      → logicalAND ('||' logicalAND)*
//	logicalAND     → equality ('&&' equality)*
//	equality       → relational (('=='|'!='|'==='|'!==') relational)*
//	relational     → additive (('<'|'>'|'<='|'>=') additive)*
//	additive       → multiplicative (('+'|'-') multiplicative)*
//	multiplicative → unary (('*'|'/'|'%') unary)*
//	unary          → ('+'|'!'|'-') unary | primary
//	primary        → ('(' filter ')' | '[' array ']' | '{' object '}' |
//	                  'null' | 'true' | 'false' | 'this' | identifier |
//	                  number | string)
//	                 ('.' identifier | '[' assignment ']' | '(' args ')')*
//
// A leading "::" marks a one-time expression.
//
// # Values
//
// Numbers are float64, objects are map[string]any and arrays are []any.
// A name that does not resolve yields [Undefined], which is distinct from
// nil (null). Go maps, structs, slices and funcs reachable from a scope are
// read and called through reflection.
//
// # Analysis
//
// Every compiled [Expression] carries the results of static analysis:
// whether it is constant, whether it is a literal, and the inputs whose
// values fully determine its value. Watchers use these to choose a
// cheaper way to re-evaluate the expression.
//
// # Sandbox
//
// Expressions cannot reach members named constructor or __proto__, nor
// values shaped like host globals or document nodes, nor the function
// intrinsics [FunctionConstructor], [FunctionCall], [FunctionApply] and
// [FunctionBind]. Violations fail with [ErrSecurity].
//
// # Filters
//
// Filters are resolved at compile time from a [FilterRegistry]. The
// [Builtins] registry provides filter, where, pathprefix, json and now.
package lang
