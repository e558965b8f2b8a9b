package lang

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/digest/log"
)

// wherePrograms caches compiled predicates keyed by source, the hyphenated
// key paths they were patched against, and the builtins they shadow.
var wherePrograms sync.Map

type whereProgram struct {
	once    sync.Once
	source  string
	paths   string
	shadows string
	program *vm.Program
	err     error
}

// whereFilter selects the elements of an array for which an expr-lang
// predicate holds.
//
//	items | where:'price > 10 && it.stock > 0'
//	items | where:'price > min':{min: 10}
//
// Each element is exposed as "it". Keys of a map element are also exposed
// as variables, shadowing the optional parameter map given as the second
// argument. Either may shadow an expr-lang builtin such as len or min.
func whereFilter(input any, args ...any) (any, error) {
	arr, ok := input.([]any)
	if !ok {
		return input, nil
	}

	if len(args) == 0 {
		return input, nil
	}

	source, ok := args[0].(string)
	if !ok {
		return nil, ErrFilter.Reason("where: predicate must be a string").
			With(slog.String("type", typeName(args[0])))
	}

	var params map[string]any
	if len(args) > 1 {
		params, _ = Plain(args[1]).(map[string]any)
	}

	out := make([]any, 0, len(arr))

	for _, item := range arr {
		env := whereEnv(item, params)

		program, err := compileWhere(source, env)
		if err != nil {
			return nil, err
		}

		result, err := vm.Run(program, env)
		if err != nil {
			return nil, ErrFilter.Wrap(err).With(slog.String("predicate", source))
		}

		if Truthy(result) {
			out = append(out, item)
		}
	}

	return out, nil
}

func whereEnv(item any, params map[string]any) map[string]any {
	env := make(map[string]any, len(params)+1)

	for k, v := range params {
		env[k] = v
	}

	plain := Plain(item)
	if m, ok := plain.(map[string]any); ok {
		for k, v := range m {
			env[k] = v
		}
	}

	env["it"] = plain

	return env
}

func compileWhere(source string, env map[string]any) (*vm.Program, error) {
	paths := strings.Join(hyphenPaths(env), ",")
	shadowed := shadowedBuiltins(env)
	shadows := strings.Join(shadowed, ",")
	key := xxh3.HashString(source + "\x00" + paths + "\x00" + shadows)

	value, _ := wherePrograms.LoadOrStore(key, &whereProgram{
		source:  source,
		paths:   paths,
		shadows: shadows,
	})

	entry, _ := value.(*whereProgram)
	if entry.source != source || entry.paths != paths || entry.shadows != shadows {
		return buildWhere(source, env, shadowed)
	}

	entry.once.Do(func() {
		entry.program, entry.err = buildWhere(source, env, shadowed)
	})

	return entry.program, entry.err
}

// shadowedBuiltins returns the names in env that expr-lang would otherwise
// resolve to a builtin function, in sorted order.
func shadowedBuiltins(env map[string]any) []string {
	var names []string

	for name := range env {
		if _, ok := builtin.Index[name]; ok {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

func buildWhere(source string, env map[string]any, shadowed []string) (*vm.Program, error) {
	opts := []expr.Option{
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
		expr.Patch(&hyphenPatcher{env: env, logger: log.Named("lang")}),
	}

	for _, name := range shadowed {
		opts = append(opts, expr.DisableBuiltin(name))
	}

	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, ErrFilter.Wrap(err).With(slog.String("predicate", source))
	}

	return program, nil
}
