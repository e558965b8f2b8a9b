package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/digest/lang"
	"github.com/ardnew/digest/scope"
)

// AST prints the annotated syntax tree of an expression along with the
// delegate a scope would use to watch it.
type AST struct {
	Expr   string `arg:""         help:"Expression to compile"                name:"expr"`
	Output string `default:"yaml" enum:"yaml,json"            help:"Output format" short:"o"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	e, err := lang.NewParser().Parse(ctx, a.Expr)
	if err != nil {
		return WrapError(err).With(slog.String("command", "ast"))
	}

	return writeValue(ctx, outputFrom(ctx), describe(e), a.Output)
}

// describe returns the document printed by [AST.Run].
func describe(e *lang.Expression) map[string]any {
	doc := e.ToMap()
	doc["delegate"] = string(scope.DelegateOf(e))

	return doc
}
