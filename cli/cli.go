package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/digest/cli/cmd"
	"github.com/ardnew/digest/pkg"
)

const (
	// baseConfig names the configuration file and the mapping read from it.
	baseConfig = "config"
	configExt  = ".yaml"
	dirMode    = 0o700
)

// CLI is the top-level command-line interface for digest.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit"`

	Scope []string `help:"Scope document(s) (YAML or JSON) seeding the root scope, or '-' for stdin" name:"scope" short:"s" type:"existingfile"`

	Init cmd.Init `cmd:"" help:"Initialize configuration file"`
	AST  cmd.AST  `cmd:"" help:"Print the annotated syntax tree of an expression"`
	Run  cmd.Run  `cmd:"" help:"Run a watch script"`
	Repl cmd.Repl `cmd:"" help:"Start an interactive scope console"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate expressions against a root scope"`
}

// Run parses args and runs the selected command. Kong calls exit when
// parsing ends the program, as with --help.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cli CLI

	// Log flags take effect before parsing so parse failures are logged as
	// requested. Kong sets them again during parsing.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, cli.options(ctx, exit)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithScopeFiles(cmd.WithContext(ctx, ktx), cli.Scope)

	cli.Log.start(ctx)
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

func (c *CLI) options(ctx context.Context, exit func(int)) []kong.Option {
	base := filepath.Join(pkg.ConfigDir(), baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: base + configExt,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(c.Log.vars()).
		CloneWith(c.Pprof.vars())

	return []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{c.Log.group(), c.Pprof.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, base+".json"),
		kong.Configuration(resolve(ctx, baseConfig), base+configExt),
		vars,
	}
}
