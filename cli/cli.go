package cli

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/objecttext/cli/cmd"
	"github.com/ardnew/objecttext/lang"
	"github.com/ardnew/objecttext/log"
	"github.com/ardnew/objecttext/pkg"
)

// CLI is the top-level command-line interface of otx.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Include  []string `help:"Directory searched for external references, ahead of the OBJECTTEXT_PATH list." placeholder:"DIR" short:"I"`
	MaxDepth int      `default:"${maxDepth}" help:"Maximum nesting depth of blocks, lists and expressions."`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Init  cmd.Init  `cmd:"" help:"Write the current settings to the configuration file."`
	Fmt   cmd.Fmt   `cmd:"" help:"Format a source."`
	Check cmd.Check `cmd:"" help:"Report diagnostics of sources."`
	Query cmd.Query `cmd:"" help:"List the nodes matched by a predicate."`
	Refs  cmd.Refs  `cmd:"" help:"List references and where external files are found."`
	Repl  cmd.Repl  `cmd:"" help:"Explore a source interactively."`
}

// Run executes otx with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Boolean logging flags never reach a TextUnmarshaler, so apply them
	// before kong reports anything.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx, baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// TimeLayout and Caller have no TextUnmarshaler.
	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	env := cmd.Env{
		Logger:     log.Default(),
		SearchPath: searchPath(os.Getenv(pkg.PathEnv), cli.Include...),
		MaxDepth:   cli.MaxDepth,
		CacheDir:   cacheDir(),
	}

	env.Logger.DebugContext(ctx, "command start",
		slog.String("command", ktx.Command()),
		slog.Any("search_path", env.SearchPath),
		slog.Int("max_depth", env.MaxDepth))

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithEnv(ctx, env)

	return ktx.Run(ctx, &cli)
}
