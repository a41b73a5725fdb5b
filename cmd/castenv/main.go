package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/castenv"
	"github.com/eugenenazirov/castenv/internal/application"
	"github.com/eugenenazirov/castenv/internal/config"
	"github.com/eugenenazirov/castenv/internal/logging"
	"github.com/eugenenazirov/castenv/normalize"
	"github.com/eugenenazirov/castenv/value"
)

var signalNotify = signal.Notify

// cli holds the parsed flags of every command.
type cli struct {
	configFile   *string
	searchDirs   *[]string
	envName      *string
	detectEnv    *bool
	filenames    *[]string
	walkAllDirs  *bool
	preferDotenv *bool
	provider     *bool
	providerINI  *string
	logLevel     *string
	logEncoding  *string
	output       *string

	percentMode   *string
	lowercase     *bool
	enum          *[]string
	separators    *[]string
	lists         *bool
	interpolation *bool
	emptyAsNone   *bool

	get        *kingpin.CmdClause
	getKey     *string
	getDefault *string
	defaultSet bool
	getAs      *string
	getExplain *bool

	files *kingpin.CmdClause

	normalize     *kingpin.CmdClause
	normalizeFile *string

	serve          *kingpin.CmdClause
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newApp() (*kingpin.Application, *cli) {
	app := kingpin.New("castenv", "Resolve configuration keys from layered env sources and cast them to typed values")
	c := &cli{}

	c.configFile = app.Flag("config", "Path to YAML configuration file").String()
	c.searchDirs = app.Flag("search-dir", "Directory to start env file discovery from (repeatable)").Strings()
	c.envName = app.Flag("env", "Environment name substituted into filename templates").String()
	c.detectEnv = app.Flag("detect-env", "Detect the environment name from ENV, APP_ENV and similar variables").Bool()
	c.filenames = app.Flag("filename", "Env filename template, low to high precedence (repeatable)").Strings()
	c.walkAllDirs = app.Flag("walk-all-dirs", "Keep walking upward after the first directory with env files").Bool()
	c.preferDotenv = app.Flag("prefer-dotenv", "Let env files override the process environment").Bool()
	c.provider = app.Flag("provider", "Consult the settings file provider when one is available").Default("true").Bool()
	c.providerINI = app.Flag("provider-ini", "Path to a settings.ini file served as the provider").String()
	c.logLevel = app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	c.logEncoding = app.Flag("log-encoding", "Log encoding (json or console)").String()
	c.output = app.Flag("output", "Output format").Short('o').Default(formatText).Enum(formatJSON, formatYAML, formatText)

	c.percentMode = app.Flag("percent-mode", "Percent handling (none, number, fraction)").Default("none").Enum("none", "number", "fraction")
	c.lowercase = app.Flag("lowercase", "Lowercase string results").Bool()
	c.enum = app.Flag("enum", "Allowed value (repeatable)").Strings()
	c.separators = app.Flag("separator", "List separator tried in order (repeatable)").Strings()
	c.lists = app.Flag("lists", "Split delimited text into lists").Default("true").Bool()
	c.interpolation = app.Flag("interpolation", "Expand ${VAR} references").Default("true").Bool()
	c.emptyAsNone = app.Flag("empty-as-none", "Cast empty values to none").Default("true").Bool()

	c.get = app.Command("get", "Resolve a key and print its typed value")
	c.getKey = c.get.Arg("key", "Key to resolve").Required().String()
	c.getDefault = c.get.Flag("default", "Raw default used when the key is absent").IsSetByUser(&c.defaultSet).String()
	c.getAs = c.get.Flag("as", "Target type").Default("auto").Enum("auto", "bool", "int", "float", "string", "list")
	c.getExplain = c.get.Flag("explain", "Report the layer and raw text alongside the value").Bool()

	c.files = app.Command("files", "List the env files discovered for the active configuration")

	c.normalize = app.Command("normalize", "Normalize every string leaf of a YAML or JSON document")
	c.normalizeFile = c.normalize.Arg("file", "Document to normalize, or - for stdin").Required().String()

	c.serve = app.Command("serve", "Serve the resolution inspector over HTTP")
	c.port = c.serve.Flag("port", "HTTP port exposed by the inspector").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	return app, c
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "castenv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	app, c := newApp()
	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if command == c.serve.FullCommand() {
		return serve(cfg, logger)
	}

	env, err := application.NewContext(cfg, logger)
	if err != nil {
		return err
	}
	out := newPrinter(stdout, *c.output)
	opts := c.castOptions()

	switch command {
	case c.get.FullCommand():
		return runGet(env, out, c, opts)
	case c.files.FullCommand():
		return runFiles(env, out)
	case c.normalize.FullCommand():
		return runNormalize(env, out, stdin, *c.normalizeFile, opts)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile:    *c.configFile,
		SearchDirs:    *c.searchDirs,
		EnvName:       c.envName,
		DetectEnvName: *c.detectEnv,
		Filenames:     *c.filenames,
		WalkAllDirs:   *c.walkAllDirs,
		PreferDotenv:  *c.preferDotenv,
		NoProvider:    !*c.provider,
		ProviderINI:   c.providerINI,
		LogLevel:      c.logLevel,
		LogEncoding:   c.logEncoding,
		Port:          c.port,
	}

	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}

	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}

	return overrides
}

func (c *cli) castOptions() []normalize.Option {
	var opts []normalize.Option
	if mode, err := normalize.ParsePercentMode(*c.percentMode); err == nil {
		opts = append(opts, normalize.WithPercentMode(mode))
	}
	if *c.lowercase {
		opts = append(opts, normalize.WithLowercase(true))
	}
	if len(*c.enum) > 0 {
		opts = append(opts, normalize.WithEnum(*c.enum...))
	}
	if len(*c.separators) > 0 {
		opts = append(opts, normalize.WithSeparators(*c.separators...))
	}
	if !*c.lists {
		opts = append(opts, normalize.WithLists(false))
	}
	if !*c.interpolation {
		opts = append(opts, normalize.WithInterpolation(false))
	}
	if !*c.emptyAsNone {
		opts = append(opts, normalize.WithEmptyAsNone(false))
	}
	return opts
}

func runGet(env *castenv.Context, out *printer, c *cli, opts []normalize.Option) error {
	key := *c.getKey
	var def any
	if c.defaultSet {
		def = *c.getDefault
	}

	if *c.getExplain {
		res, err := env.Explain(key, def, opts...)
		if err != nil {
			return err
		}
		return out.Print(newExplainOutput(res))
	}

	raw := *c.getDefault
	switch *c.getAs {
	case "bool":
		var d bool
		if raw != "" {
			parsed, ok := normalize.ParseBool(raw)
			if !ok {
				return fmt.Errorf("default %q is not a boolean", raw)
			}
			d = parsed
		}
		v, err := env.GetBool(key, d, opts...)
		if err != nil {
			return err
		}
		return out.Print(value.Bool(v))
	case "int":
		var d int64
		if raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("default %q is not an integer: %w", raw, err)
			}
			d = parsed
		}
		v, err := env.GetInt(key, d, opts...)
		if err != nil {
			return err
		}
		return out.Print(value.Int(v))
	case "float":
		var d float64
		if raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("default %q is not a float: %w", raw, err)
			}
			d = parsed
		}
		v, err := env.GetFloat(key, d, opts...)
		if err != nil {
			return err
		}
		return out.Print(value.Float(v))
	case "string":
		v, err := env.GetString(key, raw, opts...)
		if err != nil {
			return err
		}
		return out.Print(value.Str(v))
	case "list":
		items, err := env.GetList(key, raw, *c.separators, opts...)
		if err != nil {
			return err
		}
		if items == nil {
			return out.Print(value.None())
		}
		return out.Print(value.List(items...))
	}

	v, err := env.Get(key, def, opts...)
	if err != nil {
		return err
	}
	return out.Print(v)
}

func runFiles(env *castenv.Context, out *printer) error {
	files, err := env.Files()
	if err != nil {
		return err
	}
	return out.Print(newFilesOutput(env.Config(), files))
}

func runNormalize(env *castenv.Context, out *printer, stdin io.Reader, path string, opts []normalize.Option) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	v, err := value.FromAny(doc)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}

	normalized, err := env.NormalizeStructure(v, opts...)
	if err != nil {
		return err
	}
	return out.Print(normalized)
}

func serve(cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
