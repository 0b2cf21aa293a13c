// relengjira - MCP server for release-engineering Jira workflows.
// Serves the promotion and search tools over stdio (default) or streamable HTTP.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matiasleandrokruk/relengjira/internal/api"
	"github.com/matiasleandrokruk/relengjira/internal/domain/ticket"
	"github.com/matiasleandrokruk/relengjira/internal/infra/config"
	"github.com/matiasleandrokruk/relengjira/internal/logging"
	"github.com/matiasleandrokruk/relengjira/internal/mcpserver"
	"github.com/matiasleandrokruk/relengjira/internal/server"
	"github.com/matiasleandrokruk/relengjira/internal/version"
	pkgauth "github.com/matiasleandrokruk/relengjira/pkg/auth"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("relengjira", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.BoolP("help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return runServe(nil, errOut)
	}
	switch rest[0] {
	case "serve":
		return runServe(rest[1:], errOut)
	case "token":
		return runToken(rest[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n", rest[0]) //nolint:errcheck
		printHelp(errOut)
		return 2
	}
}

func runServe(args []string, errOut io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 1
	}
	cfg := config.Load()

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "Listen address for the http transport")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per minute per IP on the http transport (0 disables)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, errOut); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve wires the stack and blocks until ctx is done or the transport closes.
func serve(ctx context.Context, cfg config.Config, errOut io.Writer) error {
	logger, flush, err := logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.LogLevel),
		SentryDSN: cfg.SentryDSN,
		Env:       cfg.Env,
		Version:   version.Version,
		Output:    errOut,
	})
	if err != nil {
		return err
	}
	defer flush(2 * time.Second)

	catalog, err := ticket.LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	svc := ticket.NewService(ticket.NewBootstrap(), logger).WithFieldIDs(catalog.Fields)
	mcpServer, err := mcpserver.New(svc, mcpserver.Options{Version: version.Version, Logger: logger, Products: catalog.Products})
	if err != nil {
		return fmt.Errorf("build MCP server: %w", err)
	}

	logger.Info("relengjira starting", "transport", cfg.Transport, "version", version.Version)

	switch cfg.Transport {
	case config.TransportHTTP:
		if cfg.AuthSecret == "" {
			logger.Warn("bearer auth disabled", "hint", config.EnvAuthSecret+" is not set")
		}
		router := api.NewRouter(mcpserver.HTTPHandler(mcpServer), api.RouterOptions{
			AuthSecret: []byte(cfg.AuthSecret),
			Logger:     logger,
			RateLimit:  cfg.RateLimit,
			CORSOrigin: cfg.CORSOrigin,
		})
		httpCfg := server.DefaultConfig()
		httpCfg.Addr = cfg.HTTPAddr
		return server.NewServer(router, httpCfg, logger).Start(ctx)
	default:
		err := mcpserver.RunStdio(ctx, mcpServer)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func runToken(args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("subject", "", "Agent or operator the token is issued to")
	ttl := fs.Duration("ttl", pkgauth.DefaultTokenTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 1
	}
	secret := config.Load().AuthSecret
	if secret == "" {
		fmt.Fprintln(errOut, &config.ConfigurationError{Key: config.EnvAuthSecret}) //nolint:errcheck
		return 1
	}

	token, err := pkgauth.GenerateToken([]byte(secret), *subject, *ttl)
	if err != nil {
		fmt.Fprintln(errOut, err) //nolint:errcheck
		return 1
	}
	fmt.Fprintln(out, token) //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `relengjira - Release engineering Jira MCP server

Usage:
  relengjira [options] [command]

Options:
  --version    Show version information
  -h, --help   Show this help message

Commands:
  serve        Start the MCP server (default)
                 --transport stdio|http   (env RELENG_MCP_TRANSPORT, default stdio)
                 --addr host:port         (env RELENG_MCP_ADDR, default 127.0.0.1:8080)
                 --log-level level        (env LOG_LEVEL, default info)
                 --rate-limit n           (env RELENG_MCP_RATE_LIMIT, default 120/min per IP)
  token        Mint a bearer token for the http transport
                 --subject name           (required)
                 --ttl duration           (default 24h)

Environment:
  JIRA_USERNAME, JIRA_TOKEN   Jira Cloud basic-auth credentials
  RELENG_MCP_JWT_SECRET       HMAC secret guarding /mcp on the http transport
  RELENG_MCP_CORS_ORIGIN      Browser origin allowed to call /mcp
  RELENG_MCP_CATALOG          Product catalog and custom field ids (YAML)
  SENTRY_DSN, APP_ENV         Optional error reporting
  Variables may also be placed in a .env file in the working directory.

Examples:
  relengjira
  relengjira serve --transport http --addr :8080
  relengjira token --subject release-bot --ttl 72h`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
