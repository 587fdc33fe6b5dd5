package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmacdonaldsmith/eventstreams-go/internal/config"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/hostlink"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/httpapi"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/observability"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/provider"
	"github.com/rmacdonaldsmith/eventstreams-go/internal/redisstore"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"
	"github.com/rmacdonaldsmith/eventstreams-go/pkg/codec"
)

const appName = "eventstreams"

// options are the command-line flags. Flags that were set override the loaded config.
type options struct {
	configFile  string
	envFile     string
	listen      string
	host        string
	httpListen  string
	noHTTP      bool
	logLevel    string
	showVersion bool
	showHealth  bool
	set         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.configFile, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default .env, optional)")
	fs.StringVar(&opts.listen, "listen", "", "Listen address for the host link")
	fs.StringVar(&opts.host, "host", "", "Address of the host's dispatch endpoint (optional)")
	fs.StringVar(&opts.httpListen, "http-listen", "", "Listen address for the HTTP gateway")
	fs.BoolVar(&opts.noHTTP, "no-http", false, "Disable the HTTP gateway")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	fs.BoolVar(&opts.showHealth, "health", false, "Show health status and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply overlays the flags that were set on cfg
func (o *options) apply(cfg *config.Config) error {
	if o.set["listen"] {
		cfg.HostLink.ListenAddress = o.listen
	}
	if o.set["host"] {
		cfg.HostLink.HostAddress = o.host
	}
	if o.set["http-listen"] {
		cfg.HTTP.ListenAddress = o.httpListen
	}
	if o.noHTTP {
		cfg.HTTP.Enabled = false
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	return cfg.Validate()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.showVersion {
		info := provider.GetVersionInfo()
		fmt.Fprintf(stdout, "%s v%s (commit %s, built %s)\n", appName, info.Version, info.GitCommit, info.BuildDate)
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: opts.configFile, EnvFile: opts.envFile})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := opts.apply(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.Logger(stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing provider")
		if err := p.Close(); err != nil {
			logger.Warn("error closing provider", "error", err)
		}
	}()

	if err := applyBindings(ctx, p, cfg.Bindings); err != nil {
		return err
	}

	if opts.showHealth {
		return showHealthStatus(ctx, p, stdout)
	}

	return serve(ctx, cfg, p, logger)
}

// buildProvider wires the store connector, codec and telemetry into a Provider
func buildProvider(cfg *config.Config, logger *slog.Logger) (*provider.Provider, error) {
	connector, err := redisstore.NewConnector(cfg.RedisStore())
	if err != nil {
		return nil, fmt.Errorf("failed to create store connector: %w", err)
	}

	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	obs, err := observability.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry: %w", err)
	}

	return provider.New(
		provider.WithConnector(connector),
		provider.WithCodec(c),
		provider.WithLogger(logger),
		provider.WithObserver(obs),
	)
}

// applyBindings binds the configured actors through the same path the host uses
func applyBindings(ctx context.Context, p *provider.Provider, bindings []config.Binding) error {
	for _, b := range bindings {
		cfg := capability.Configuration{Module: b.Actor, Values: map[string]string{}}
		if b.URL != "" {
			cfg.Values[capability.OptionURL] = b.URL
		}

		msg, err := p.Codec().Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode binding for %s: %w", b.Actor, err)
		}
		if _, err := p.HandleCall(ctx, capability.SystemActor, capability.OpBindActor, msg); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.Actor, err)
		}
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, p *provider.Provider, logger *slog.Logger) error {
	linkConfig := cfg.HostLinkConfig()

	if linkConfig.HostAddress != "" {
		conn, err := hostlink.Dial(linkConfig.HostAddress, linkConfig.MaxMessageSize)
		if err != nil {
			return fmt.Errorf("failed to dial host %s: %w", linkConfig.HostAddress, err)
		}
		defer conn.Close()

		if err := p.ConfigureDispatch(hostlink.NewGRPCDispatcher(conn)); err != nil {
			return err
		}
		logger.Info("dispatching to host", "address", linkConfig.HostAddress)
	}

	link, err := hostlink.NewServer(&linkConfig, p, logger)
	if err != nil {
		return fmt.Errorf("failed to create host link: %w", err)
	}
	if err := link.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	var gateway *httpapi.Server
	if cfg.HTTP.Enabled {
		gateway, err = httpapi.NewServer(p, cfg.HTTPServer(), logger)
		if err != nil {
			return fmt.Errorf("failed to create HTTP gateway: %w", err)
		}
		go func() { errCh <- gateway.Start() }()
	}

	desc := provider.Describe()
	logger.Info("provider started",
		"capability", desc.ID,
		"version", desc.Version,
		"revision", desc.Revision,
		"hostlink", link.Addr(),
		"http", cfg.HTTP.Enabled)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http gateway failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if gateway != nil {
		errs = append(errs, gateway.Stop(shutdownCtx))
	}
	errs = append(errs, link.Stop(shutdownCtx))
	return errors.Join(errs...)
}

// showHealthStatus prints health and returns an error when unhealthy (for -health)
func showHealthStatus(ctx context.Context, p *provider.Provider, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := p.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to get health status: %w", err)
	}

	fmt.Fprintf(w, "Event Streams Provider Health Status:\n")
	fmt.Fprintf(w, "  Overall: %s\n", healthStatus(health.Healthy))
	fmt.Fprintf(w, "  Dispatcher: %s\n", configured(health.DispatcherConfigured))
	fmt.Fprintf(w, "  Bound Actors: %d\n", health.BoundActors)
	fmt.Fprintf(w, "  Message: %s\n", health.Message)

	if !health.Healthy {
		return errors.New("provider is unhealthy")
	}
	return nil
}

func healthStatus(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
