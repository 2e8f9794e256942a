package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/iconfetch/internal/config"
	"github.com/IshaanNene/iconfetch/internal/engine"
)

// options holds the flag values for one invocation.
type options struct {
	cfgFile   string
	verbose   bool
	output    string
	outputDir string
	timeout   int
	userAgent string
	parser    string
	browser   bool
	proxies   []string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the iconfetch command.
func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "iconfetch <url> [output_path]",
		Short: "Download a website's favicon",
		Long: `iconfetch downloads the favicon of a website.

It reads <link rel="icon">, "shortcut icon", "apple-touch-icon" and
"apple-touch-icon-precomposed" tags from the page, tries each icon in that
order, and falls back to /favicon.ico at the site root. The first icon that
downloads is saved to output_path, or to <host><ext> when no path is given
(e.g. example.com.png). A URL without a scheme is fetched over https.`,
		Example: `  iconfetch https://www.google.com
  iconfetch www.example.com ./icons/example.ico
  iconfetch https://github.com -o github.png -t 5`,
		Args:          cobra.RangeArgs(1, 2),
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path (YAML)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVarP(&opts.output, "output-path", "o", "", "output file path (alternative to the positional argument)")
	cmd.Flags().StringVar(&opts.outputDir, "dir", "", "directory for derived file names")
	cmd.Flags().IntVarP(&opts.timeout, "timeout", "t", 10, "request timeout in seconds")
	cmd.Flags().StringVar(&opts.userAgent, "user-agent", "", "custom User-Agent string")
	cmd.Flags().StringVar(&opts.parser, "parser", "", "link discovery parser: css or xpath")
	cmd.Flags().BoolVar(&opts.browser, "browser", false, "render the page in headless Chromium before discovery")
	cmd.Flags().StringArrayVar(&opts.proxies, "proxy", nil, "proxy URL (repeatable)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	return cmd
}

// runFetch executes a single favicon fetch.
func runFetch(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, opts, cfg, args)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	target := config.NormalizeURL(args[0])
	if err := config.ValidateURL(target); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	logger := setupLogger(cfg, opts.verbose, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close()

	path, err := eng.Run(ctx, target)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// setupLogger creates a structured logger writing to w.
func setupLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line values on top of the loaded config.
// Flags only override when set explicitly, so a config file can supply them.
func applyCLIOverrides(cmd *cobra.Command, opts *options, cfg *config.Config, args []string) {
	flags := cmd.Flags()

	// Positional output path wins over -o.
	switch {
	case len(args) > 1 && args[1] != "":
		cfg.Output.Path = args[1]
	case opts.output != "":
		cfg.Output.Path = opts.output
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	if flags.Changed("timeout") {
		cfg.Fetcher.Timeout = time.Duration(opts.timeout) * time.Second
	}
	if opts.userAgent != "" {
		cfg.Fetcher.UserAgent = opts.userAgent
	}
	if opts.parser != "" {
		cfg.Discovery.Parser = opts.parser
	}
	if opts.browser {
		cfg.Discovery.Fetcher = "browser"
	}
	if len(opts.proxies) > 0 {
		cfg.Proxy.Enabled = true
		cfg.Proxy.URLs = opts.proxies
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
}
