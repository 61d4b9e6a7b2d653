// reactord serves a handful of demo routes on the reactor engine.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/searchktools/reactor-http/app"
	"github.com/searchktools/reactor-http/config"
	"github.com/searchktools/reactor-http/core"
	"github.com/searchktools/reactor-http/core/http"
)

type serveFlags struct {
	configPath     string
	port           int
	workers        int
	headerTimeout  time.Duration
	contentTimeout time.Duration
	maxHeaderBytes int
	logLevel       string
	logFormat      string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "reactord",
		Short: "Run the demo HTTP/1.1 server",
		Example: `  # Four workers on port 8080
  reactord --port 8080 --workers 4

  # Settings from a file, flags win
  reactord --config server.yaml --log-level debug`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &f)
			if err != nil {
				return err
			}

			a := app.New(cfg)
			registerRoutes(a.Engine())
			return a.Run(cmd.Context())
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML config file")
	flags.IntVarP(&f.port, "port", "p", defaults.Port, "TCP port to bind on 0.0.0.0")
	flags.IntVarP(&f.workers, "workers", "w", defaults.Workers, "Worker threads servicing the poller")
	flags.DurationVar(&f.headerTimeout, "header-timeout", defaults.HeaderTimeout, "Budget for receiving request headers (0 disables)")
	flags.DurationVar(&f.contentTimeout, "content-timeout", defaults.ContentTimeout, "Budget for the body read and the response write (0 disables)")
	flags.IntVar(&f.maxHeaderBytes, "max-header-bytes", defaults.MaxHeaderBytes, "Largest accepted request line plus headers")
	flags.StringVar(&f.logLevel, "log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.StringVar(&f.logFormat, "log-format", defaults.Log.Format, "Log format (text, json)")

	return cmd
}

// resolveConfig loads the config file if any, then applies explicitly set flags.
func resolveConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") || f.configPath == "" {
		cfg.Port = f.port
	}
	if flags.Changed("workers") || f.configPath == "" {
		cfg.Workers = f.workers
	}
	if flags.Changed("header-timeout") || f.configPath == "" {
		cfg.HeaderTimeout = f.headerTimeout
	}
	if flags.Changed("content-timeout") || f.configPath == "" {
		cfg.ContentTimeout = f.contentTimeout
	}
	if flags.Changed("max-header-bytes") || f.configPath == "" {
		cfg.MaxHeaderBytes = f.maxHeaderBytes
	}
	if flags.Changed("log-level") || f.configPath == "" {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") || f.configPath == "" {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func registerRoutes(e *core.Engine) {
	e.GET("/", func(*http.Request) *http.Response {
		return http.NewText("Welcome to reactord!")
	})

	e.GET("/hello", func(*http.Request) *http.Response {
		return http.NewText("hi")
	})

	e.GET("/json", func(*http.Request) *http.Response {
		return mustJSON(map[string]string{"message": "hello", "server": "reactord"})
	})

	e.POST("/echo", func(req *http.Request) *http.Response {
		res := http.NewBytes(req.Body)
		if ct := req.Header(http.HeaderContentType); ct != "" {
			_ = res.SetHeader("content-type", ct)
		}
		return res
	})

	// Path captures
	e.GET("/users/([0-9]+)", func(req *http.Request) *http.Response {
		return mustJSON(map[string]string{"user_id": req.Match(1)})
	})

	// Raw query tokens
	e.GET("/search", func(req *http.Request) *http.Response {
		return mustJSON(map[string]any{"params": req.Params})
	})

	e.GET("/proto", func(*http.Request) *http.Response {
		res, err := http.NewProto(wrapperspb.String("hello"))
		if err != nil {
			return http.NewStatus(500)
		}
		return res
	})

	e.POST("/proto", func(req *http.Request) *http.Response {
		var msg wrapperspb.StringValue
		if err := req.BindProto(&msg); err != nil {
			return http.NewStatus(400)
		}
		return http.NewText(strings.ToUpper(msg.GetValue()))
	})

	e.GET("/stats", func(*http.Request) *http.Response {
		return mustJSON(e.Stats())
	})

	e.GET("/panic", func(*http.Request) *http.Response {
		panic(fmt.Sprintf("boom at %s", time.Now().Format(time.RFC3339)))
	})
}

func mustJSON(v any) *http.Response {
	res, err := http.NewJSON(v)
	if err != nil {
		return http.NewStatus(500)
	}
	return res
}
