package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/reactor-http/core"
	"github.com/searchktools/reactor-http/core/http"
)

func TestResolveConfigFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9090", "-w", "3", "--header-timeout", "1s", "--max-header-bytes", "4096"}))

	var f serveFlags
	f.port, _ = cmd.Flags().GetInt("port")
	f.workers, _ = cmd.Flags().GetInt("workers")
	f.headerTimeout, _ = cmd.Flags().GetDuration("header-timeout")
	f.contentTimeout, _ = cmd.Flags().GetDuration("content-timeout")
	f.maxHeaderBytes, _ = cmd.Flags().GetInt("max-header-bytes")
	f.logLevel, _ = cmd.Flags().GetString("log-level")
	f.logFormat, _ = cmd.Flags().GetString("log-format")

	cfg, err := resolveConfig(cmd, &f)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, time.Second, cfg.HeaderTimeout)
	assert.Equal(t, 300*time.Second, cfg.ContentTimeout)
	assert.Equal(t, 4096, cfg.MaxHeaderBytes)
}

func TestResolveConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\nworkers: 2\n"), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--workers", "5"}))

	f := serveFlags{configPath: path, workers: 5}
	cfg, err := resolveConfig(cmd, &f)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port, "file value kept")
	assert.Equal(t, 5, cfg.Workers, "flag wins")
	assert.Equal(t, core.DefaultMaxHeaderBytes, cfg.MaxHeaderBytes, "unset flag leaves the file default")
}

func TestDemoRoutes(t *testing.T) {
	e := core.NewEngine()
	registerRoutes(e)

	req := &http.Request{Method: "GET", Path: "/users/42", Headers: map[string]string{}}
	res := e.Router().Dispatch(req).Commit()
	assert.Equal(t, 200, res.Code)
	assert.JSONEq(t, `{"user_id":"42"}`, string(res.Body))

	req = &http.Request{Method: "GET", Path: "/search", Params: []string{"q=go", "page"}, Headers: map[string]string{}}
	res = e.Router().Dispatch(req).Commit()
	assert.JSONEq(t, `{"params":["q=go","page"]}`, string(res.Body))

	req = &http.Request{Method: "GET", Path: "/panic", Headers: map[string]string{}}
	res = e.Router().Dispatch(req).Commit()
	assert.Equal(t, 500, res.Code)
}
