package core

import (
	"errors"
	"time"
)

// Engine defaults
const (
	DefaultPort           = 18080
	DefaultWorkers        = 1
	DefaultHeaderTimeout  = 5 * time.Second
	DefaultContentTimeout = 300 * time.Second
	DefaultMaxHeaderBytes = 64 << 10

	// pollInterval bounds how long a worker waits before checking for Stop (ms)
	pollInterval = 100
	readBufSize  = 8192

	// maxRetainedWriteBuf caps the write buffer a pooled connection keeps
	maxRetainedWriteBuf = 64 << 10
)

// Error definitions
var (
	ErrNotListening   = errors.New("engine is not listening")
	ErrAlreadyRunning = errors.New("engine already started")

	errTimeout        = errors.New("i/o deadline exceeded")
	errHeaderTooLarge = errors.New("request header too large")
	errPeerClosed     = errors.New("peer closed connection")
	errShutdown       = errors.New("engine stopped")
)
