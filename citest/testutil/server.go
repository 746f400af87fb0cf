package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/internal/config"
	"github.com/mcp-x-studio/canvas/internal/server"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

// TestServer wraps a running canvas server for testing
type TestServer struct {
	Server  *server.Server
	BaseURL string
	port    int

	stopOnce sync.Once
	stopErr  error
}

// TestServerOption configures TestServer
type TestServerOption func(*testServerConfig)

type testServerConfig struct {
	seedFile  string
	heartbeat time.Duration
	queueSize int
}

// WithSeedFile starts the server from a seed document
func WithSeedFile(path string) TestServerOption {
	return func(c *testServerConfig) {
		c.seedFile = path
	}
}

// WithHeartbeat sets the stream keep-alive interval
func WithHeartbeat(d time.Duration) TestServerOption {
	return func(c *testServerConfig) {
		c.heartbeat = d
	}
}

// WithQueueSize sets the per-viewer frame buffer
func WithQueueSize(n int) TestServerOption {
	return func(c *testServerConfig) {
		c.queueSize = n
	}
}

// StartTestServer creates and starts a test server on a free port
func StartTestServer(opts ...TestServerOption) (*TestServer, error) {
	cfg := &testServerConfig{heartbeat: 0}
	for _, opt := range opts {
		opt(cfg)
	}

	var seed *types.Document
	if cfg.seedFile != "" {
		var err error
		seed, err = config.LoadSeed(cfg.seedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed: %w", err)
		}
	}

	port, err := findAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = port
	serverConfig.HeartbeatInterval = cfg.heartbeat
	serverConfig.QueueSize = cfg.queueSize

	srv := server.New(serverConfig, canvas.NewStore(seed))

	go func() {
		_ = srv.Start()
	}()

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	if err := waitForServer(baseURL, 10*time.Second); err != nil {
		srv.Shutdown(context.Background())
		return nil, fmt.Errorf("server failed to start: %w", err)
	}

	return &TestServer{
		Server:  srv,
		BaseURL: baseURL,
		port:    port,
	}, nil
}

// Stop shuts down the test server. Later calls return the first result.
func (ts *TestServer) Stop() error {
	ts.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if ts.Server != nil {
			ts.stopErr = ts.Server.Shutdown(ctx)
		}
	})
	return ts.stopErr
}

// Client returns a new test client for this server
func (ts *TestServer) Client() *TestClient {
	return NewTestClient(ts.BaseURL)
}

// SSEClient returns a new SSE client for this server
func (ts *TestServer) SSEClient() *SSEClient {
	return NewSSEClient(ts.BaseURL)
}

// findAvailablePort finds an available TCP port
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// waitForServer waits for the health endpoint to answer
func waitForServer(baseURL string, timeout time.Duration) error {
	client := NewTestClient(baseURL)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(context.Background(), "/healthz")
		if err == nil && resp.IsSuccess() {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}
