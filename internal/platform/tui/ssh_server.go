package tui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/session"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.arcadeloop/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer serves the arcade over SSH. Every connection gets its own menu
// and, while playing, its own loop.
type SSHServer struct {
	config SSHServerConfig
	base   session.Options
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates a new SSH server. base supplies the loop configuration,
// store and logger shared by all connections.
func NewSSHServer(cfg SSHServerConfig, base session.Options) (*SSHServer, error) {
	logger := base.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "arcadeloop-ssh",
		})
		base.Logger = logger
	}
	base.Mode = session.ModeServe

	srv := &SSHServer{
		config: cfg,
		base:   base,
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home := config.HomeDir()
		if home == "" {
			return nil, errors.New("tui: cannot resolve home directory for the host key")
		}
		hostKeyPath = filepath.Join(home, "host_key")
	}
	hostKeyPath = config.ExpandPath(hostKeyPath)

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates an arcade for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	base := s.base
	base.Logger = s.logger.With("user", sshSession.User())
	base.Runtime = core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
		UPS:     s.base.Runtime.UPS,
		Seed:    s.base.Runtime.Seed,
	}

	model := NewArcadeModel(base, NewRenderer(bubbletea.MakeRenderer(sshSession)))

	// A dropped connection must not leave a loop running.
	go func() {
		<-sshSession.Context().Done()
		if err := model.Shutdown(); err != nil {
			base.Logger.Warn("game stopped with error", "err", err)
		}
	}()

	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// Serve accepts connections on l until ctx is done, then shuts down.
func (s *SSHServer) Serve(ctx context.Context, l net.Listener) error {
	s.logger.Info("starting SSH server", "address", l.Addr().String())

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.Serve(l)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// ListenAndServe listens on the configured address and serves until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("tui: listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, l)
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
