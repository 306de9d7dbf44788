package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"margin/internal/daemon"
	"margin/internal/logging"
)

// Server answers daemon control requests over a Unix domain socket using
// JSON-RPC. One Server owns the socket file for its lifetime: any stale
// socket at the path is removed on construction and the live one on Close.
type Server struct {
	socketPath string
	listener   net.Listener
	rpc        *rpc.Server
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup
}

// NewServer binds the control socket and registers the Margin RPC service.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	handler := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Margin", handler); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	return &Server{
		socketPath: path,
		listener:   listener,
		rpc:        rpcServer,
		logger:     logger,
		ctx:        serveCtx,
		cancel:     cancel,
	}, nil
}

// Serve begins accepting connections in the background and returns
// immediately. Each connection runs its codec on its own goroutine.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.socketPath))
	s.conns.Add(1)
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	defer s.conns.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("accept failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "ipc_accept_failed"))
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.rpc.ServeCodec(jsonrpc.NewServerCodec(conn))
		}()
	}
}

// Close shuts down the listener, waits for in-flight connections, and
// removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.conns.Wait()
	if err := os.RemoveAll(s.socketPath); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.socketPath),
			logging.Error(err))
	}
}

// service holds the RPC method set. Methods never return transport-level
// errors for expected outcomes; failure detail rides in the response.
type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	err := s.daemon.Start(s.ctx)
	if err != nil {
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	*resp = StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		UptimeSecs:   int64(status.Uptime.Seconds()),
		LockPath:     status.LockFilePath,
		DatabasePath: status.DatabasePath,
		APIAddr:      s.daemon.APIAddr(),
		Counts:       status.Counts,
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
