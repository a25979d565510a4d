package eventbus

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// Server is an embedded NATS server, used when the surrounding system has no
// broker of its own (single-binary deployments, tests).
type Server struct {
	server *natsserver.Server
}

// ServerConfig configures the embedded server.
type ServerConfig struct {
	// Port to listen on; 0 or -1 picks a random free port.
	Port int
}

// NewServer starts an embedded NATS server and waits for it to accept
// connections.
func NewServer(cfg ServerConfig) (*Server, error) {
	port := cfg.Port
	if port == 0 {
		port = natsserver.RANDOM_PORT
	}
	opts := &natsserver.Options{
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("nats server not ready")
	}
	return &Server{server: ns}, nil
}

// ClientURL returns the URL clients should connect to.
func (s *Server) ClientURL() string { return s.server.ClientURL() }

// Close shuts the server down and waits for completion.
func (s *Server) Close() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}
