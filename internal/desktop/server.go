package desktop

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server runs the web app on an ephemeral loopback port for the desktop window.
type Server struct {
	srv     *http.Server
	ln      net.Listener
	done    chan error
	started bool
}

// NewServer binds 127.0.0.1 on a port picked by the OS. Serving starts with Start.
func NewServer(handler http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Server{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln:   ln,
		done: make(chan error, 1),
	}, nil
}

func (s *Server) Start() {
	logrus.Infof("Desktop server running at %s", s.URL())
	s.started = true
	go func() {
		err := s.srv.Serve(s.ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
}

// URL is the address the window should load.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("Shutting down desktop server")
	if !s.started {
		err := s.ln.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
		return err
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
