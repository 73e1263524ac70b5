// Package server starts the short-lived http server that hosts the page to render.
// A server must be closed by the caller, usually with defer right after it's created.
package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/feedshot/feedshot/lib/utils"
	"github.com/gin-gonic/gin"
)

// ErrNotDir is returned when the dir to serve is not a directory
var ErrNotDir = errors.New("not a directory")

// Server that lives for the duration of one run
type Server struct {
	// URL of the served page, it ends with "/"
	URL string

	close func() error
	once  sync.Once
	err   error
}

// Close the server, it's safe to call it multiple times
func (s *Server) Close() error {
	s.once.Do(func() {
		s.err = s.close()
	})
	return s.err
}

// Static serves the files in dir. If addr is empty a random local port is used.
func Static(dir, addr string, logger utils.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, dir)
	}

	if addr == "" {
		addr = "127.0.0.1:0"
	}
	if logger == nil {
		logger = utils.LoggerQuiet
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(logger))
	engine.Static("/", dir)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() { _ = srv.Serve(l) }()

	u := "http://" + l.Addr().String() + "/"
	logger.Println("[server] serving", dir, "at", u)

	return &Server{
		URL: u,
		close: func() error {
			logger.Println("[server] stopped", u)
			return srv.Close()
		},
	}, nil
}

func accessLog(logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Println("[server]", c.Writer.Status(), c.Request.Method, c.Request.URL.Path, time.Since(start))
	}
}
