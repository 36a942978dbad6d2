package api

import "github.com/robostorm/robostorm/pkg/logger"

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowOrigin sets the Access-Control-Allow-Origin value.
func WithAllowOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.allowOrigin = origin
		}
	}
}

// WithMaxLimit caps the limit query parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
