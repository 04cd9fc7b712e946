// Package conn holds the transport options shared by the gRPC based clients.
package conn

import (
	"context"
	"log/slog"
	"time"

	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Config struct {
	Timeout time.Duration `flag:"timeout" desc:"per request timeout" default:"1m"`
}

// GRPCOptions chains the interceptors every gRPC client call goes through.
func GRPCOptions(config *Config, logger *slog.Logger) []option.ClientOption {
	return []option.ClientOption{
		option.WithGRPCDialOption(grpc.WithUnaryInterceptor(grpcmiddleware.ChainUnaryClient(
			Logging(logger),
			Timeout(config.Timeout),
		))),
	}
}

func Logging(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.Debug("grpc", "method", method, "duration", time.Since(start), "code", status.Code(err))
		return err
	}
}

// Timeout bounds a single call. A zero duration leaves the context as is.
func Timeout(d time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if d <= 0 {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
