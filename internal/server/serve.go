package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/funvibe/concepts/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP and gRPC servers until ctx is cancelled, then shuts
// both down gracefully. An empty address disables that transport.
func (s *Service) Serve(ctx context.Context, cfg config.Server, gatherer prometheus.Gatherer) error {
	var (
		httpLis, grpcLis net.Listener
		grpcSrv          *grpc.Server
		err              error
	)
	if cfg.GRPCAddr != "" {
		if grpcSrv, err = NewGRPCServer(s); err != nil {
			return err
		}
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			return fmt.Errorf("grpc listen %s: %w", cfg.GRPCAddr, err)
		}
	}
	if cfg.HTTPAddr != "" {
		if httpLis, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
			if grpcLis != nil {
				grpcLis.Close()
			}
			return fmt.Errorf("http listen %s: %w", cfg.HTTPAddr, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if httpLis != nil {
		srv := NewHTTPServer(cfg.HTTPAddr, NewRouter(s, gatherer))
		s.logger.Info("http server listening", "addr", httpLis.Addr().String())
		g.Go(func() error {
			if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if grpcLis != nil {
		s.logger.Info("grpc server listening", "addr", grpcLis.Addr().String())
		g.Go(func() error {
			if err := grpcSrv.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			grpcSrv.GracefulStop()
			return nil
		})
	}
	return g.Wait()
}
