package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightdesk/api"
	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/api/bookings_service_api"
	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 5 * time.Second

type Deps struct {
	Config   *config.Config
	Log      logrus.FieldLogger
	Bookings booking.BookingUseCase
	Flights  flights.FlightUseCase
	Tokens   *auth.TokenManager
	Checks   map[string]api.HealthCheck
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled or one of them fails.
func Run(ctx context.Context, deps Deps) error {
	s, err := newServers(deps)
	if err != nil {
		return err
	}

	grpcLis, err := net.Listen("tcp", deps.Config.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", deps.Config.GRPC.Address, err)
	}
	httpLis, err := net.Listen("tcp", deps.Config.HTTP.Address)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", deps.Config.HTTP.Address, err)
	}
	deps.Log.WithFields(logrus.Fields{"grpc": grpcLis.Addr().String(), "http": httpLis.Addr().String()}).Info("servers started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		if err := s.httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Log.Info("shutting down servers")
		s.health.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newServers(deps Deps) (*Servers, error) {
	if deps.Tokens == nil {
		return nil, errors.New("bootstrap: token manager is required")
	}
	if err := api.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(bookings_service_api.AuthInterceptor(deps.Tokens)))
	bookings_service_api.RegisterBookingsServiceServer(grpcSrv, bookings_service_api.NewServer(deps.Bookings, deps.Log))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(bookings_service_api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	router := api.NewRouter(api.RouterDeps{
		Bookings: deps.Bookings,
		Flights:  deps.Flights,
		Tokens:   deps.Tokens,
		Log:      deps.Log,
		Checks:   deps.Checks,
	})
	if dir := deps.Config.HTTP.SwaggerDir; dir != "" {
		router.Static("/swagger", dir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/bookings.swagger.json"))))
	}

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              deps.Config.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}
