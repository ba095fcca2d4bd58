package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	_ "time/tzdata"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/alimikegami/nextrans-go/internal/controller"
	redisstore "github.com/alimikegami/nextrans-go/internal/infrastructure/cache/redis"
	"github.com/alimikegami/nextrans-go/internal/infrastructure/database/postgres"
	"github.com/alimikegami/nextrans-go/internal/infrastructure/message-queue/kafka"
	paymentgateway "github.com/alimikegami/nextrans-go/internal/infrastructure/payment-gateway"
	"github.com/alimikegami/nextrans-go/internal/infrastructure/tracing"
	localmiddleware "github.com/alimikegami/nextrans-go/internal/middleware"
	"github.com/alimikegami/nextrans-go/internal/repository"
	"github.com/alimikegami/nextrans-go/internal/service"
	"github.com/alimikegami/nextrans-go/pkg/notification"
	"github.com/alimikegami/nextrans-go/pkg/response"
	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger
	// Library code logs through log.Ctx, which falls back to this logger
	// outside of a request.
	zerolog.DefaultContextLogger = &logger

	config := config.CreateNewConfig()

	nextransClient, err := paymentgateway.CreateNextransClient(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create payment gateway client")
	}

	db, err := postgres.GetDBInstance(config.PostgreSQLConfig)
	if err != nil {
		panic(err)
	}

	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	kafkaWriter := kafka.CreateKafkaWriter(config)
	defer kafkaWriter.Close()

	redisClient, err := redisstore.CreateRedisClient(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer redisClient.Close()

	traceProvider, err := tracing.InitTracing(config.TracingConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	defer func() {
		if err := traceProvider.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to shut down tracing")
		}
	}()

	tracer := traceProvider.Tracer(config.TracingConfig.ServiceName)

	e := echo.New()
	g := e.Group("/api/v1")

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), fmt.Sprintf("[%s] %s", c.Request().Method, c.Path()))
			defer span.End()

			req := c.Request()
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	})

	// Used empty string so that metrics are not prefixed with the service name making it easier to aggregate across services
	e.Use(echoprometheus.NewMiddleware(""))
	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(fmt.Sprintf(":%s", config.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	e.Use(localmiddleware.Logger)

	IsLoggedIn := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(config.JWTSecret),
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Status:  "error",
				Message: "Invalid or expired JWT",
			})
		},
	})

	g.GET("/ping", func(c echo.Context) error {
		return response.WriteSuccessResponse(c, "Hello, World!", nil)
	})

	paymentRepo := repository.CreatePaymentRepository(db)
	notificationStore := redisstore.CreateNotificationStore(redisClient, config.RedisConfig.NotificationTTL)
	publisher := kafka.CreatePublisher(kafkaWriter)
	paymentSvc := service.CreatePaymentService(paymentRepo, nextransClient.Snap, publisher, notificationStore, config)

	notificationHandler, err := nextransClient.Snap.NotificationHandler(
		paymentSvc.NotificationHooks(),
		notification.WithRecheckTimeout(config.NextransConfig.RecheckTimeout),
		notification.WithTracerProvider(traceProvider),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create notification handler")
	}

	controller.CreatePaymentController(g, paymentSvc, notificationHandler, IsLoggedIn)

	s, err := gocron.NewScheduler()
	if err != nil {
		panic(err)
	}

	// pending payments whose notification never arrived
	_, err = s.NewJob(
		gocron.DurationJob(
			config.ReconcileConfig.Interval,
		),
		gocron.NewTask(
			paymentSvc.ReconcilePendingPayments,
		),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		panic(err)
	}

	s.Start()
	defer s.Shutdown()

	log.Info().
		Str("environment", config.NextransConfig.Environment).
		Str("snap_script", nextransClient.SnapScriptURL()).
		Msg("payment service starting")

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", config.ServicePort)))
}
