package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dend04/Pagina-web-Tienda/internal/cart"
	"github.com/Dend04/Pagina-web-Tienda/internal/config"
	"github.com/Dend04/Pagina-web-Tienda/internal/controller"
	"github.com/Dend04/Pagina-web-Tienda/internal/lock"
	"github.com/Dend04/Pagina-web-Tienda/internal/middleware"
	"github.com/Dend04/Pagina-web-Tienda/internal/rabbit"
	"github.com/Dend04/Pagina-web-Tienda/internal/repository"
	"github.com/Dend04/Pagina-web-Tienda/internal/service"
	"github.com/Dend04/Pagina-web-Tienda/internal/validation"
)

type store interface {
	service.PedidoRepository
	service.HistorialRepository
	controller.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Error cargando configuración")
	}
	logger := config.NewLogger(cfg.LogLevel)

	if err := validation.RegisterItemRules(); err != nil {
		logger.WithError(err).Fatal("Error registrando validaciones")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Almacenamiento
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error conectando al almacenamiento")
	}
	defer closeStore()

	// Servicios
	pedidoService := service.NewPedidoService(st, cfg.PedidoTTL, logger)
	historialService := service.NewHistorialService(st)
	authService := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL)

	checks := map[string]controller.Pinger{"store": st}

	if cfg.RedisAddr != "" {
		locker := lock.NewRedisLocker(cfg.RedisAddr, logger)
		defer locker.Close()
		if err := locker.Ping(ctx); err != nil {
			logger.WithError(err).Warn("Redis no responde; los locks se intentarán igual")
		}
		pedidoService.SetLocker(locker)
		checks["redis"] = locker
	}

	wa, err := cart.NewWhatsApp(cfg.WhatsAppNumero, cfg.WhatsAppRegion)
	if err != nil {
		logger.WithError(err).Fatal("Número de WhatsApp inválido")
	}

	// RabbitMQ
	consumeCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	if cfg.RabbitURL != "" {
		conn, err := setupRabbit(consumeCtx, cfg.RabbitURL, pedidoService, logger)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ no disponible; el servicio sigue sin eventos")
		} else {
			defer conn.Close()
		}
	}

	// Handlers
	resp := controller.NewResponder(logger, cfg.IsDevelopment())
	handlers := controller.Handlers{
		Pedidos:   controller.NewPedidoController(pedidoService, resp),
		Historial: controller.NewHistorialController(historialService, resp),
		Carrito:   controller.NewCarritoController(pedidoService, wa, resp),
		Health:    controller.NewHealthController(checks, logger),
	}

	// Router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AddAllowMethods("PATCH")
	corsConfig.AddAllowHeaders("Authorization")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	controller.RegisterRoutes(r, authService, handlers)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Servicio de pedidos ejecutándose")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Error iniciando servidor")
		}
	}()

	// Apagado ordenado
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Apagando servidor...")
	stopConsumers()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Apagado forzado del servidor")
	}
	logger.Info("Servidor detenido")
}

func openStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		pg := repository.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Conectado a PostgreSQL")
		return pg, func() { db.Close() }, nil

	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		m := repository.NewMongoStore(client.Database(cfg.MongoDBName))
		if err := m.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.WithField("db", cfg.MongoDBName).Info("Conectado a MongoDB")
		return m, closeFn, nil
	}
}

func setupRabbit(ctx context.Context, url string, svc *service.PedidoService, logger logrus.FieldLogger) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}

	pubCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher, err := rabbit.NewPublisher(pubCh)
	if err != nil {
		conn.Close()
		return nil, err
	}
	svc.SetPublisher(publisher)

	consumeCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := rabbit.SetupConsumers(ctx, consumeCh, svc, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
