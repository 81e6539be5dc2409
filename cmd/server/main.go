package main

import (
	"context"
	"flag"
	"log/syslog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	activity "github.com/rbrinkke/activity-api"
	"github.com/rbrinkke/activity-api/feedcache"
	"github.com/rbrinkke/activity-api/persistent"
	"github.com/rbrinkke/activity-api/pgdb"
	"github.com/rbrinkke/activity-api/transport/rest"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/uptrace/bun"
)

func listenAndServe(db *bun.DB, cache *feedcache.Cache, cfg config) func() error {
	service := &activity.DiscoveryService{
		Store: &persistent.StoreView{DB: db},
	}
	discoveryController := rest.DiscoveryController{
		Service: service,
		Cache:   cache,
	}

	server := fiber.New()
	server.Use(rest.LogHandler())

	api := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: rest.ErrorHandler,
	})
	api.Use(cors.New(cors.Config{AllowOrigins: cfg.allowOrigins}))
	api.Use(rest.CorrelationHandler())

	api.Get("/status", monitor.New())
	discoveryController.InstallTo(api)

	server.Mount("/api/", api)
	server.Use(rest.NotFoundHandler)

	go server.Listen(cfg.addr)

	return server.Shutdown
}

func setupLogger(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "activity_api")
	if err != nil {
		logrus.WithError(err).Warningln("Could not create syslog hook.")
		return
	}
	logrus.AddHook(syslogHook)
}

type config struct {
	pgDsn        string
	addr         string
	allowOrigins string
	cacheTtl     time.Duration
	debug        bool
}

func configFromEnv() config {
	requireEnv := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			logrus.Fatalln(key + " not set!")
		}
		return value
	}
	cfg := config{
		pgDsn:        requireEnv("POSTGRES_DSN"),
		addr:         ":8080",
		allowOrigins: "*",
		cacheTtl:     30 * time.Second,
		debug:        os.Getenv("DEBUG") == "true",
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.addr = addr
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		cfg.allowOrigins = origins
	}
	if rawTtl := os.Getenv("FEED_CACHE_TTL_SECONDS"); rawTtl != "" {
		seconds, err := strconv.Atoi(rawTtl)
		if err != nil {
			logrus.WithError(err).Fatalln("Invalid FEED_CACHE_TTL_SECONDS.")
		}
		cfg.cacheTtl = time.Duration(seconds) * time.Second
	}
	return cfg
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}

func main() {
	flag.Parse()
	cfg := configFromEnv()
	setupLogger(cfg.debug)
	logrus.Infoln("Starting activity api.")

	logrus.Infoln("Opening database.")
	db := pgdb.Open(context.Background(), cfg.pgDsn)
	defer db.Close()

	cache, err := feedcache.New(cfg.cacheTtl)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open feed cache.")
	}
	defer cache.Close()

	logrus.Infoln("Starting listening... To shut down use ^C")
	shutdown := listenAndServe(db, cache, cfg)

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	if err := shutdown(); err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
	logrus.Exit(0)
}
