package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/epdlink/adproxy/epd"
	"github.com/epdlink/adproxy/internal/config"
	"github.com/epdlink/adproxy/kvstore"
	"github.com/epdlink/adproxy/server"
	"github.com/epdlink/adproxy/token"
)

func main() {
	for {
		if err := run(); err != nil {
			zlog.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	zlog.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	srv, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	store, err := buildStore(c)
	if err != nil {
		return nil, err
	}

	tokens := token.New(token.Credentials{
		ClientID:      c.GetClientID(),
		ClientSecret:  c.GetClientSecret(),
		Scope:         c.GetClientScope(),
		TokenEndpoint: c.GetTokenEndpoint(),
	}, store, c.GetTokenCacheTTL())

	epdClient := epd.New(c.GetServiceURL(), &http.Client{Timeout: 30 * time.Second})

	var oidcConfig *server.OidcConfig
	if c.GetIssuerURL() != "" {
		oidcConfig, err = server.NewOidcConfig(context.Background(), c)
		if err != nil {
			return nil, fmt.Errorf("configure oidc: %w", err)
		}
	} else {
		zlog.Warn().Msg("No OIDC issuer configured, login routes disabled")
	}

	return server.New(c, store, tokens, epdClient, oidcConfig), nil
}

func buildStore(c config.Config) (kvstore.Store, error) {
	if addr := c.GetRedisAddr(); addr != "" {
		redisStore, err := kvstore.NewRedis(context.Background(), addr, c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		zlog.Info().Str("addr", addr).Msg("Using redis store")
		return redisStore, nil
	}
	zlog.Warn().Msg("REDIS_ADDR not set, using in-memory store")
	return kvstore.NewInMemory(), nil
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	zlog.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
