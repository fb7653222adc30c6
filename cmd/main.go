package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/goserg/meetups/internal/apiclient"
	"github.com/goserg/meetups/internal/cache/mem"
	"github.com/goserg/meetups/internal/config"
	"github.com/goserg/meetups/internal/logger"
	"github.com/goserg/meetups/internal/service"
	"github.com/goserg/meetups/internal/session"
	"github.com/goserg/meetups/internal/session/jwtstore"
	"github.com/goserg/meetups/internal/session/sqlite"
	"github.com/goserg/meetups/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var configPath, envPath string
	flag.StringVar(&configPath, "config", "configs/server.toml", "path to server config")
	flag.StringVar(&envPath, "env", ".env", "path to env file with overrides")
	flag.Parse()

	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	l := logger.New(cfg.Server.Debug)

	store, closeStore, err := newSessionStore(cfg.Session, l)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	server, err := web.New(cfg, l, apiclient.New(cfg.API, l), service.New(l), store)
	if err != nil {
		return err
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		l.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			l.WithError(err).Error("shutdown failed")
		}
	}()

	return server.Serve()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newSessionStore(cfg config.Session, l *logrus.Logger) (session.Store, io.Closer, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case config.BackendCookie:
		return jwtstore.New(cfg.Secret, ttl), nopCloser{}, nil
	case config.BackendSqlite:
		s, err := sqlite.New(l, cfg.SqliteFile, ttl)
		if err != nil {
			return nil, nil, err
		}
		return mem.New(s), s, nil
	}
	return nil, nil, errors.New("unknown session backend " + cfg.Backend)
}
