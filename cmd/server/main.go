package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"shoshin/internal/persistence/indexdb"
	persistlog "shoshin/internal/persistence/log"
	"shoshin/internal/protocol"
	"shoshin/internal/roster/aggregate"
	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/resolve"
	"shoshin/internal/roster/tuning"
	"shoshin/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "", "catalog override directory (empty: embedded defaults)")
		schemasDir = flag.String("schemas", "./schemas", "request schema directory (empty to disable validation)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <data>/../configs/tuning.yaml if present)")
		disableDB  = flag.Bool("disable_db", false, "disable roster persistence")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var cats *catalogs.Catalogs
	var err error
	if strings.TrimSpace(*configDir) != "" {
		cats, err = catalogs.LoadDir(*configDir)
	} else {
		cats, err = catalogs.Default()
	}
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tune := tuning.Defaults()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		tune, err = tuning.Load(tp)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var schemas *protocol.Schemas
	if sd := strings.TrimSpace(*schemasDir); sd != "" {
		schemas, err = protocol.CompileSchemas(sd)
		if err != nil {
			logger.Fatalf("compile schemas: %v", err)
		}
	}

	var store *indexdb.Store
	if !*disableDB {
		store, err = indexdb.Open(filepath.Join(*dataDir, "rosters.db"))
		if err != nil {
			logger.Fatalf("open roster db: %v", err)
		}
		defer store.Close()
	}

	var audit *persistlog.AuditLogger
	if tune.AuditEnabled {
		audit = persistlog.NewAuditLogger(*dataDir)
		defer audit.Close()
	}

	resolver := resolve.New(cats)
	resolver.MaxMunitions = tune.MaxMunitions
	engine := aggregate.New(cats)

	a := &api{
		cats:     cats,
		resolver: resolver,
		engine:   engine,
		schemas:  schemas,
		tune:     tune,
		store:    store,
		audit:    audit,
		log:      logger,
	}

	mux := a.routes()
	wsSrv := ws.NewServer(cats, resolver, engine, schemas, tune, logger)
	mux.Handle("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Printf("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
