package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nuttally/internal/config"
	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository/sheets"
	"nuttally/internal/repository/sqlite"
	"nuttally/internal/routes"
	"nuttally/internal/services"
	"nuttally/internal/services/inference"
	"nuttally/internal/services/tally"
	"nuttally/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	inference  *inference.Client
	store      *sheets.TallyRepository
	hubService *websocket.HubService
	manager    *services.Manager
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if !cfg.StoreConfigured() {
		log.Warning("SHEET_ID or GOOGLE_CREDENTIALS_JSON not set, rows will not be saved to the sheet")
	}

	store := sheets.NewTallyRepository(context.Background(), cfg.SheetID, cfg.SheetRange, cfg.GoogleCredentials)
	if store.State() == sheets.StateInvalidCredentials {
		log.Error("GOOGLE_CREDENTIALS_JSON was rejected, sheet writes will fail")
	}
	client := inference.NewClient(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.InferenceTimeout, log)
	aggregator := tally.NewAggregator(model.NewVocabulary(cfg.Classes), store, cfg.StoreTimeout, log)
	hub := websocket.NewHubService(log)

	mng := services.NewManager(client, aggregator, sqlite.NewSubmissionRepository(db), hub, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		inference:  client,
		store:      store,
		hubService: hub,
		manager:    mng,
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	// Start background services
	go a.hubService.Run()
	defer a.hubService.Stop()
	defer a.db.Close()

	router := routes.SetupRoutes(a.manager, a.config, a.logger, routes.Status{
		InferenceLive: a.inference.Live(),
		StoreState:    a.store.State(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      a.config.InferenceTimeout + a.config.StoreTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	mode := "placeholder"
	if a.inference.Live() {
		mode = "live"
	}
	fmt.Printf("🥜 Nut Tally Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Inference: %s (%s)\n", mode, a.config.InferenceURL)
	fmt.Printf("📋 Classes: %v\n", a.config.Classes)
	fmt.Printf("🗄️  Ledger: %s\n", a.config.DatabasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		a.logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
