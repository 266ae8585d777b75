// Package app wires the Murshid components together: storage, prayer
// schedule, NLP classifier, transcription, conversation state, and the Matrix
// transport.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murshid/internal/config"
	"murshid/internal/matrix"
	"murshid/internal/nlp"
	"murshid/internal/router"
	"murshid/internal/schedule"
	"murshid/internal/state"
	"murshid/internal/store"
	"murshid/internal/task"
	"murshid/internal/transcribe"
)

// App holds the assembled application.
type App struct {
	store  *store.Store
	matrix *matrix.Client
	router *router.Router
}

// New builds the application from configuration. Everything that can fail at
// startup fails here, before any message is handled.
func New(cfg *config.Config) (*App, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app: timezone: %w", err)
	}

	sched, err := schedule.New(cfg.Prayers, loc)
	if err != nil {
		return nil, fmt.Errorf("app: schedule: %w", err)
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("app: store: %w", err)
	}

	defs := make([]store.HabitDefinition, 0, len(cfg.Habits))
	for _, h := range cfg.Habits {
		defs = append(defs, store.HabitDefinition{
			ID:                    h.ID,
			Name:                  h.Name,
			Slot:                  schedule.Slot(h.Slot),
			RequiresJustification: h.RequiresJustification,
		})
	}
	if err := st.SeedHabits(context.Background(), defs); err != nil {
		st.Close()
		return nil, fmt.Errorf("app: seed habits: %w", err)
	}

	mx, err := matrix.New(&matrix.Config{
		Homeserver:  cfg.Matrix.Homeserver,
		UserID:      cfg.Matrix.UserID,
		AccessToken: cfg.Matrix.AccessToken,
		Rooms:       cfg.Matrix.Rooms,
		DB:          st.DB(),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("app: matrix: %w", err)
	}

	classifier := nlp.NewClassifier(nlp.NewProvider(nlp.Config{
		APIKey:      cfg.NLP.APIKey,
		BaseURL:     cfg.NLP.BaseURL,
		FastModel:   cfg.NLP.FastModel,
		StrongModel: cfg.NLP.StrongModel,
		Timeout:     cfg.NLP.Timeout,
	}))

	transcriber := transcribe.New(transcribe.Config{
		APIKey:  cfg.NLP.APIKey,
		BaseURL: cfg.NLP.BaseURL,
		Model:   cfg.Transcribe.Model,
		Timeout: cfg.Transcribe.Timeout,
	})

	rt := router.New(router.Config{
		Classifier:  classifier,
		Tasks:       task.New(st),
		Storage:     st,
		States:      state.NewStore(),
		Messenger:   mx,
		Transcriber: transcriber,
		Schedule:    sched,
		Thresholds: router.Thresholds{
			Reject:      cfg.Thresholds.Reject,
			ActionFloor: cfg.Thresholds.ActionFloor,
			Confirm:     cfg.Thresholds.Confirm,
			Duplicate:   cfg.Thresholds.Duplicate,
		},
		Location: loc,
	})

	return &App{store: st, matrix: mx, router: rt}, nil
}

// Run starts the Matrix sync loop and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("starting sync")
	if err := a.matrix.Start(ctx, a.router); err != nil {
		return fmt.Errorf("app: start matrix: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	return nil
}

// Stop shuts everything down.
func (a *App) Stop() {
	a.matrix.Stop()
	if err := a.store.Close(); err != nil {
		slog.Error("store close failed", "error", err)
	}
}
