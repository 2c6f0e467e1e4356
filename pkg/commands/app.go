package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/dayline/pkg/colors"
	"github.com/harrisonrobin/dayline/pkg/commit"
	"github.com/harrisonrobin/dayline/pkg/completions"
	"github.com/harrisonrobin/dayline/pkg/config"
	"github.com/harrisonrobin/dayline/pkg/engine"
	"github.com/harrisonrobin/dayline/pkg/google"
	"github.com/harrisonrobin/dayline/pkg/index"
	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/pending"
	"github.com/harrisonrobin/dayline/pkg/store"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// app holds everything a command needs, opened from the config.
type app struct {
	cfg         *config.Config
	store       *store.Store
	completions *completions.Log
	pending     *pending.Table
	palette     *colors.Palette
	mirror      *google.Mirror
	engine      *engine.Engine
}

type openOptions struct {
	// mirror connects to Google Calendar when the config enables it.
	mirror bool
}

func openApp(ctx context.Context, oo openOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	if a.store, err = store.Open(cfg.ItemsDir()); err != nil {
		return nil, err
	}
	if a.completions, err = completions.Open(ctx, cfg.CompletionsPath()); err != nil {
		return nil, err
	}
	if a.pending, err = pending.NewTable(cfg.DataDir); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load pending commits: %w", err)
	}
	if a.palette, err = colors.NewPalette(cfg.DataDir); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load colour palette: %w", err)
	}

	persisters := commit.Multi{a.store}
	if oo.mirror && cfg.Mirror {
		idx, err := index.NewEventIndex(cfg.DataDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load event index: %w", err)
		}
		a.mirror, err = google.NewClient(ctx, cfg.Calendar, idx, a.palette, a.store)
		if err != nil {
			// The store stays authoritative; mirror failures only disable syncing.
			log.Printf("Warning: calendar mirror disabled: %v", err)
		} else {
			persisters = append(persisters, a.mirror)
		}
	}

	a.engine, err = engine.New(engine.Options{
		Source:      a.store,
		Completions: a.completions,
		Persister:   persisters,
		Pending:     a.pending,
		Zoom:        timeconv.NewZoom(cfg.HourHeight, cfg.Zoom),
		Now:         time.Now,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Wait()
	}
	if a.completions != nil {
		if err := a.completions.Close(); err != nil {
			log.Printf("Warning: failed to close completion log: %v", err)
		}
	}
}

// colorOf returns the display colour of an item's project.
func (a *app) colorOf(it model.ScheduledItem) string {
	return colors.Hex(a.palette.ColorID(it.Project))
}

// completed returns the completion test for date, falling back to per-item
// lookups when the day's completions cannot be listed.
func (a *app) completed(ctx context.Context, date string) func(model.ScheduledItem) bool {
	check, err := a.completions.Checker(ctx, date)
	if err != nil {
		log.Printf("Warning: listing completions for %s: %v", date, err)
		return func(it model.ScheduledItem) bool {
			return a.completions.IsCompleted(ctx, it, date)
		}
	}
	return check
}

// watchCommits subscribes to commit results for one key. The returned
// function waits for persistence and reports a failure as an error.
func (a *app) watchCommits(key model.Key) func() error {
	var failed error
	unsub := a.engine.Subscribe(func(ev engine.Event) {
		if ev.Key == key && ev.Type == engine.EventCommitFailed {
			failed = ev.Err
		}
	})
	return func() error {
		a.engine.Wait()
		unsub()
		if failed != nil {
			return errors.Join(errors.New("change kept locally and queued for retry"), failed)
		}
		return nil
	}
}
