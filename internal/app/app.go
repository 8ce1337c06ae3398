package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/abdulachik/weibobot/internal/config"
	"github.com/abdulachik/weibobot/internal/monitor"
	"github.com/abdulachik/weibobot/internal/notify"
	"github.com/abdulachik/weibobot/internal/runlock"
	"github.com/abdulachik/weibobot/internal/seen"
	"github.com/abdulachik/weibobot/internal/weibo"
)

// App is the main application container holding all dependencies.
type App struct {
	Config   *config.Config
	Store    seen.Store
	Fetcher  *weibo.Client
	Detector *monitor.Detector
	Notifier notify.Notifier

	lock *runlock.Lock
}

// Options adjust how the application is wired.
type Options struct {
	// DryRun logs notifications instead of delivering them.
	DryRun bool
}

// New creates a new application instance with all dependencies wired up.
// The configuration must already be validated.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	// Take the run lock before touching the store
	if cfg.LockPath != "" {
		lock, err := runlock.Acquire(cfg.LockPath, fmt.Sprintf("pid=%d\n", os.Getpid()))
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		a.lock = lock
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	a.Fetcher = weibo.NewClient(weibo.Config{
		BaseURL:   cfg.WeiboBaseURL,
		UserAgent: cfg.WeiboUserAgent,
		Timeout:   cfg.RequestTimeout,
	})

	a.Detector = monitor.New(monitor.Config{
		Store:       store,
		Fetcher:     a.Fetcher,
		Accounts:    cfg.Accounts,
		VerifyOrder: cfg.VerifyOrder,
	})

	if opts.DryRun {
		a.Notifier = notify.NewLogNotifier()
	} else {
		a.Notifier = notify.NewDingTalkNotifier(notify.DingTalkConfig{
			Webhook: cfg.DingTalkWebhook,
			Secret:  cfg.DingTalkSecret,
			Timeout: cfg.RequestTimeout,
		})
	}

	return a, nil
}

// OpenStore opens the seen store selected by the configuration.
func OpenStore(ctx context.Context, cfg *config.Config) (seen.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile, "":
		return seen.NewFileStore(cfg.SeenPath), nil
	case config.BackendSQLite:
		return seen.OpenSQLite(ctx, cfg.DatabasePath)
	case config.BackendRedis:
		return seen.OpenRedis(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// Check runs one detection pass and announces the post it found, if any.
// A failed delivery is logged but does not fail the check: the post is
// already recorded and will not be announced again.
func (a *App) Check(ctx context.Context) (monitor.Result, error) {
	result, err := a.Detector.Run(ctx)
	if err != nil {
		return result, err
	}

	switch {
	case result.Mode == monitor.StateBootstrapping:
		slog.Info("bootstrap complete", "recorded", result.Appended, "store", a.Store.Location())
	case result.Post == nil:
		slog.Info("no new posts", "accounts", len(a.Config.Accounts))
	default:
		a.announce(ctx, result.Post.ID, notify.FormatPost(*result.Post))
	}

	return result, nil
}

func (a *App) announce(ctx context.Context, postID string, n notify.Notification) {
	if err := a.Notifier.Send(ctx, n); err != nil {
		slog.Error("notification failed", "post_id", postID, "notifier", a.Notifier.Name(), "error", err)
		return
	}
	slog.Info("notification sent", "post_id", postID, "notifier", a.Notifier.Name())
}

// Close closes all resources.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Release())
	}
	return errors.Join(errs...)
}
