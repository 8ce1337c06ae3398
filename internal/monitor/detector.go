package monitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/abdulachik/weibobot/internal/domain"
	"github.com/abdulachik/weibobot/internal/seen"
)

// Detector finds the first post whose identifier is not in the store.
type Detector struct {
	store       seen.Store
	fetcher     Fetcher
	accounts    []domain.Account
	verifyOrder bool

	state State
}

// Config holds detector configuration.
type Config struct {
	Store    seen.Store
	Fetcher  Fetcher
	Accounts []domain.Account

	// VerifyOrder switches an account to latest-timestamp selection when
	// its feed is visibly not newest first.
	VerifyOrder bool
}

// New creates a new detector.
func New(cfg Config) *Detector {
	return &Detector{
		store:       cfg.Store,
		fetcher:     cfg.Fetcher,
		accounts:    cfg.Accounts,
		verifyOrder: cfg.VerifyOrder,
		state:       StateInit,
	}
}

// State returns the step the last run reached.
func (d *Detector) State() State {
	return d.state
}

// Run performs one check.
//
// If the store is empty it records every visible post without reporting
// any. Otherwise it returns the first unseen post in account order, after
// it has been durably recorded. Any fetch or storage failure aborts the run
// with a *domain.RunError.
func (d *Detector) Run(ctx context.Context) (Result, error) {
	d.state = StateInit

	if len(d.accounts) == 0 {
		return Result{}, &domain.RunError{
			Phase: "init",
			Err:   &domain.ConfigError{Key: "accounts", Reason: "no accounts configured"},
		}
	}

	history, err := d.store.Load(ctx)
	if err != nil {
		return Result{}, &domain.RunError{Phase: "load", Err: err}
	}

	endpoints := make([]domain.FeedEndpoint, 0, len(d.accounts))
	for _, account := range d.accounts {
		ep, err := d.fetcher.Resolve(ctx, account)
		if err != nil {
			return Result{}, &domain.RunError{Phase: "resolve", Account: account, Err: err}
		}
		endpoints = append(endpoints, ep)
	}

	var result Result
	if len(history) == 0 {
		d.state = StateBootstrapping
		result, err = d.bootstrap(ctx, endpoints)
	} else {
		d.state = StateScanning
		result, err = d.scan(ctx, endpoints)
	}
	if err != nil {
		return Result{}, err
	}

	d.state = StateDone
	return result, nil
}

// bootstrap fetches every feed before recording anything, so a failing
// account leaves the store untouched.
func (d *Detector) bootstrap(ctx context.Context, endpoints []domain.FeedEndpoint) (Result, error) {
	var ids []string
	for _, ep := range endpoints {
		posts, err := d.fetcher.ListPosts(ctx, ep)
		if err != nil {
			return Result{}, &domain.RunError{Phase: "bootstrap", Account: ep.Account, Err: err}
		}
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
	}

	before := d.store.Len()
	if err := d.store.Append(ctx, ids...); err != nil {
		return Result{}, &domain.RunError{Phase: "bootstrap", Err: err}
	}
	appended := d.store.Len() - before

	slog.Info("seeded seen set", "accounts", len(endpoints), "posts", appended, "location", d.store.Location())
	return Result{Mode: StateBootstrapping, Appended: appended}, nil
}

func (d *Detector) scan(ctx context.Context, endpoints []domain.FeedEndpoint) (Result, error) {
	for _, ep := range endpoints {
		posts, err := d.fetcher.ListPosts(ctx, ep)
		if err != nil {
			return Result{}, &domain.RunError{Phase: "scan", Account: ep.Account, Err: err}
		}

		candidate := d.pick(posts)
		if candidate == nil {
			slog.Debug("no new posts", "account", ep.Account, "posts", len(posts))
			continue
		}

		if err := d.store.Append(ctx, candidate.ID); err != nil {
			return Result{}, &domain.RunError{Phase: "record", Account: ep.Account, Err: err}
		}
		if !d.store.Contains(candidate.ID) {
			return Result{}, &domain.RunError{
				Phase:   "record",
				Account: ep.Account,
				Err:     errors.New("store did not retain appended id"),
			}
		}

		slog.Info("new post found",
			"account", ep.Account,
			"post_id", candidate.ID,
			"author", candidate.Author,
			"seen", d.store.Len(),
		)
		return Result{Mode: StateScanning, Post: candidate, Appended: 1}, nil
	}

	return Result{Mode: StateScanning}, nil
}

// pick returns the unseen post to report from one feed, or nil.
func (d *Detector) pick(posts []domain.Post) *domain.Post {
	if d.verifyOrder && !newestFirst(posts) {
		return latestUnseen(posts, d.store)
	}
	for i := range posts {
		if !d.store.Contains(posts[i].ID) {
			p := posts[i]
			return &p
		}
	}
	return nil
}

// newestFirst reports whether the posts with a known timestamp are in
// non-increasing time order.
func newestFirst(posts []domain.Post) bool {
	var last domain.Post
	for _, p := range posts {
		if p.PostedAt.IsZero() {
			continue
		}
		if !last.PostedAt.IsZero() && p.PostedAt.After(last.PostedAt) {
			return false
		}
		last = p
	}
	return true
}

// latestUnseen returns the unseen post with the latest timestamp. Ties and
// unparsed timestamps keep feed order.
func latestUnseen(posts []domain.Post, store seen.Store) *domain.Post {
	var best *domain.Post
	for i := range posts {
		if store.Contains(posts[i].ID) {
			continue
		}
		if best == nil || posts[i].PostedAt.After(best.PostedAt) {
			p := posts[i]
			best = &p
		}
	}
	if best != nil {
		slog.Debug("feed not newest first, picked latest unseen post", "account", best.Account, "post_id", best.ID)
	}
	return best
}
