// Package monitor detects posts that have not been seen before.
package monitor

import (
	"context"

	"github.com/abdulachik/weibobot/internal/domain"
)

// Fetcher lists the posts of monitored accounts.
//
// ListPosts must return posts newest first. The detector stops at the first
// unseen post, so an out-of-order feed is only handled when order
// verification is enabled.
type Fetcher interface {
	// Resolve maps an account to the endpoint listing its posts.
	Resolve(ctx context.Context, account domain.Account) (domain.FeedEndpoint, error)

	// ListPosts retrieves the current posts at endpoint.
	ListPosts(ctx context.Context, endpoint domain.FeedEndpoint) ([]domain.Post, error)
}

// State is a step of a detector run.
type State string

const (
	StateInit          State = "init"
	StateBootstrapping State = "bootstrapping"
	StateScanning      State = "scanning"
	StateDone          State = "done"
)

// Result is the outcome of a completed run.
type Result struct {
	// Mode is StateBootstrapping or StateScanning.
	Mode State

	// Post is the newly discovered post, nil if there is none. It is
	// always nil after bootstrapping.
	Post *domain.Post

	// Appended counts the identifiers recorded during the run.
	Appended int
}
