// Package domain holds the types shared by the store, fetcher, detector and
// notifier.
package domain

import "time"

// Account is an opaque reference to a monitored Weibo user (its uid).
type Account string

// FeedEndpoint is the resolved location of an account's post listing.
// It is derived once per run and never persisted.
type FeedEndpoint struct {
	Account     Account
	ContainerID string
}

// Post is a normalized summary of one published post.
type Post struct {
	ID        string
	Account   Account
	CreatedAt string    // as reported by the remote
	PostedAt  time.Time // parsed CreatedAt, zero if it could not be parsed
	Text      string
	Source    string // client the post was published from
	Author    string // screen name
}
