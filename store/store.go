// Package store persists profiles, the cached feed and feed interactions per user.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitscroll/models"
)

var (
	ErrNotFound     = errors.New("feed entry not found")
	ErrEmptyComment = errors.New("comment text is empty")
)

// Store is the persistence used around a generation run.
// A missing profile loads as the zero profile and a missing feed as an empty one.
type Store interface {
	LoadProfile(ctx context.Context, userID string) (models.UserProfile, error)
	SaveProfile(ctx context.Context, userID string, p models.UserProfile) error
	LoadCachedFeed(ctx context.Context, userID string) ([]models.FeedEntry, error)
	SaveCachedFeed(ctx context.Context, userID string, entries []models.FeedEntry) error
	// ToggleLike flips the like state of an entry and returns the new state
	ToggleLike(ctx context.Context, userID, entryID string) (bool, error)
	LoadComments(ctx context.Context, userID, entryID string) ([]models.Comment, error)
	// AppendComment adds a comment and returns the entry's full comment list
	AppendComment(ctx context.Context, userID, entryID, text string) ([]models.Comment, error)
}

// toggle applies a like flip to e in place
func toggle(e *models.FeedEntry) bool {
	e.Liked = !e.Liked
	if e.Liked {
		e.Likes++
	} else if e.Likes > 0 {
		e.Likes--
	}
	return e.Liked
}

func newComment(author, text string, now time.Time) (models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, ErrEmptyComment
	}
	return models.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: now,
	}, nil
}

func findEntry(entries []models.FeedEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
