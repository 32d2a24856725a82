package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/raushankrgupta/fitscroll/feed"
	"github.com/raushankrgupta/fitscroll/logging"
	"github.com/raushankrgupta/fitscroll/models"
	"github.com/raushankrgupta/fitscroll/utils"
)

// MsgBridgeDown is shown when outfit search cannot be reached before a run
const MsgBridgeDown = "Outfit search is unavailable right now. Please try again in a moment."

// GenerateResponse is the result of a completed generation run
type GenerateResponse struct {
	Entries   []models.FeedEntry `json:"entries"`
	Generated int                `json:"generated"`
	Total     int                `json:"total"`
}

// FeedResponse is one page of the cached feed
type FeedResponse struct {
	Data        []models.FeedEntry `json:"data"`
	Total       int                `json:"total"`
	CurrentPage int                `json:"current_page"`
	TotalPages  int                `json:"total_pages"`
}

// GenerateFeedHandler runs the pipeline for the caller's profile and caches the result.
// The request blocks until the run ends; progress is available from /feed/progress meanwhile.
// The run and the cache write outlive a client disconnect so an abandoned request still
// leaves the full feed behind instead of one degraded by cancelled compositions.
func (s *Server) GenerateFeedHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Generate Feed API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	ctx := logging.ContextWith(context.WithoutCancel(r.Context()), "user", userID)

	profile, err := s.Store.LoadProfile(ctx, userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error loading profile: %v", err), http.StatusInternalServerError)
		return
	}

	// 1. Make sure outfit search is reachable before starting
	if s.Bridge != nil && !s.Bridge.HealthCheck(ctx) {
		utils.RespondError(w, &logMessageBuilder, MsgBridgeDown, http.StatusServiceUnavailable)
		return
	}

	// 2. Run the pipeline, publishing progress for pollers
	entries, err := s.Pipeline.Run(ctx, profile, feed.Observe(ctx, s.Tracker, userID, nil))
	switch {
	case errors.Is(err, feed.ErrMissingBasePhoto):
		utils.RespondError(w, &logMessageBuilder, feed.MsgMissingBasePhoto, http.StatusUnprocessableEntity)
		return
	case errors.Is(err, feed.ErrNoCandidates):
		utils.RespondError(w, &logMessageBuilder, feed.MsgNoCandidates, http.StatusNotFound)
		return
	case err != nil:
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Feed generation failed: %v", err), http.StatusInternalServerError)
		return
	}

	generated := 0
	for _, e := range entries {
		if e.AIGenerated {
			generated++
		}
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Generated %d of %d entries", generated, len(entries)))

	// 3. Cache the feed; a failed save still returns the fresh entries
	if err := s.Store.SaveCachedFeed(ctx, userID, entries); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Error caching feed: %v", err))
		s.logger().Error(ctx, "feed cache write failed", "error", err)
	}

	utils.RespondJSON(w, http.StatusOK, GenerateResponse{
		Entries:   s.resolveEntries(ctx, entries),
		Generated: generated,
		Total:     len(entries),
	})
}

// FeedHandler returns the cached feed, paginated with page and limit
func (s *Server) FeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := 1
	limit := 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	entries, err := s.Store.LoadCachedFeed(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch feed", http.StatusInternalServerError)
		return
	}

	total := len(entries)
	start, end, pages := pageBounds(page, limit, total)

	utils.RespondJSON(w, http.StatusOK, FeedResponse{
		Data:        s.resolveEntries(r.Context(), entries[start:end]),
		Total:       total,
		CurrentPage: page,
		TotalPages:  pages,
	})
}

// pageBounds slices total items into pages of limit. page and limit are positive
// and may be arbitrarily large, so nothing here multiplies or adds them directly.
func pageBounds(page, limit, total int) (start, end, pages int) {
	pages = total / limit
	if total%limit != 0 {
		pages++
	}
	if page > pages {
		return total, total, pages
	}
	start = (page - 1) * limit // page <= pages keeps this within total
	end = start + min(limit, total-start)
	return start, end, pages
}

// ProgressHandler returns the latest progress of the caller's current or last run
func (s *Server) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if s.Tracker == nil {
		utils.RespondError(w, nil, "No feed generation in progress", http.StatusNotFound)
		return
	}

	progress, err := s.Tracker.Latest(r.Context(), userID)
	if errors.Is(err, feed.ErrNoProgress) {
		utils.RespondError(w, nil, "No feed generation in progress", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.RespondError(w, nil, fmt.Sprintf("Failed to read progress: %v", err), http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, progress)
}
