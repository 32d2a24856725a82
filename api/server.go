// Package api exposes onboarding, feed generation and feed interactions over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/raushankrgupta/fitscroll/feed"
	"github.com/raushankrgupta/fitscroll/logging"
	"github.com/raushankrgupta/fitscroll/models"
	"github.com/raushankrgupta/fitscroll/store"
	"github.com/raushankrgupta/fitscroll/utils"
)

// FeedRunner runs one feed generation for a profile
type FeedRunner interface {
	Run(ctx context.Context, profile models.UserProfile, onProgress feed.ProgressFunc) ([]models.FeedEntry, error)
}

// HealthChecker reports whether the outfit bridge is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// ImageResolver turns a stored image locator into a URL the client can load
type ImageResolver interface {
	URL(ctx context.Context, locator string) (string, error)
}

// GeneratedImagesPath is the URL prefix locally stored try-on images are served under
const GeneratedImagesPath = "/generated_images/"

// Server holds the collaborators of every handler.
// Uploaded base photos in UploadDir are never served; only GeneratedDir is public.
type Server struct {
	Store        store.Store
	Pipeline     FeedRunner
	Bridge       HealthChecker
	Tracker      feed.Tracker
	Images       ImageResolver
	JWTSecret    string
	UploadDir    string
	GeneratedDir string
	Logger       logging.Logger
}

// Routes registers every endpoint; all but /health require a bearer token
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HealthHandler)

	mux.Handle("POST /profile", s.RequireAuth(s.CreateProfileHandler))
	mux.Handle("GET /profile", s.RequireAuth(s.GetProfileHandler))

	mux.Handle("POST /feed/generate", s.RequireAuth(s.GenerateFeedHandler))
	mux.Handle("GET /feed", s.RequireAuth(s.FeedHandler))
	mux.Handle("GET /feed/progress", s.RequireAuth(s.ProgressHandler))
	mux.Handle("POST /feed/{id}/like", s.RequireAuth(s.LikeHandler))
	mux.Handle("GET /feed/{id}/comments", s.RequireAuth(s.CommentsHandler))
	mux.Handle("POST /feed/{id}/comments", s.RequireAuth(s.AddCommentHandler))

	// Generated file names are random, so links in feed responses work without a token
	if s.GeneratedDir != "" {
		mux.Handle("GET "+GeneratedImagesPath, http.StripPrefix(GeneratedImagesPath, http.FileServer(http.Dir(s.GeneratedDir))))
	}

	return utils.LatencyMiddleware(utils.CORSMiddleware(mux))
}

func (s *Server) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}

// resolveEntries returns copies of entries whose image locators are client-loadable URLs
func (s *Server) resolveEntries(ctx context.Context, entries []models.FeedEntry) []models.FeedEntry {
	var resolve func(context.Context, string) (string, error)
	if s.Images != nil {
		resolve = s.Images.URL
	}
	out := make([]models.FeedEntry, len(entries))
	for i, e := range entries {
		e.Images = utils.ResolveImageURLs(ctx, e.Images, resolve)
		out[i] = e
	}
	return out
}

// HealthHandler reports service status and bridge reachability
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	bridge := "unreachable"
	if s.Bridge != nil && s.Bridge.HealthCheck(r.Context()) {
		bridge = "ok"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"bridge": bridge,
	})
}
