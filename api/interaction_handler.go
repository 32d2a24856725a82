package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitscroll/store"
	"github.com/raushankrgupta/fitscroll/utils"
)

type commentRequest struct {
	Text string `json:"text"`
}

// LikeHandler toggles the caller's like on a feed entry
func (s *Server) LikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	liked, err := s.Store.ToggleLike(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondStoreError(w, nil, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// CommentsHandler lists the comments of a feed entry
func (s *Server) CommentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	comments, err := s.Store.LoadComments(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondStoreError(w, nil, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, comments)
}

// AddCommentHandler appends a comment and returns the entry's comments
func (s *Server) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := strings.Builder{}
	utils.AddToLogMessage(&logMessageBuilder, "[Add Comment API]")
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	comments, err := s.Store.AppendComment(r.Context(), userID, r.PathValue("id"), req.Text)
	if err != nil {
		respondStoreError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, comments)
}

func respondStoreError(w http.ResponseWriter, logger *strings.Builder, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(w, logger, "Feed entry not found", http.StatusNotFound)
	case errors.Is(err, store.ErrEmptyComment):
		utils.RespondError(w, logger, "Comment text is required", http.StatusBadRequest)
	default:
		utils.RespondError(w, logger, fmt.Sprintf("Storage error: %v", err), http.StatusInternalServerError)
	}
}
