package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raushankrgupta/fitscroll/models"
	"github.com/raushankrgupta/fitscroll/utils"
)

const maxPhotoSize = 10 << 20

// CreateProfileHandler stores the onboarding result: selfie, gender, keywords, brands and styles.
// Omitting the photo keeps the previously uploaded one.
func (s *Server) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Create Profile API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}

	profile, err := s.Store.LoadProfile(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error loading profile: %v", err), http.StatusInternalServerError)
		return
	}

	profile.Gender = models.ParseGender(r.FormValue("gender"))
	profile.Keywords = utils.SplitList(r.FormValue("keywords"))
	profile.Brands = utils.SplitList(r.FormValue("brands"))
	profile.StyleTags = utils.SplitList(r.FormValue("styles"))

	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		photoPath, err := s.savePhoto(file, header, userID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error saving photo: %v", err), http.StatusInternalServerError)
			return
		}
		profile.BasePhoto = photoPath
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Saved photo to %s", photoPath))
	}

	profile.Onboarded = true
	profile.UpdatedAt = time.Now()

	if err := s.Store.SaveProfile(r.Context(), userID, profile); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error saving profile: %v", err), http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Profile saved for %s", userID))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile saved successfully",
		"profile": profile,
	})
}

// GetProfileHandler returns the stored profile, or an empty one before onboarding
func (s *Server) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, nil, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := s.Store.LoadProfile(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, nil, fmt.Sprintf("Error loading profile: %v", err), http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

// savePhoto writes the uploaded photo under UploadDir and returns its path
func (s *Server) savePhoto(file multipart.File, header *multipart.FileHeader, userID string) (string, error) {
	uploadDir := s.UploadDir
	if uploadDir == "" {
		uploadDir = "user_images"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	safeUser := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, userID)
	filePath := filepath.Join(uploadDir, fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), safeUser, ext))

	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return filePath, nil
}
