package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"campus-portal/internal/domain"
	"campus-portal/internal/middleware"
	"campus-portal/internal/observability"
	"campus-portal/internal/security"
	"campus-portal/internal/service"
)

// ProfileHandler serves the authenticated account's own profile. All
// free-text input passes through the sanitizer before touching storage.
type ProfileHandler struct {
	accounts  domain.AccountRepository
	auditor   *service.ActivityAuditor
	uploadDir string
	policy    security.UploadPolicy
}

func NewProfileHandler(accounts domain.AccountRepository, auditor *service.ActivityAuditor, uploadDir string, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{
		accounts:  accounts,
		auditor:   auditor,
		uploadDir: uploadDir,
		policy: security.UploadPolicy{
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif"},
			MaxBytes:          maxUploadBytes,
		},
	}
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Get returns the authenticated account's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), session.UserID)
	if err != nil {
		http.Error(w, `{"error":"Account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse(account))
}

// Update sanitizes and stores the account's editable fields.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	email := security.Sanitize(req.Email, security.Email)
	displayName := security.Sanitize(req.DisplayName, security.PlainText)

	if email == "" || !strings.Contains(email, "@") {
		http.Error(w, `{"error":"Invalid email address"}`, http.StatusBadRequest)
		return
	}

	if err := h.accounts.UpdateProfile(r.Context(), session.UserID, email, displayName); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			http.Error(w, `{"error":"Account not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to update profile"}`, http.StatusInternalServerError)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), session.UserID)
	if err != nil {
		http.Error(w, `{"error":"Account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse(account))
}

// UploadAvatar validates and stores a profile photo. The file's actual
// bytes must match what its extension claims; a rejected upload gets a
// descriptive reason and an audit event.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	file, header, formErr := r.FormFile("avatar")
	if formErr == nil {
		defer file.Close()
	}

	if err := security.ValidateUpload(header, formErr, h.policy); err != nil {
		var uploadErr *domain.UploadError
		reason := "upload rejected"
		if errors.As(err, &uploadErr) {
			reason = uploadErr.Reason
		}
		_ = h.auditor.Record(r.Context(), session.UserID, domain.ActionRequestRejected, reason)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": reason})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := fmt.Sprintf("avatar_%d%s", session.UserID, ext)

	if err := h.saveFile(header, name); err != nil {
		observability.FromContext(r.Context()).Error("failed to store avatar")
		http.Error(w, `{"error":"Failed to store file"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"filename": name})
}

func (h *ProfileHandler) saveFile(header *multipart.FileHeader, name string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return err
	}

	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
