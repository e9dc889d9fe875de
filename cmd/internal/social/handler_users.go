package social

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"besocial/cmd/identity"
	"besocial/cmd/internal/auth"
)

const suggestedUserCount = 4

func (h *Handler) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authed(w, r); !ok {
		return
	}

	user, err := h.users.GetByUsername(r.Context(), r.PathValue("username"))
	if errors.Is(err, identity.ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		h.internalError(w, "social.profile.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleSuggestedUsers(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	peers, err := h.users.SuggestPeers(r.Context(), me.ID, suggestedUserCount)
	if err != nil {
		h.internalError(w, "social.suggested.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, identity.Publics(peers))
}

func (h *Handler) handleFollowUnfollow(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	targetID := r.PathValue("id")
	if targetID == me.ID {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "you cannot follow or unfollow yourself")
		return
	}

	target, err := h.users.GetByID(r.Context(), targetID)
	if errors.Is(err, identity.ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		h.internalError(w, "social.follow.load.fail", err)
		return
	}

	if me.IsFollowing(targetID) {
		if err := h.users.Unfollow(r.Context(), me.ID, targetID); err != nil {
			h.internalError(w, "social.unfollow.fail", err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "user unfollowed successfully"})
		return
	}

	if err := h.users.Follow(r.Context(), me.ID, targetID); err != nil {
		h.internalError(w, "social.follow.fail", err)
		return
	}
	if _, err := h.notifs.Insert(r.Context(), InsertNotificationInput{
		FromID: me.ID,
		ToID:   target.ID,
		Type:   NotificationFollow,
		Now:    time.Now().UTC(),
	}); err != nil {
		h.log.Warn("social.follow_notify.fail", "err", err, "target_id", target.ID)
	}
	auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "user followed successfully"})
}

type updateProfileRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	ProfileImg      string `json:"profileImg"`
	CoverImg        string `json:"coverImg"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := auth.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if (req.CurrentPassword == "") != (req.NewPassword == "") {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "please enter both current and new password")
		return
	}
	if req.CurrentPassword != "" {
		okPw, err := identity.VerifyPassword(req.CurrentPassword, me.PasswordHash)
		if err != nil || !okPw {
			auth.WriteError(w, http.StatusBadRequest, "invalid_password", "current password is incorrect")
			return
		}
		if len(req.NewPassword) < 6 {
			auth.WriteError(w, http.StatusBadRequest, "weak_password", "password must be at least 6 characters long")
			return
		}
		hash, err := identity.HashPassword(req.NewPassword, identity.DefaultArgon2idParams())
		if err != nil {
			h.internalError(w, "social.update.hash.fail", err)
			return
		}
		me.PasswordHash = hash
	}

	if img := strings.TrimSpace(req.ProfileImg); img != "" {
		if me.ProfileImg != "" {
			if err := h.uploader.Delete(r.Context(), me.ProfileImg); err != nil {
				h.log.Warn("social.update.img_delete.fail", "err", err)
			}
		}
		uploaded, err := h.uploader.Upload(r.Context(), img)
		if err != nil {
			h.internalError(w, "social.update.upload.fail", err)
			return
		}
		me.ProfileImg = uploaded
	}
	if img := strings.TrimSpace(req.CoverImg); img != "" {
		if me.CoverImg != "" {
			if err := h.uploader.Delete(r.Context(), me.CoverImg); err != nil {
				h.log.Warn("social.update.img_delete.fail", "err", err)
			}
		}
		uploaded, err := h.uploader.Upload(r.Context(), img)
		if err != nil {
			h.internalError(w, "social.update.upload.fail", err)
			return
		}
		me.CoverImg = uploaded
	}

	if v := strings.TrimSpace(req.FullName); v != "" {
		me.FullName = v
	}
	if v := identity.NormalizeEmail(req.Email); v != "" {
		if !identity.ValidEmail(v) {
			auth.WriteError(w, http.StatusBadRequest, "invalid_email", "invalid email format")
			return
		}
		me.Email = v
	}
	if v := identity.NormalizeUsername(req.Username); v != "" {
		if !identity.ValidUsername(v) {
			auth.WriteError(w, http.StatusBadRequest, "invalid_username", "invalid username")
			return
		}
		me.Username = v
	}
	if v := strings.TrimSpace(req.Bio); v != "" {
		me.Bio = v
	}
	if v := strings.TrimSpace(req.Link); v != "" {
		me.Link = v
	}

	updated, err := h.users.Update(r.Context(), me)
	if errors.Is(err, identity.ErrConflict) {
		auth.WriteError(w, http.StatusBadRequest, "taken", "username or email already taken")
		return
	}
	if err != nil {
		h.internalError(w, "social.update.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, updated.Public())
}
