package social

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"besocial/cmd/internal/auth"
	"besocial/cmd/internal/metrics"
)

const maxPostChars = 2000

type createPostRequest struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := auth.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	img := strings.TrimSpace(req.Img)
	if text == "" && img == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "post must have an image or text")
		return
	}
	if len([]rune(text)) > maxPostChars {
		auth.WriteError(w, http.StatusBadRequest, "too_long", "post text too long")
		return
	}

	if img != "" {
		uploaded, err := h.uploader.Upload(r.Context(), img)
		if err != nil {
			h.internalError(w, "social.post.upload.fail", err)
			return
		}
		img = uploaded
	}

	post, err := h.posts.Create(r.Context(), CreatePostInput{
		UserID: me.ID,
		Text:   text,
		Img:    img,
		Now:    time.Now().UTC(),
	})
	if err != nil {
		h.internalError(w, "social.post.create.fail", err)
		return
	}
	metrics.PostsCreated.Inc()

	cache := newUserCache(h.users)
	auth.WriteJSON(w, http.StatusCreated, h.postView(r.Context(), cache, post))
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	post, err := h.posts.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		h.internalError(w, "social.post.load.fail", err)
		return
	}
	if post.UserID != me.ID {
		auth.WriteError(w, http.StatusForbidden, "forbidden", "you can not delete this post")
		return
	}

	if post.Img != "" {
		if err := h.uploader.Delete(r.Context(), post.Img); err != nil {
			h.log.Warn("social.post.img_delete.fail", "err", err, "post_id", post.ID)
		}
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil && !errors.Is(err, ErrNotFound) {
		h.internalError(w, "social.post.delete.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "post deleted successfully"})
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := auth.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		auth.WriteError(w, http.StatusBadRequest, "invalid_request", "comment must have a text")
		return
	}

	post, err := h.posts.AddComment(r.Context(), AddCommentInput{
		PostID: r.PathValue("id"),
		UserID: me.ID,
		Text:   req.Text,
		Now:    time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		h.internalError(w, "social.post.comment.fail", err)
		return
	}

	cache := newUserCache(h.users)
	auth.WriteJSON(w, http.StatusOK, h.postView(r.Context(), cache, post))
}

func (h *Handler) handleLikePost(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	postID := r.PathValue("id")
	post, err := h.posts.GetByID(r.Context(), postID)
	if errors.Is(err, ErrNotFound) {
		auth.WriteError(w, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		h.internalError(w, "social.post.load.fail", err)
		return
	}

	likes, liked, err := h.posts.ToggleLike(r.Context(), postID, me.ID)
	if err != nil {
		h.internalError(w, "social.post.like.fail", err)
		return
	}

	// Notify the author on like, withdraw on unlike. Own posts are not
	// notified. Either way the like itself already succeeded.
	if post.UserID != me.ID {
		if liked {
			_, err = h.notifs.Insert(r.Context(), InsertNotificationInput{
				FromID: me.ID,
				ToID:   post.UserID,
				Type:   NotificationLike,
				PostID: postID,
				Now:    time.Now().UTC(),
			})
		} else {
			err = h.notifs.DeleteLike(r.Context(), me.ID, post.UserID, postID)
		}
		if err != nil {
			h.log.Warn("social.post.like_notify.fail", "err", err, "post_id", postID)
		}
	}

	auth.WriteJSON(w, http.StatusOK, map[string]any{"likes": likes, "liked": liked})
}

func (h *Handler) handleAllPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authed(w, r); !ok {
		return
	}

	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		h.internalError(w, "social.posts.list.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, h.postViews(r.Context(), posts))
}

func (h *Handler) handleFollowingPosts(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListByUsers(r.Context(), me.Following)
	if err != nil {
		h.internalError(w, "social.posts.feed.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, h.postViews(r.Context(), posts))
}

func (h *Handler) handleLikedPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authed(w, r); !ok {
		return
	}

	userID := r.PathValue("id")
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		auth.WriteError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	posts, err := h.posts.ListLikedBy(r.Context(), userID)
	if err != nil {
		h.internalError(w, "social.posts.liked.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, h.postViews(r.Context(), posts))
}

func (h *Handler) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authed(w, r); !ok {
		return
	}

	user, err := h.users.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		auth.WriteError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	posts, err := h.posts.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, "social.posts.by_user.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, h.postViews(r.Context(), posts))
}
