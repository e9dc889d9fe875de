package social

import (
	"net/http"

	"besocial/cmd/internal/auth"
)

// handleListNotifications returns the caller's notifications and marks
// them all read, matching the read-on-open behavior of the client.
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	notifs, err := h.notifs.ListForUser(r.Context(), me.ID)
	if err != nil {
		h.internalError(w, "social.notifications.list.fail", err)
		return
	}

	if err := h.notifs.MarkAllRead(r.Context(), me.ID); err != nil {
		h.log.Warn("social.notifications.mark_read.fail", "err", err)
	}

	cache := newUserCache(h.users)
	views := make([]NotificationView, 0, len(notifs))
	for _, n := range notifs {
		from := cache.get(r.Context(), n.FromID)
		views = append(views, NotificationView{
			ID: n.ID,
			From: NotificationActor{
				ID:         from.ID,
				Username:   from.Username,
				ProfileImg: from.ProfileImg,
			},
			Type:      n.Type,
			PostID:    n.PostID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	auth.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleDeleteNotifications(w http.ResponseWriter, r *http.Request) {
	me, ok := h.authed(w, r)
	if !ok {
		return
	}

	if err := h.notifs.DeleteAllFor(r.Context(), me.ID); err != nil {
		h.internalError(w, "social.notifications.delete.fail", err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "notifications deleted successfully"})
}
