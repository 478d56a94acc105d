package controllers

import (
	"net/http"

	"github.com/MohnajibG/circet/internal/middleware"
)

// userIDFromContext returns the uid placed by the auth middleware, or
// "" on unauthenticated routes.
func userIDFromContext(r *http.Request) string {
	uid, _ := r.Context().Value(middleware.ContextKeyUserID).(string)
	return uid
}

func displayNameFromContext(r *http.Request) string {
	name, _ := r.Context().Value(middleware.ContextKeyDisplayName).(string)
	return name
}
