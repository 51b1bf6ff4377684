package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"factorypulse/internal/auth"
)

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Exempt paths
		if path == "/" ||
			strings.HasPrefix(path, "/static/") ||
			path == "/auth/login" ||
			path == "/auth/logout" ||
			path == "/auth/me" {
			next.ServeHTTP(w, r)
			return
		}

		u := auth.UserFromRequest(db, r)
		if u == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(401)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized", "code": "UNAUTHORIZED"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getCurrentUser returns the authenticated session user, or nil.
func getCurrentUser(r *http.Request) *auth.SessionUser {
	return auth.UserFromRequest(db, r)
}
