package router

import "net/http"

// Guard runs before a route handler. It returns true to proceed, or writes
// a terminal response and returns false.
type Guard func(w http.ResponseWriter, r *http.Request) bool

// Chain combines guards into one that runs them in order and stops at the
// first refusal.
func Chain(guards ...Guard) Guard {
	return func(w http.ResponseWriter, r *http.Request) bool {
		return runGuards(guards, w, r)
	}
}

func runGuards(guards []Guard, w http.ResponseWriter, r *http.Request) bool {
	for _, g := range guards {
		if !g(w, r) {
			return false
		}
	}
	return true
}
