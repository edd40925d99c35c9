package api

import (
	"net/http"

	"github.com/google/uuid"
)

// Session is the authenticated identity attached to a request. The core
// trusts it as already validated; authentication itself happens upstream.
type Session struct {
	ClientID uuid.UUID
	Role     string // "patient" or "staff"
}

type SessionProvider interface {
	FromRequest(r *http.Request) (Session, bool)
}

// HeaderSessionProvider reads the identity headers set by the auth proxy in
// front of this service.
type HeaderSessionProvider struct{}

func (HeaderSessionProvider) FromRequest(r *http.Request) (Session, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Client-ID"))
	if err != nil {
		return Session{}, false
	}
	role := r.Header.Get("X-Client-Role")
	if role == "" {
		role = "patient"
	}
	return Session{ClientID: id, Role: role}, true
}
