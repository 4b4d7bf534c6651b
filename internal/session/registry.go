// Package session maps opaque capability tokens to connection roles. A
// token is the only credential: it fixes the role at handshake time and,
// for contestants, binds the connection to a persistent contestant id.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lectrix/buzzboard/internal/engine"
)

type Registry struct {
	mu         sync.RWMutex
	adminToken string
	// contestant token -> contestant id
	contestants map[string]string
}

// NewRegistry builds a registry around the given admin token, generating
// one when empty.
func NewRegistry(adminToken string) *Registry {
	if adminToken == "" {
		adminToken = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return &Registry{
		adminToken:  adminToken,
		contestants: make(map[string]string),
	}
}

// AdminToken returns the admin capability token so it can be printed or
// embedded in a join URL at startup.
func (r *Registry) AdminToken() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adminToken
}

// IssueContestant mints a fresh token bound to a fresh contestant id. The
// same token presented later resumes the same identity.
func (r *Registry) IssueContestant() (token, contestantID string) {
	token = strings.ReplaceAll(uuid.NewString(), "-", "")
	contestantID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.contestants[token] = contestantID
	return token, contestantID
}

// Resolve assigns the role for a connection presenting token. Absent or
// unknown tokens yield the read-only Spectator role.
func (r *Registry) Resolve(token string) (engine.Role, string) {
	if token == "" {
		return engine.RoleSpectator, ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if token == r.adminToken {
		return engine.RoleAdmin, ""
	}
	if id, ok := r.contestants[token]; ok {
		return engine.RoleContestant, id
	}
	return engine.RoleSpectator, ""
}

// RevokeContestant invalidates the token bound to the given contestant id.
func (r *Registry) RevokeContestant(contestantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, id := range r.contestants {
		if id == contestantID {
			delete(r.contestants, token)
		}
	}
}

// RevokeContestants drops every contestant token; used on game reset.
func (r *Registry) RevokeContestants() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.contestants)
}
