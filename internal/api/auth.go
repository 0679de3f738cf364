package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
)

// ticketTTL is how long a WebSocket ticket is valid.
const ticketTTL = 60 * time.Second

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	Subject    string    `json:"subject"`
	Role       auth.Role `json:"role"`
	TTLMinutes int       `json:"ttl_minutes"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

type ticketEntry struct {
	expiresAt time.Time
	principal auth.Principal
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketEntry)}
}

// handleIssueToken mints an access token. Admin only.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Subject == "" {
		writeBadRequest(w, "subject is required")
		return
	}
	if !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "role must be viewer, operator or admin")
		return
	}

	ttl := time.Duration(req.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
	}

	signed, err := auth.GenerateAccessToken(req.Subject, req.Role, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		writeInternalError(w, "failed to generate token")
		return
	}

	p, _ := principalFrom(r.Context())
	s.logger.Info("access token issued", "subject", req.Subject, "role", req.Role, "issued_by", p.Subject)

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
	})
}

// handleWSTicket generates a single-use WebSocket authentication ticket.
// The client uses this ticket to authenticate the WebSocket connection
// without exposing its credentials in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	ticket := generateTicket()

	s.tickets.mu.Lock()
	s.tickets.tickets[ticket] = ticketEntry{
		expiresAt: time.Now().Add(ticketTTL),
		principal: p,
	}
	s.tickets.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// validateTicket checks if a ticket is valid and consumes it (single-use).
func (s *Server) validateTicket(ticket string) (auth.Principal, bool) {
	s.tickets.mu.Lock()
	defer s.tickets.mu.Unlock()

	entry, ok := s.tickets.tickets[ticket]
	if !ok {
		return auth.Principal{}, false
	}
	delete(s.tickets.tickets, ticket)

	if time.Now().After(entry.expiresAt) {
		return auth.Principal{}, false
	}
	return entry.principal, true
}

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// cleanExpiredTickets removes expired tickets from the store.
func (s *Server) cleanExpiredTickets() {
	s.tickets.mu.Lock()
	defer s.tickets.mu.Unlock()

	now := time.Now()
	for ticket, entry := range s.tickets.tickets {
		if now.After(entry.expiresAt) {
			delete(s.tickets.tickets, ticket)
		}
	}
}

// cleanTicketsLoop runs cleanExpiredTickets periodically until the context is cancelled.
func (s *Server) cleanTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanExpiredTickets()
		}
	}
}
