package apifake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
	"golang.org/x/crypto/bcrypt"
)

var errUnknownTenant = errors.New("unknown tenant")

type contextKey string

const contextKeyUser contextKey = "user"

func (s *Server) initRoutes() {
	r := mux.NewRouter()
	r.Use(s.recordCall, s.injectFailure)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/notes", s.handleListNotes).Methods(http.MethodGet)
	authed.HandleFunc("/notes", s.handleCreateNote).Methods(http.MethodPost)
	authed.HandleFunc("/notes/{id}", s.handleUpdateNote).Methods(http.MethodPut)
	authed.HandleFunc("/notes/{id}", s.handleDeleteNote).Methods(http.MethodDelete)
	authed.HandleFunc("/users", s.handleListMembers).Methods(http.MethodGet)
	authed.HandleFunc("/tenants/{tenant}/invite", s.handleInvite).Methods(http.MethodPost)
	authed.HandleFunc("/tenants/{tenant}/upgrade", s.handleUpgrade).Methods(http.MethodPost)

	s.router = r
}

func routeKey(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.Method + " " + r.URL.Path
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return r.Method + " " + r.URL.Path
	}
	return r.Method + " " + tmpl
}

func (s *Server) recordCall(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.calls[routeKey(r)]++
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r)
		s.lock.Lock()
		queued := s.failures[key]
		var f *failure
		if len(queued) > 0 {
			f = &queued[0]
			s.failures[key] = queued[1:]
		}
		s.lock.Unlock()

		if f != nil {
			writeJSON(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth validates the Bearer token and injects the caller.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		user, err := s.userFromToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func caller(r *http.Request) userRecord {
	return r.Context().Value(contextKeyUser).(userRecord)
}

// IssueToken signs a token for email, as a successful login would.
func (s *Server) IssueToken(email string) (string, error) {
	s.lock.RLock()
	u, ok := s.users[email]
	s.lock.RUnlock()
	if !ok {
		return "", errors.New("unknown user")
	}
	now := s.nowTime()
	claims := jwtlib.MapClaims{
		"sub":    u.id,
		"email":  u.email,
		"tenant": u.tenantSlug,
		"role":   string(u.role),
		"iat":    now.Unix(),
		"exp":    now.Add(tokenTTL).Unix(),
		"jti":    uuid.New().String(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) userFromToken(raw string) (userRecord, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(s.nowTime))
	if err != nil {
		return userRecord{}, err
	}
	email, _ := claims["email"].(string)

	s.lock.RLock()
	defer s.lock.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return userRecord{}, errors.New("user no longer exists")
	}
	return *u, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.lock.RLock()
	u, ok := s.users[req.Email]
	var (
		user   userRecord
		tenant tenantRecord
	)
	if ok {
		user, tenant = *u, *s.tenants[u.tenantSlug]
	}
	s.lock.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.IssueToken(user.email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{
		Token: token,
		User: api.LoginUser{
			ID:    user.id,
			Email: user.email,
			Role:  user.role,
			Tenant: tenants.Tenant{
				ID:   tenant.id,
				Slug: tenant.slug,
				Plan: tenant.plan,
			},
		},
	})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	s.lock.RLock()
	list := s.tenantNotes(u.tenantSlug)
	s.lock.RUnlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	var body api.NoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.tenants[u.tenantSlug].plan == users.PlanFree && len(s.tenantNotes(u.tenantSlug)) >= s.freeNoteLimit {
		writeError(w, http.StatusForbidden, "Note limit reached. Upgrade to Pro.")
		return
	}
	n := s.insertNote(u.tenantSlug, u.id, body.Title, body.Content)
	writeJSON(w, http.StatusCreated, n.BackendNote)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	id := mux.Vars(r)["id"]
	var body api.NoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	n, ok := s.notes[id]
	if !ok || n.tenantSlug != u.tenantSlug {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	n.Title = body.Title
	n.Content = body.Content
	n.UpdatedAt = s.nextTimestamp()
	writeJSON(w, http.StatusOK, n.BackendNote)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	id := mux.Vars(r)["id"]

	s.lock.Lock()
	defer s.lock.Unlock()

	n, ok := s.notes[id]
	if !ok || n.tenantSlug != u.tenantSlug {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	delete(s.notes, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	u := caller(r)

	s.lock.RLock()
	members := make([]tenants.Member, 0)
	for _, m := range s.users {
		if m.tenantSlug == u.tenantSlug {
			members = append(members, tenants.Member{
				ID:       m.id,
				Email:    m.email,
				Role:     m.role,
				TenantID: s.tenants[m.tenantSlug].id,
			})
		}
	}
	s.lock.RUnlock()

	sortMembers(members)
	writeJSON(w, http.StatusOK, api.MembersResponse{Users: members})
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	slug := mux.Vars(r)["tenant"]
	if u.role != users.RoleAdmin || u.tenantSlug != slug {
		writeJSON(w, http.StatusForbidden, api.ErrorBody{Error: "Only admins can invite users"})
		return
	}

	var req tenants.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || !req.Role.Valid() {
		writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: "Email and a valid role are required"})
		return
	}

	s.lock.RLock()
	_, exists := s.users[req.Email]
	s.lock.RUnlock()
	if exists {
		writeJSON(w, http.StatusConflict, api.ErrorBody{Error: "User already exists"})
		return
	}

	// Invited users sign in with the default password until they change it.
	id, err := s.AddUser(req.Email, "password", req.Role, slug)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.ErrorBody{Error: err.Error()})
		return
	}

	s.lock.RLock()
	tenantID := s.tenants[slug].id
	s.lock.RUnlock()
	writeJSON(w, http.StatusCreated, tenants.InviteReceipt{
		Message: "User invited",
		Member:  &tenants.Member{ID: id, Email: req.Email, Role: req.Role, TenantID: tenantID},
	})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	slug := mux.Vars(r)["tenant"]
	if u.role != users.RoleAdmin || u.tenantSlug != slug {
		writeError(w, http.StatusForbidden, "Only admins can upgrade the plan")
		return
	}

	s.lock.Lock()
	t := s.tenants[slug]
	t.plan = users.PlanPro
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, api.UpgradeResponse{Plan: users.PlanPro})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sortMembers(members []tenants.Member) {
	sort.Slice(members, func(i, j int) bool {
		return members[i].Email < members[j].Email
	})
}
