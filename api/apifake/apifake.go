// Package apifake is an in-memory stand-in for the remote notes API, used by
// tests and local demos. It mirrors the API's contract, including the
// server-side role and plan checks, and records every call it serves.
package apifake

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/users"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultFreeNoteLimit is the server side note quota of a free tenant
	DefaultFreeNoteLimit = 3

	tokenTTL = 24 * time.Hour
)

type tenantRecord struct {
	id   string
	slug string
	plan users.PlanType
}

type userRecord struct {
	id           string
	email        string
	passwordHash string
	role         users.RoleType
	tenantSlug   string
}

type noteRecord struct {
	api.BackendNote
	tenantSlug string
}

type failure struct {
	status int
	body   api.ErrorBody
}

// Server implements http.Handler for the notes API routes.
type Server struct {
	router        *mux.Router
	secret        []byte
	freeNoteLimit int
	nowTime       func() time.Time

	lock       sync.RWMutex
	tenants    map[string]*tenantRecord // by slug
	users      map[string]*userRecord   // by email
	notes      map[string]*noteRecord   // by id
	calls      map[string]int           // by "METHOD /route/template"
	failures   map[string][]failure
	lastUpdate time.Time
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithNowTime sets the clock used for note timestamps and tokens
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithFreeNoteLimit changes the server side quota of free tenants
func WithFreeNoteLimit(limit int) Option {
	return func(s *Server) {
		s.freeNoteLimit = limit
	}
}

// WithSecret sets the HS256 key used to sign tokens
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func New(options ...Option) *Server {
	s := &Server{
		secret:        []byte(uuid.New().String()),
		freeNoteLimit: DefaultFreeNoteLimit,
		nowTime:       time.Now,
		tenants:       make(map[string]*tenantRecord),
		users:         make(map[string]*userRecord),
		notes:         make(map[string]*noteRecord),
		calls:         make(map[string]int),
		failures:      make(map[string][]failure),
	}
	for _, opt := range options {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddTenant registers a tenant and returns its id.
func (s *Server) AddTenant(slug string, plan users.PlanType) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	if t, ok := s.tenants[slug]; ok {
		t.plan = plan
		return t.id
	}
	t := &tenantRecord{id: uuid.New().String(), slug: slug, plan: plan}
	s.tenants[slug] = t
	return t.id
}

// AddUser registers a user in an existing tenant and returns its id.
func (s *Server) AddUser(email, password string, role users.RoleType, tenantSlug string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.tenants[tenantSlug]; !ok {
		return "", errUnknownTenant
	}
	u := &userRecord{
		id:           uuid.New().String(),
		email:        email,
		passwordHash: string(hash),
		role:         role,
		tenantSlug:   tenantSlug,
	}
	s.users[email] = u
	return u.id, nil
}

// AddNote stores a note directly, bypassing quota checks.
func (s *Server) AddNote(tenantSlug, title, content string) api.BackendNote {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.insertNote(tenantSlug, "", title, content).BackendNote
}

// Notes returns the tenant's notes, most recently updated first.
func (s *Server) Notes(tenantSlug string) []api.BackendNote {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.tenantNotes(tenantSlug)
}

// Plan returns the tenant's current plan.
func (s *Server) Plan(tenantSlug string) users.PlanType {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if t, ok := s.tenants[tenantSlug]; ok {
		return t.plan
	}
	return ""
}

// Calls returns how often a route was hit, keyed by method and route
// template, e.g. Calls("POST", "/notes").
func (s *Server) Calls(method, route string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.calls[method+" "+route]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// FailNext makes the next call to the route respond with status and body.
func (s *Server) FailNext(method, route string, status int, body api.ErrorBody) {
	s.lock.Lock()
	defer s.lock.Unlock()
	key := method + " " + route
	s.failures[key] = append(s.failures[key], failure{status: status, body: body})
}

// insertNote is called with the lock held.
func (s *Server) insertNote(tenantSlug, authorID, title, content string) *noteRecord {
	now := s.nextTimestamp()
	n := &noteRecord{
		BackendNote: api.BackendNote{
			ID:        uuid.New().String(),
			Title:     title,
			Content:   content,
			TenantID:  s.tenants[tenantSlug].id,
			AuthorID:  authorID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		tenantSlug: tenantSlug,
	}
	s.notes[n.ID] = n
	return n
}

// nextTimestamp returns a time strictly after every timestamp handed out
// so far. Called with the lock held.
func (s *Server) nextTimestamp() time.Time {
	now := s.nowTime().UTC()
	if !now.After(s.lastUpdate) {
		now = s.lastUpdate.Add(time.Millisecond)
	}
	s.lastUpdate = now
	return now
}

// tenantNotes is called with the lock held.
func (s *Server) tenantNotes(tenantSlug string) []api.BackendNote {
	list := make([]api.BackendNote, 0)
	for _, n := range s.notes {
		if n.tenantSlug == tenantSlug {
			list = append(list, n.BackendNote)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list
}
