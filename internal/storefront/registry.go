package storefront

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	CookieName = "storefront"

	clientIDKey = "client_id"
	tokenKey    = "access_token"

	cookieMaxAge   = 30 * 24 * 60 * 60
	DefaultIdleTTL = 2 * time.Hour
)

// NewCookieStore returns the signed cookie store that carries the client id and access token.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// Registry maps browser cookies onto clients. Idle clients are evicted; the access token
// survives in the cookie so an evicted client resumes its session with an empty cart.
type Registry struct {
	svc     Services
	cookies sessions.Store
	idleTTL time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(svc Services, cookies sessions.Store, idleTTL time.Duration) *Registry {
	svc = svc.withDefaults()
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		svc:     svc,
		cookies: cookies,
		idleTTL: idleTTL,
		logger:  svc.Logger,
		clients: make(map[string]*Client),
	}
}

// Client returns the client bound to the request cookie, creating and booting one when the
// cookie is missing, unreadable or points at an evicted client.
func (g *Registry) Client(w http.ResponseWriter, r *http.Request) (*Client, error) {
	cookie, err := g.cookies.Get(r, CookieName)
	if err != nil {
		g.logger.Debug("client cookie unreadable, starting fresh", zap.Error(err))
	}
	id, _ := cookie.Values[clientIDKey].(string)

	g.mu.Lock()
	c, ok := g.clients[id]
	if !ok {
		if id == "" {
			id = uuid.NewString()
		}
		c = NewClient(id, g.svc)
		g.clients[id] = c
	}
	g.mu.Unlock()

	c.Touch()
	if ok {
		return c, nil
	}

	token, _ := cookie.Values[tokenKey].(string)
	c.Boot(r.Context(), token)
	cookie.Values[clientIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		return c, err
	}
	g.logger.Debug("client created", zap.String("client_id", id), zap.Bool("resumed", token != ""))
	return c, nil
}

// Persist writes the client's current access token into its cookie.
func (g *Registry) Persist(w http.ResponseWriter, r *http.Request, c *Client) error {
	cookie, _ := g.cookies.Get(r, CookieName)
	cookie.Values[clientIDKey] = c.ID()
	if token := c.Token(); token != "" {
		cookie.Values[tokenKey] = token
	} else {
		delete(cookie.Values, tokenKey)
	}
	return cookie.Save(r, w)
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// Evict drops clients idle since before now minus the idle TTL.
func (g *Registry) Evict(now time.Time) int {
	cutoff := now.Add(-g.idleTTL)
	var idle []*Client

	g.mu.Lock()
	for id, c := range g.clients {
		if c.LastSeen().Before(cutoff) {
			idle = append(idle, c)
			delete(g.clients, id)
		}
	}
	g.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		g.logger.Info("idle clients evicted", zap.Int("evicted", len(idle)), zap.Int("remaining", g.Len()))
	}
	return len(idle)
}

// Schedule registers periodic eviction on sched.
func (g *Registry) Schedule(sched *cron.Cron, spec string) (cron.EntryID, error) {
	return sched.AddFunc(spec, func() {
		g.Evict(g.svc.Now())
	})
}
