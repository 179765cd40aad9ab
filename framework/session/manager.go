package session

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/config"
)

// Manager starts sessions for incoming requests.
type Manager struct {
	cfg    config.SessionConfig
	store  Store
	logger *zap.Logger
}

// NewManager creates a Manager. A nil store defaults to a MemoryStore
// honouring cfg.Lifetime.
func NewManager(cfg config.SessionConfig, store Store, logger *zap.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore(cfg.Lifetime)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, store: store, logger: logger}
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// Load returns the session named by the request cookie, or a fresh one.
func (m *Manager) Load(r *http.Request) *Session {
	if c, err := r.Cookie(m.cfg.Cookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			if data, ok := m.store.Load(c.Value); ok {
				return newSession(c.Value, data)
			}
		}
	}
	return newSession(uuid.NewString(), nil)
}

// Start is middleware that attaches a session to the request context,
// sets the session cookie and saves the session after the handler returns.
func (m *Manager) Start(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)

		http.SetCookie(w, &http.Cookie{
			Name:     m.cfg.Cookie,
			Value:    s.ID(),
			Path:     "/",
			MaxAge:   int(m.cfg.Lifetime.Seconds()),
			HttpOnly: true,
			Secure:   m.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))

		m.persist(s)
	})
}

func (m *Manager) persist(s *Session) {
	data, destroyed := s.snapshot()
	var err error
	if destroyed {
		err = m.store.Delete(s.ID())
	} else {
		// saving unchanged sessions keeps their idle timer fresh
		err = m.store.Save(s.ID(), data)
	}
	if err != nil {
		m.logger.Error("session: persist failed", zap.String("id", s.ID()), zap.Error(err))
	}
}
