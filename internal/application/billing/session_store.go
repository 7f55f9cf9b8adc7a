package billing

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/fieldbill/pkg/logger"
)

// SessionStore registro en memoria de las sesiones de edición abiertas.
// Las sesiones inactivas más de ttl se descartan (sin persistir nada).
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*EditingSession
	byReport map[string]string // reportID → sessionID
	now      func() time.Time
}

// NewSessionStore construye el registro.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*EditingSession),
		byReport: make(map[string]string),
		now:      time.Now,
	}
}

// Put registra la sesión (reemplaza cualquier otra abierta para el mismo reporte).
func (s *SessionStore) Put(session *EditingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byReport[session.ReportID()]; ok {
		delete(s.sessions, prev)
	}
	s.sessions[session.ID()] = session
	s.byReport[session.ReportID()] = session.ID()
}

// Get devuelve la sesión si existe y no ha expirado.
func (s *SessionStore) Get(id string) (*EditingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(session) {
		s.deleteLocked(session)
		return nil, false
	}
	return session, true
}

// GetByReport devuelve la sesión abierta para un reporte, si hay una vigente.
func (s *SessionStore) GetByReport(reportID string) (*EditingSession, bool) {
	s.mu.Lock()
	id, ok := s.byReport[reportID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return s.Get(id)
}

// Delete descarta la sesión.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		s.deleteLocked(session)
	}
}

// Len número de sesiones registradas (incluye expiradas aún no barridas).
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep elimina las sesiones expiradas y devuelve cuántas eliminó.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, session := range s.sessions {
		if s.expired(session) {
			s.deleteLocked(session)
			n++
		}
	}
	return n
}

// RunJanitor barre sesiones expiradas cada interval hasta que ctx se cancele.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Info().Int("expired", n).Msg("sesiones de edición descartadas por inactividad")
			}
		}
	}
}

// expired una sesión con envío en curso nunca expira; si el envío falla debe seguir disponible.
func (s *SessionStore) expired(session *EditingSession) bool {
	touched, submitting := session.idle()
	if submitting {
		return false
	}
	return s.now().Sub(touched) > s.ttl
}

func (s *SessionStore) deleteLocked(session *EditingSession) {
	delete(s.sessions, session.ID())
	if s.byReport[session.ReportID()] == session.ID() {
		delete(s.byReport, session.ReportID())
	}
}
