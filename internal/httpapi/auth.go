package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/internal/auth"
)

const sessionName = "sprinklerd_session"

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	hash := s.eng.SOpts[controller.SOptPassword]
	s.mu.Unlock()

	if !auth.Verify(hash, body.Password) {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}

	session, _ := s.sess.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sess.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sess.Get(r, sessionName)
		if err != nil {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		if ok, _ := session.Values["authenticated"].(bool); !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
