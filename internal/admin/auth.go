package admin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "admin_session"

var (
	errInvalidToken = errors.New("invalid token")
	errExpiredToken = errors.New("token expired")
)

// sessions issues and verifies HS256 signed operator session tokens.
type sessions struct {
	secret []byte
	ttl    time.Duration
}

func newSessions(secret string, ttl time.Duration) *sessions {
	return &sessions{secret: []byte(secret), ttl: ttl}
}

func (s *sessions) issue() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "operator",
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *sessions) verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errExpiredToken
		}
		return fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid {
		return errInvalidToken
	}
	return nil
}

// requireAuth admits requests carrying either the static API key header
// or a valid session cookie.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" && s.cfg.APIKey != "" && key == s.cfg.APIKey {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookie)
		if err == nil && s.sessions.verify(cookie.Value) == nil {
			next.ServeHTTP(w, r)
			return
		}

		Error(w, http.StatusUnauthorized, "unauthorized")
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

// handleLogin exchanges the operator password for a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.cfg.AdminPassword == "" || req.Password != s.cfg.AdminPassword {
		Error(w, http.StatusUnauthorized, "wrong password")
		return
	}

	token, err := s.sessions.issue()
	if err != nil {
		Error(w, http.StatusInternalServerError, "issue session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
