package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Spok95/lapor-jamkos/internal/auth"
	"github.com/Spok95/lapor-jamkos/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	Role          string     `json:"role,omitempty"`
	RoleLabel     string     `json:"role_label,omitempty"`
	Expires       *time.Time `json:"expires,omitempty"`
	Token         string     `json:"token,omitempty"`
}

func newSessionView(sess models.Session) sessionView {
	return sessionView{
		Authenticated: true,
		Email:         sess.Email,
		Role:          string(sess.Role),
		RoleLabel:     sess.Role.Label(),
		Expires:       &sess.Expires,
	}
}

func (s *Server) signIn(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	tok, sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(c, err, msgGeneric)
		return
	}
	s.setSessionCookie(c, tok, int(s.cfg.SessionTTL.Seconds()))
	v := newSessionView(sess)
	v.Token = tok
	c.JSON(http.StatusOK, v)
}

func (s *Server) signOut(c *gin.Context) {
	if tok := auth.TokenFromRequest(c); tok != "" {
		if err := s.auth.Revoke(tok); err != nil {
			s.log.Debug("sign out: token not revoked", zap.Error(err))
		}
	}
	s.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// session: булева проверка сессии для клиента; без сессии не 401, а authenticated=false.
func (s *Server) session(c *gin.Context) {
	tok := auth.TokenFromRequest(c)
	if tok == "" {
		c.JSON(http.StatusOK, sessionView{})
		return
	}
	sess, err := s.auth.Verify(tok)
	if err != nil {
		c.JSON(http.StatusOK, sessionView{})
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", s.cfg.SecureCookies, true)
}
