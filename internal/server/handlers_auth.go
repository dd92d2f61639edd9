package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/successapp/success/internal/session"
)

type loginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// handleLogin verifies a Google ID token, opens the user's session, and
// returns an app session token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken is required"})
		return
	}

	id, err := s.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity token"})
			return
		}
		s.log.Errorw("identity provider failure", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sign-in is unavailable right now. Please try again."})
		return
	}

	token, err := s.issuer.Issue(id)
	if err != nil {
		s.log.Errorw("failed to issue session token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start a session"})
		return
	}

	// Warm the session so subscriptions are live before the first data read
	s.registry.Resolve(id)
	s.log.Infow("user signed in", "user", id.ID)

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"identity": id,
		"label":    id.Label(),
	})
}

// handleLogout drops the live session and its subscriptions. The client
// discards its token; signed-out requests fall back to the guest session.
func (s *Server) handleLogout(c *gin.Context) {
	id := identityFrom(c)
	if id.SignedIn() {
		s.registry.Drop(id.ID)
		s.log.Infow("user signed out", "user", id.ID)
	}
	c.JSON(http.StatusOK, gin.H{"signedIn": false})
}

func (s *Server) handleMe(c *gin.Context) {
	id := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"signedIn": id.SignedIn(),
		"identity": id,
		"label":    id.Label(),
	})
}
