package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/successapp/success/internal/store"
)

type addGratitudeRequest struct {
	Text string `json:"text"`
}

// journal ensures the session's gratitude store is on the requested date and
// returns it. Reads work signed out: the guest session serves whatever the
// local cache holds.
func (s *Server) journal(c *gin.Context) (*store.GratitudeStore, bool) {
	sess := s.registry.Resolve(identityFrom(c))
	g := sess.Gratitude

	date := c.Param("date")
	if g.Date() != date {
		if err := g.SelectDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return nil, false
		}
	}
	return g, true
}

func gratitudePayload(g *store.GratitudeStore) gin.H {
	return gin.H{
		"date":    g.Date(),
		"prompt":  g.CurrentPrompt(),
		"entries": g.Snapshot(),
	}
}

func (s *Server) handleGetGratitude(c *gin.Context) {
	g, ok := s.journal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gratitudePayload(g))
}

func (s *Server) handleAddGratitude(c *gin.Context) {
	g, ok := s.journal(c)
	if !ok {
		return
	}

	var req addGratitudeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := g.AddEntry(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to save your journal"})
	case errors.Is(err, store.ErrEmptyText):
		c.Status(http.StatusNoContent)
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"entry":  entry,
			"prompt": g.CurrentPrompt(),
		})
	}
}

func (s *Server) handleDeleteGratitude(c *gin.Context) {
	g, ok := s.journal(c)
	if !ok {
		return
	}

	if err := g.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gratitudePayload(g))
}

func (s *Server) handleGratitudePrompt(c *gin.Context) {
	sess := s.registry.Resolve(identityFrom(c))
	c.JSON(http.StatusOK, gin.H{"prompt": sess.Gratitude.CurrentPrompt()})
}
