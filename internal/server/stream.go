package server

import (
	"io"

	"github.com/gin-gonic/gin"
)

// handleStreamTasks pushes a task snapshot over SSE whenever the store
// changes, starting with the current state. The stream ends when the client
// disconnects.
func (s *Server) handleStreamTasks(c *gin.Context) {
	st, ok := s.taskList(c)
	if !ok {
		return
	}

	changes, cancel := st.Changes()
	defer cancel()

	c.SSEvent("snapshot", taskPayload(st))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case _, open := <-changes:
			if !open {
				return false
			}
			c.SSEvent("snapshot", taskPayload(st))
			return true
		}
	})
}

// handleStreamGratitude is the journal's SSE feed: a new snapshot per store
// change, so a remote write from another device shows up without polling.
func (s *Server) handleStreamGratitude(c *gin.Context) {
	g, ok := s.journal(c)
	if !ok {
		return
	}

	changes, cancel := g.Changes()
	defer cancel()

	c.SSEvent("snapshot", gratitudePayload(g))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case _, open := <-changes:
			if !open {
				return false
			}
			c.SSEvent("snapshot", gratitudePayload(g))
			return true
		}
	})
}
