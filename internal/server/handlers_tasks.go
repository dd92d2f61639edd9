package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/successapp/success/internal/store"
	"github.com/successapp/success/pkg/docstore"
)

type addTaskRequest struct {
	Text string `json:"text"`
}

// taskList ensures the session's task store is on the requested date and
// returns it. Responds 400 itself when the date is malformed.
func (s *Server) taskList(c *gin.Context) (*store.TaskStore, bool) {
	sess := s.registry.Resolve(identityFrom(c))
	st := sess.Tasks

	date := c.Param("date")
	if st.Date() != date {
		if err := st.SelectDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return nil, false
		}
	}
	return st, true
}

func taskPayload(st *store.TaskStore) gin.H {
	snap := st.Snapshot()
	return gin.H{
		"date":   st.Date(),
		"signal": snap.Signal,
		"noise":  snap.Noise,
	}
}

func (s *Server) handleGetTasks(c *gin.Context) {
	st, ok := s.taskList(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, taskPayload(st))
}

func (s *Server) handleAddTask(c *gin.Context) {
	st, ok := s.taskList(c)
	if !ok {
		return
	}

	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := st.AddTask(c.Request.Context(), docstore.Bucket(c.Param("bucket")), req.Text)
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to save your tasks"})
	case errors.Is(err, store.ErrEmptyText):
		c.Status(http.StatusNoContent)
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, gin.H{"task": task})
	}
}

func (s *Server) handleToggleTask(c *gin.Context) {
	st, ok := s.taskList(c)
	if !ok {
		return
	}

	err := st.ToggleTask(c.Request.Context(), docstore.Bucket(c.Param("bucket")), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to save your tasks"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, taskPayload(st))
	}
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	st, ok := s.taskList(c)
	if !ok {
		return
	}

	err := st.DeleteTask(c.Request.Context(), docstore.Bucket(c.Param("bucket")), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to save your tasks"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, taskPayload(st))
	}
}
