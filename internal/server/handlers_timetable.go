package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/successapp/success/internal/schedule"
	"github.com/successapp/success/internal/store"
)

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// timetable ensures the session's timetable store is on today and returns
// it. The timetable has no date picker; a session left open overnight rolls
// to the new day on the next request.
func (s *Server) timetable(c *gin.Context) *store.TimetableStore {
	sess := s.registry.Resolve(identityFrom(c))
	tt := sess.Timetable

	today := time.Now().Format("2006-01-02")
	if tt.Date() != today {
		if err := tt.SelectToday(); err != nil {
			s.log.Warnw("failed to roll timetable to today", "error", err)
		}
	}
	return tt
}

func timetablePayload(tt *store.TimetableStore) gin.H {
	snap := tt.Snapshot()
	progress := tt.Progress()
	return gin.H{
		"date":         tt.Date(),
		"blocks":       schedule.Blocks(),
		"done":         snap.Done,
		"compact":      snap.Compact,
		"currentBlock": tt.CurrentBlock(),
		"progress": gin.H{
			"percent":   progress.Percent,
			"done":      progress.Done,
			"total":     progress.Total,
			"remaining": progress.Remaining,
		},
	}
}

func (s *Server) handleGetTimetable(c *gin.Context) {
	c.JSON(http.StatusOK, timetablePayload(s.timetable(c)))
}

func (s *Server) handleToggleBlock(c *gin.Context) {
	tt := s.timetable(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block index"})
		return
	}

	err = tt.ToggleBlock(c.Request.Context(), index)
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to track your schedule"})
	case errors.Is(err, store.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block index"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, timetablePayload(tt))
	}
}

func (s *Server) handleMarkAllDone(c *gin.Context) {
	tt := s.timetable(c)

	if err := tt.MarkAllDone(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to track your schedule"})
		return
	}
	c.JSON(http.StatusOK, timetablePayload(tt))
}

// handleResetTimetable clears every checkmark. Resetting discards a day's
// progress, so the request must carry confirm:true.
func (s *Server) handleResetTimetable(c *gin.Context) {
	tt := s.timetable(c)

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset requires confirmation"})
		return
	}

	if err := tt.ResetAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to track your schedule"})
		return
	}
	c.JSON(http.StatusOK, timetablePayload(tt))
}

// handleToggleCompact flips the compact view. This works signed out: the
// flag flips on the guest session and is simply not persisted anywhere.
func (s *Server) handleToggleCompact(c *gin.Context) {
	tt := s.timetable(c)
	compact := tt.ToggleCompact(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"compact": compact})
}
