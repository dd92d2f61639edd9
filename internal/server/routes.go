package server

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.handleMe)

	tasks := api.Group("/tasks")
	tasks.GET("/:date", s.handleGetTasks)
	tasks.POST("/:date/:bucket", s.handleAddTask)
	tasks.PATCH("/:date/:bucket/:id/toggle", s.handleToggleTask)
	tasks.DELETE("/:date/:bucket/:id", s.handleDeleteTask)

	timetable := api.Group("/timetable")
	timetable.GET("", s.handleGetTimetable)
	timetable.POST("/blocks/:index/toggle", s.handleToggleBlock)
	timetable.POST("/done-all", s.handleMarkAllDone)
	timetable.POST("/reset", s.handleResetTimetable)
	timetable.POST("/compact", s.handleToggleCompact)

	gratitude := api.Group("/gratitude")
	gratitude.GET("/prompt", s.handleGratitudePrompt)
	gratitude.GET("/:date", s.handleGetGratitude)
	gratitude.POST("/:date", s.handleAddGratitude)
	gratitude.DELETE("/:date/:id", s.handleDeleteGratitude)

	stream := api.Group("/stream")
	stream.GET("/tasks/:date", s.handleStreamTasks)
	stream.GET("/gratitude/:date", s.handleStreamGratitude)
}
