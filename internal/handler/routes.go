package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Sync      *SyncHandler
	Course    *CourseHandler
	Bunk      *BunkHandler
	Unknown   *UnknownHandler
	Timetable *TimetableHandler
	Export    *ExportHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers) {
	sync := group.Group("/sync")
	sync.GET("/status", h.Sync.Status)
	sync.POST("/refresh", h.Sync.Refresh)
	sync.POST("/reset", h.Sync.Reset)

	courses := group.Group("/courses")
	courses.GET("", h.Course.List)
	courses.POST("", h.Course.CreateCustom)
	courses.GET("/:courseId", h.Course.Get)
	courses.DELETE("/:courseId", h.Course.DeleteCustom)
	courses.PUT("/:courseId/config", h.Course.Configure)

	courses.POST("/:courseId/bunks", h.Bunk.Add)
	courses.DELETE("/:courseId/bunks/:bunkId", h.Bunk.Remove)
	courses.PUT("/:courseId/bunks/:bunkId/note", h.Bunk.Note)
	courses.PUT("/:courseId/bunks/:bunkId/duty-leave", h.Bunk.SetDutyLeave)
	courses.DELETE("/:courseId/bunks/:bunkId/duty-leave", h.Bunk.ClearDutyLeave)
	courses.PUT("/:courseId/bunks/:bunkId/presence", h.Bunk.SetPresent)
	courses.DELETE("/:courseId/bunks/:bunkId/presence", h.Bunk.ClearPresent)

	courses.GET("/:courseId/slots/suggested", h.Timetable.Suggested)
	courses.POST("/:courseId/slots", h.Timetable.AddSlot)
	courses.PUT("/:courseId/slots/:slotId", h.Timetable.UpdateSlot)
	courses.DELETE("/:courseId/slots/:slotId", h.Timetable.RemoveSlot)

	group.GET("/duty-leaves", h.Course.DutyLeaves)
	group.GET("/attendance/summary", h.Course.Summary)

	group.GET("/unknowns", h.Unknown.List)
	group.POST("/unknowns/resolve", h.Unknown.Resolve)

	timetable := group.Group("/timetable")
	timetable.GET("", h.Timetable.Get)
	timetable.POST("/generate", h.Timetable.Generate)
	timetable.POST("/conflicts/:index/resolve", h.Timetable.ResolveConflict)
	timetable.GET("/now", h.Timetable.Now)
	timetable.GET("/nearby", h.Timetable.Nearby)

	group.GET("/export/:dataset", h.Export.Export)

	group.GET("/system/metrics", h.Metrics.Snapshot)
}
