package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/handler"
)

type routeHandlers struct {
	sessions  *handler.SessionHandler
	timetable *handler.TimetableHandler
	workload  *handler.WorkloadHandler
	exports   *handler.ExportHandler
	roster    *handler.RosterHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers) {
	api.POST("/sessions", h.sessions.Create)

	session := api.Group("/sessions/:id")
	session.GET("", h.sessions.Get)
	session.DELETE("", h.sessions.Delete)
	session.PUT("/timing", h.sessions.UpdateTiming)
	session.GET("/grid", h.sessions.Grid)

	session.PUT("/timetable", h.timetable.Load)
	session.GET("/timetable", h.timetable.Snapshot)
	session.GET("/entities", h.timetable.Entities)
	session.GET("/views/:mode", h.timetable.View)
	session.GET("/cell", h.timetable.Cell)
	session.GET("/rooms/free", h.timetable.FreeRooms)
	session.POST("/entries", h.timetable.AddEntry)
	session.DELETE("/entries", h.timetable.DeleteEntry)
	session.GET("/audit", h.timetable.Audit)
	session.POST("/audit/:entryId/revert", h.timetable.Revert)

	session.GET("/workload", h.workload.Get)
	session.DELETE("/workload", h.workload.Clear)
	session.GET("/workload/options", h.workload.Options)
	session.POST("/workload/auto-assign", h.workload.AutoAssign)
	session.PUT("/workload/preferences", h.workload.SetPreference)
	session.GET("/workload/allocations", h.workload.Allocations)
	session.PUT("/workload/allocations", h.workload.Rehydrate)

	session.GET("/export", h.exports.Export)
	session.POST("/exports", h.exports.CreateJob)

	api.GET("/exports/:jobId", h.exports.Status)
	api.GET("/exports/download/:token", h.exports.Download)

	roster := api.Group("/roster")
	roster.GET("/faculty", h.roster.Faculty)
	roster.GET("/rooms", h.roster.Rooms)
}
