package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	studentsHandler := handlers.NewStudentsHandler(s.deps.Students, s.deps.Enroller)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Extractor, s.deps.Matcher, s.deps.Ledger, s.deps.Records)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Students
		r.Post("/students", studentsHandler.Register)
		r.Get("/students", studentsHandler.List)
		r.Post("/students/{rollNumber}/enroll", studentsHandler.Enroll)

		// Attendance
		r.Post("/attendance", attendanceHandler.Process)
		r.Get("/attendance", attendanceHandler.List)
	})
}
