package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aulago/backend/internal/model"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	resp := make([]userSummary, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserSummary(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

type toggleStatusRequest struct {
	Active bool `json:"isActive"`
}

func (s *Server) handleToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	var req toggleStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	user, err := s.store.SetUserActive(r.Context(), chi.URLParam(r, "userID"), req.Active)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserSummary(user))
}

func (s *Server) handleAdminCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListAllCourses(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

func (s *Server) handlePendingCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListCoursesByStatus(r.Context(), model.CoursePendingReview)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

func (s *Server) handleApproveCourse(w http.ResponseWriter, r *http.Request) {
	s.reviewCourse(w, r, model.CoursePublished)
}

func (s *Server) handleRejectCourse(w http.ResponseWriter, r *http.Request) {
	s.reviewCourse(w, r, model.CourseRejected)
}

func (s *Server) reviewCourse(w http.ResponseWriter, r *http.Request, status model.CourseStatus) {
	course, err := s.store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	if course.Status != model.CoursePendingReview {
		writeError(w, http.StatusConflict, "not_pending_review")
		return
	}

	updated, err := s.store.SetCourseStatus(r.Context(), course.ID, status)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(updated))
}

type statsResponse struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalCourses     int64   `json:"totalCourses"`
	TotalEnrollments int64   `json:"totalEnrollments"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetPlatformStats(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:       stats.TotalUsers,
		TotalCourses:     stats.TotalCourses,
		TotalEnrollments: stats.TotalEnrollments,
		TotalRevenue:     stats.TotalRevenue,
	})
}
