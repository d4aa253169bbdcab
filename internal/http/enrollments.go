package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aulago/backend/internal/certificates"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
)

type enrollmentResponse struct {
	ID                 string   `json:"id"`
	StudentID          string   `json:"studentId"`
	CourseID           string   `json:"courseId"`
	AmountPaid         float64  `json:"amountPaid"`
	Currency           string   `json:"currency"`
	PaymentID          string   `json:"paymentId"`
	Status             string   `json:"status"`
	EnrolledAt         int64    `json:"enrolledAt"`
	CompletedAt        *int64   `json:"completedAt,omitempty"`
	ProgressPercentage int      `json:"progressPercentage"`
	CompletedLessonIDs []string `json:"completedLessonIds"`
}

func toEnrollmentResponse(enrollment model.Enrollment) enrollmentResponse {
	resp := enrollmentResponse{
		ID:                 enrollment.ID,
		StudentID:          enrollment.StudentID,
		CourseID:           enrollment.CourseID,
		AmountPaid:         enrollment.AmountPaid,
		Currency:           enrollment.Currency,
		PaymentID:          enrollment.PaymentID,
		Status:             string(enrollment.Status),
		EnrolledAt:         enrollment.EnrolledAt.Unix(),
		ProgressPercentage: enrollment.ProgressPercentage,
		CompletedLessonIDs: enrollment.CompletedLessonIDs,
	}
	if resp.CompletedLessonIDs == nil {
		resp.CompletedLessonIDs = []string{}
	}
	if enrollment.CompletedAt != nil {
		completed := enrollment.CompletedAt.Unix()
		resp.CompletedAt = &completed
	}
	return resp
}

type enrollRequest struct {
	CourseID string `json:"courseId"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	course, err := s.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		storeError(w, err)
		return
	}

	enrolled, err := s.store.ExistsEnrollment(r.Context(), principal.UserID, course.ID)
	if err != nil {
		storeError(w, err)
		return
	}
	if enrolled {
		writeError(w, http.StatusConflict, "already_enrolled")
		return
	}

	enrollment := model.Enrollment{
		ID:                 uuid.NewString(),
		StudentID:          principal.UserID,
		CourseID:           course.ID,
		AmountPaid:         course.Price,
		Currency:           course.Currency,
		PaymentID:          fmt.Sprintf("PAY-%d", time.Now().UnixMilli()),
		Status:             model.EnrollmentActive,
		EnrolledAt:         time.Now().UTC(),
		CompletedLessonIDs: []string{},
	}
	if err := s.store.CreateEnrollment(r.Context(), enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusConflict, "already_enrolled")
			return
		}
		storeError(w, err)
		return
	}
	if err := s.store.IncrementEnrolledStudents(r.Context(), course.ID); err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

func (s *Server) handleMyEnrollments(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	enrollments, err := s.store.ListEnrollmentsByStudent(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	resp := make([]enrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		resp = append(resp, toEnrollmentResponse(enrollment))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrolledCourses(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courses, err := s.store.ListCoursesByStudent(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	enrollment, err := s.store.GetEnrollment(r.Context(), principal.UserID, chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

func (s *Server) handleIsEnrolled(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	enrolled, err := s.store.ExistsEnrollment(r.Context(), principal.UserID, chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enrolled": enrolled})
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")
	lessonID := chi.URLParam(r, "lessonID")

	enrollment, err := s.store.GetEnrollment(r.Context(), principal.UserID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusConflict, "not_enrolled")
			return
		}
		storeError(w, err)
		return
	}

	done := false
	for _, id := range enrollment.CompletedLessonIDs {
		if id == lessonID {
			done = true
			break
		}
	}
	if !done {
		enrollment.CompletedLessonIDs = append(enrollment.CompletedLessonIDs, lessonID)
	}

	total, err := s.store.CountLessons(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if total > 0 {
		progress := len(enrollment.CompletedLessonIDs) * 100 / total
		if progress > 100 {
			progress = 100
		}
		enrollment.ProgressPercentage = progress
		if progress >= 100 && enrollment.CompletedAt == nil {
			now := time.Now().UTC()
			enrollment.CompletedAt = &now
			enrollment.Status = model.EnrollmentCompleted
		}
	}

	if err := s.store.UpdateEnrollmentProgress(r.Context(), enrollment); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

func (s *Server) handleDownloadCertificate(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	enrollment, err := s.store.GetEnrollment(r.Context(), principal.UserID, courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if enrollment.Status != model.EnrollmentCompleted || enrollment.CompletedAt == nil {
		writeError(w, http.StatusConflict, "course_not_completed")
		return
	}

	course, err := s.store.GetCourse(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	student, err := s.store.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	teacher, err := s.store.GetUserByID(r.Context(), course.TeacherID)
	if err != nil {
		storeError(w, err)
		return
	}

	pdf, err := certificates.Generate(student, course, teacher, *enrollment.CompletedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "certificate_error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="certificate.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
