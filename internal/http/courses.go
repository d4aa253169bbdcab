package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aulago/backend/internal/authz"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
)

type courseResponse struct {
	ID                 string   `json:"id"`
	TeacherID          string   `json:"teacherId"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ShortDescription   string   `json:"shortDescription"`
	Category           string   `json:"category"`
	Level              string   `json:"level"`
	Language           string   `json:"language"`
	Price              float64  `json:"price"`
	Currency           string   `json:"currency"`
	Thumbnail          *string  `json:"thumbnail,omitempty"`
	PreviewVideo       *string  `json:"previewVideo,omitempty"`
	LearningObjectives []string `json:"learningObjectives"`
	Requirements       []string `json:"requirements"`
	Tags               []string `json:"tags"`
	EnrolledStudents   int      `json:"enrolledStudents"`
	Rating             float64  `json:"rating"`
	TotalReviews       int      `json:"totalReviews"`
	Status             string   `json:"status"`
	HasCertificate     bool     `json:"hasCertificate"`
	HasLiveClasses     bool     `json:"hasLiveClasses"`
	CreatedAt          int64    `json:"createdAt"`
}

func toCourseResponse(course model.Course) courseResponse {
	return courseResponse{
		ID:                 course.ID,
		TeacherID:          course.TeacherID,
		Title:              course.Title,
		Description:        course.Description,
		ShortDescription:   course.ShortDescription,
		Category:           course.Category,
		Level:              course.Level,
		Language:           course.Language,
		Price:              course.Price,
		Currency:           course.Currency,
		Thumbnail:          course.Thumbnail,
		PreviewVideo:       course.PreviewVideo,
		LearningObjectives: course.LearningObjectives,
		Requirements:       course.Requirements,
		Tags:               course.Tags,
		EnrolledStudents:   course.EnrolledStudents,
		Rating:             course.Rating,
		TotalReviews:       course.TotalReviews,
		Status:             string(course.Status),
		HasCertificate:     course.HasCertificate,
		HasLiveClasses:     course.HasLiveClasses,
		CreatedAt:          course.CreatedAt.Unix(),
	}
}

func toCourseResponses(courses []model.Course) []courseResponse {
	resp := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, toCourseResponse(course))
	}
	return resp
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	filters := repository.CourseFilters{
		Category: r.URL.Query().Get("category"),
		Level:    r.URL.Query().Get("level"),
		Search:   r.URL.Query().Get("search"),
		Limit:    100,
	}
	if raw := r.URL.Query().Get("minPrice"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinPrice = &parsed
		}
	}
	if raw := r.URL.Query().Get("maxPrice"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MaxPrice = &parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filters.Limit = parsed
		}
	}

	courses, err := s.store.ListPublishedCourses(r.Context(), filters)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

func (s *Server) handleFeaturedCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListFeaturedCourses(r.Context(), 8)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

// courseDetailResponse is the single-course view: the catalog fields plus the
// full curriculum, sections in position order with their lessons.
type courseDetailResponse struct {
	courseResponse
	Sections []sectionDetail `json:"sections"`
}

type sectionDetail struct {
	sectionResponse
	Lessons []lessonResponse `json:"lessons"`
}

func (s *Server) courseDetail(ctx context.Context, course model.Course) (courseDetailResponse, error) {
	detail := courseDetailResponse{
		courseResponse: toCourseResponse(course),
		Sections:       []sectionDetail{},
	}
	sections, err := s.store.ListSections(ctx, course.ID)
	if err != nil {
		return detail, err
	}
	for _, section := range sections {
		entry := sectionDetail{
			sectionResponse: sectionResponse{
				ID:       section.ID,
				CourseID: section.CourseID,
				Title:    section.Title,
				Position: section.Position,
			},
			Lessons: []lessonResponse{},
		}
		lessons, err := s.store.ListLessons(ctx, section.ID)
		if err != nil {
			return detail, err
		}
		for _, lesson := range lessons {
			entry.Lessons = append(entry.Lessons, lessonResponse{
				ID:         lesson.ID,
				SectionID:  lesson.SectionID,
				Title:      lesson.Title,
				ContentURL: lesson.ContentURL,
				Duration:   lesson.Duration,
				Position:   lesson.Position,
			})
		}
		detail.Sections = append(detail.Sections, entry)
	}
	return detail, nil
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	detail, err := s.courseDetail(r.Context(), course)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleTeacherCourse serves the teacher's own course with its curriculum, in
// any review status, unlike the public detail route.
func (s *Server) handleTeacherCourse(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	course, err := s.store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, course.TeacherID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	detail, err := s.courseDetail(r.Context(), course)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type createCourseRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	ShortDescription   string   `json:"shortDescription"`
	Category           string   `json:"category"`
	Level              string   `json:"level"`
	Language           string   `json:"language"`
	Price              float64  `json:"price"`
	Currency           string   `json:"currency"`
	LearningObjectives []string `json:"learningObjectives"`
	Requirements       []string `json:"requirements"`
	Tags               []string `json:"tags"`
	HasCertificate     bool     `json:"hasCertificate"`
	HasLiveClasses     bool     `json:"hasLiveClasses"`
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())

	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}
	if req.Currency == "" {
		req.Currency = "PEN"
	}

	now := time.Now().UTC()
	course := model.Course{
		ID:                 uuid.NewString(),
		TeacherID:          principal.UserID,
		Title:              req.Title,
		Description:        req.Description,
		ShortDescription:   req.ShortDescription,
		Category:           req.Category,
		Level:              req.Level,
		Language:           req.Language,
		Price:              req.Price,
		Currency:           req.Currency,
		LearningObjectives: req.LearningObjectives,
		Requirements:       req.Requirements,
		Tags:               req.Tags,
		Status:             model.CoursePendingReview,
		HasCertificate:     req.HasCertificate,
		HasLiveClasses:     req.HasLiveClasses,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if course.LearningObjectives == nil {
		course.LearningObjectives = []string{}
	}
	if course.Requirements == nil {
		course.Requirements = []string{}
	}
	if course.Tags == nil {
		course.Tags = []string{}
	}

	if err := s.store.CreateCourse(r.Context(), course); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(course))
}

func (s *Server) handleMyCourses(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courses, err := s.store.ListCoursesByTeacher(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponses(courses))
}

type updateCourseRequest struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	ShortDescription   *string   `json:"shortDescription"`
	Category           *string   `json:"category"`
	Level              *string   `json:"level"`
	Language           *string   `json:"language"`
	Price              *float64  `json:"price"`
	Currency           *string   `json:"currency"`
	Thumbnail          *string   `json:"thumbnail"`
	PreviewVideo       *string   `json:"previewVideo"`
	LearningObjectives *[]string `json:"learningObjectives"`
	Requirements       *[]string `json:"requirements"`
	Tags               *[]string `json:"tags"`
	HasCertificate     *bool     `json:"hasCertificate"`
	HasLiveClasses     *bool     `json:"hasLiveClasses"`
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	course, err := s.store.GetCourse(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	// Only the teacher who owns this course may edit it.
	if err := authz.RequireOwner(principal, course.TeacherID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req updateCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	applyCoursePatch(&course, req)

	updated, err := s.store.UpdateCourse(r.Context(), course)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCourseResponse(updated))
}

func applyCoursePatch(course *model.Course, req updateCourseRequest) {
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.ShortDescription != nil {
		course.ShortDescription = *req.ShortDescription
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Language != nil {
		course.Language = *req.Language
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Currency != nil {
		course.Currency = *req.Currency
	}
	if req.Thumbnail != nil {
		course.Thumbnail = req.Thumbnail
	}
	if req.PreviewVideo != nil {
		course.PreviewVideo = req.PreviewVideo
	}
	if req.LearningObjectives != nil {
		course.LearningObjectives = *req.LearningObjectives
	}
	if req.Requirements != nil {
		course.Requirements = *req.Requirements
	}
	if req.Tags != nil {
		course.Tags = *req.Tags
	}
	if req.HasCertificate != nil {
		course.HasCertificate = *req.HasCertificate
	}
	if req.HasLiveClasses != nil {
		course.HasLiveClasses = *req.HasLiveClasses
	}
}

func (s *Server) handleCourseStudents(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	ownerID, err := s.store.CourseOwner(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	students, err := s.store.ListStudentsByCourse(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	resp := make([]userSummary, 0, len(students))
	for _, student := range students {
		resp = append(resp, toUserSummary(student))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTeacherRevenue(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	revenue, err := s.store.TeacherRevenue(r.Context(), principal.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"totalRevenue": revenue})
}

// --- course content ---

type addSectionRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseID")

	ownerID, err := s.store.CourseOwner(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req addSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}

	section := model.CourseSection{
		ID:       uuid.NewString(),
		CourseID: courseID,
		Title:    req.Title,
		Position: req.Position,
	}
	if err := s.store.CreateSection(r.Context(), section); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sectionResponse{
		ID:       section.ID,
		CourseID: section.CourseID,
		Title:    section.Title,
		Position: section.Position,
	})
}

type sectionResponse struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type lessonResponse struct {
	ID         string  `json:"id"`
	SectionID  string  `json:"sectionId"`
	Title      string  `json:"title"`
	ContentURL *string `json:"contentUrl,omitempty"`
	Duration   int     `json:"duration"`
	Position   int     `json:"position"`
}

type addLessonRequest struct {
	Title      string  `json:"title"`
	ContentURL *string `json:"contentUrl"`
	Duration   int     `json:"duration"`
	Position   int     `json:"position"`
}

func (s *Server) handleAddLesson(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	sectionID := chi.URLParam(r, "sectionID")

	// Lessons hang off sections; ownership is resolved through the section's
	// course.
	courseID, err := s.store.SectionCourse(r.Context(), sectionID)
	if err != nil {
		storeError(w, err)
		return
	}
	ownerID, err := s.store.CourseOwner(r.Context(), courseID)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := authz.RequireOwner(principal, ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req addLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}

	lesson := model.Lesson{
		ID:         uuid.NewString(),
		SectionID:  sectionID,
		Title:      req.Title,
		ContentURL: req.ContentURL,
		Duration:   req.Duration,
		Position:   req.Position,
	}
	if err := s.store.CreateLesson(r.Context(), lesson); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse{
		ID:         lesson.ID,
		SectionID:  lesson.SectionID,
		Title:      lesson.Title,
		ContentURL: lesson.ContentURL,
		Duration:   lesson.Duration,
		Position:   lesson.Position,
	})
}
