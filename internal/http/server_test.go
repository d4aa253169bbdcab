package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aulago/backend/internal/auth"
	"aulago/backend/internal/config"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
	"aulago/backend/internal/service"
	"aulago/backend/internal/storage"
)

// fakeStore keeps everything in memory so the router and its gates can be
// exercised without Postgres.
type fakeStore struct {
	users       map[string]model.User
	courses     map[string]model.Course
	sections    map[string]model.CourseSection
	lessons     map[string][]model.Lesson
	enrollments map[string]model.Enrollment
	reviews     map[string]model.Review
	messages    map[string]model.Message
	liveClasses map[string]model.LiveClass

	userErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]model.User{},
		courses:     map[string]model.Course{},
		sections:    map[string]model.CourseSection{},
		lessons:     map[string][]model.Lesson{},
		enrollments: map[string]model.Enrollment{},
		reviews:     map[string]model.Review{},
		messages:    map[string]model.Message{},
		liveClasses: map[string]model.LiveClass{},
	}
}

func enrollKey(studentID, courseID string) string { return studentID + "|" + courseID }

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	if f.userErr != nil {
		return model.User{}, f.userErr
	}
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) SetUserActive(_ context.Context, userID string, active bool) (model.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	user.Active = active
	f.users[userID] = user
	return user, nil
}

func (f *fakeStore) CreateCourse(_ context.Context, course model.Course) error {
	f.courses[course.ID] = course
	return nil
}

func (f *fakeStore) GetCourse(_ context.Context, courseID string) (model.Course, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return course, nil
}

func (f *fakeStore) CourseOwner(_ context.Context, courseID string) (string, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return course.TeacherID, nil
}

func (f *fakeStore) ListPublishedCourses(_ context.Context, _ repository.CourseFilters) ([]model.Course, error) {
	out := []model.Course{}
	for _, course := range f.courses {
		if course.Status == model.CoursePublished {
			out = append(out, course)
		}
	}
	return out, nil
}

func (f *fakeStore) ListFeaturedCourses(ctx context.Context, _ int) ([]model.Course, error) {
	return f.ListPublishedCourses(ctx, repository.CourseFilters{})
}

func (f *fakeStore) ListCoursesByTeacher(_ context.Context, teacherID string) ([]model.Course, error) {
	out := []model.Course{}
	for _, course := range f.courses {
		if course.TeacherID == teacherID {
			out = append(out, course)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCoursesByStudent(_ context.Context, studentID string) ([]model.Course, error) {
	out := []model.Course{}
	for _, enrollment := range f.enrollments {
		if enrollment.StudentID == studentID {
			if course, ok := f.courses[enrollment.CourseID]; ok {
				out = append(out, course)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListCoursesByStatus(_ context.Context, status model.CourseStatus) ([]model.Course, error) {
	out := []model.Course{}
	for _, course := range f.courses {
		if course.Status == status {
			out = append(out, course)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllCourses(_ context.Context) ([]model.Course, error) {
	out := []model.Course{}
	for _, course := range f.courses {
		out = append(out, course)
	}
	return out, nil
}

func (f *fakeStore) UpdateCourse(_ context.Context, course model.Course) (model.Course, error) {
	if _, ok := f.courses[course.ID]; !ok {
		return model.Course{}, repository.ErrNotFound
	}
	f.courses[course.ID] = course
	return course, nil
}

func (f *fakeStore) SetCourseStatus(_ context.Context, courseID string, status model.CourseStatus) (model.Course, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	course.Status = status
	f.courses[courseID] = course
	return course, nil
}

func (f *fakeStore) IncrementEnrolledStudents(_ context.Context, courseID string) error {
	course, ok := f.courses[courseID]
	if !ok {
		return repository.ErrNotFound
	}
	course.EnrolledStudents++
	f.courses[courseID] = course
	return nil
}

func (f *fakeStore) UpdateCourseRating(_ context.Context, _ string) error { return nil }

func (f *fakeStore) CreateSection(_ context.Context, section model.CourseSection) error {
	f.sections[section.ID] = section
	return nil
}

func (f *fakeStore) CreateLesson(_ context.Context, lesson model.Lesson) error {
	f.lessons[lesson.SectionID] = append(f.lessons[lesson.SectionID], lesson)
	return nil
}

func (f *fakeStore) ListSections(_ context.Context, courseID string) ([]model.CourseSection, error) {
	out := []model.CourseSection{}
	for _, section := range f.sections {
		if section.CourseID == courseID {
			out = append(out, section)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLessons(_ context.Context, sectionID string) ([]model.Lesson, error) {
	return f.lessons[sectionID], nil
}

func (f *fakeStore) SectionCourse(_ context.Context, sectionID string) (string, error) {
	section, ok := f.sections[sectionID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return section.CourseID, nil
}

func (f *fakeStore) CountLessons(_ context.Context, courseID string) (int, error) {
	count := 0
	for _, section := range f.sections {
		if section.CourseID == courseID {
			count += len(f.lessons[section.ID])
		}
	}
	return count, nil
}

func (f *fakeStore) CreateEnrollment(_ context.Context, enrollment model.Enrollment) error {
	key := enrollKey(enrollment.StudentID, enrollment.CourseID)
	if _, ok := f.enrollments[key]; ok {
		return repository.ErrDuplicate
	}
	f.enrollments[key] = enrollment
	return nil
}

func (f *fakeStore) GetEnrollment(_ context.Context, studentID, courseID string) (model.Enrollment, error) {
	enrollment, ok := f.enrollments[enrollKey(studentID, courseID)]
	if !ok {
		return model.Enrollment{}, repository.ErrNotFound
	}
	return enrollment, nil
}

func (f *fakeStore) ExistsEnrollment(_ context.Context, studentID, courseID string) (bool, error) {
	_, ok := f.enrollments[enrollKey(studentID, courseID)]
	return ok, nil
}

func (f *fakeStore) ListEnrollmentsByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	out := []model.Enrollment{}
	for _, enrollment := range f.enrollments {
		if enrollment.StudentID == studentID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEnrollmentProgress(_ context.Context, enrollment model.Enrollment) error {
	key := enrollKey(enrollment.StudentID, enrollment.CourseID)
	if _, ok := f.enrollments[key]; !ok {
		return repository.ErrNotFound
	}
	f.enrollments[key] = enrollment
	return nil
}

func (f *fakeStore) ListStudentsByCourse(_ context.Context, courseID string) ([]model.User, error) {
	out := []model.User{}
	for _, enrollment := range f.enrollments {
		if enrollment.CourseID == courseID {
			if user, ok := f.users[enrollment.StudentID]; ok {
				out = append(out, user)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CreateReview(_ context.Context, review model.Review) error {
	for _, existing := range f.reviews {
		if existing.CourseID == review.CourseID && existing.StudentID == review.StudentID {
			return repository.ErrDuplicate
		}
	}
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeStore) GetReview(_ context.Context, reviewID string) (model.Review, error) {
	review, ok := f.reviews[reviewID]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return review, nil
}

func (f *fakeStore) SetReviewReply(_ context.Context, reviewID, response string, at time.Time) (model.Review, error) {
	review, ok := f.reviews[reviewID]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	review.TeacherResponse = &response
	review.TeacherResponseAt = &at
	f.reviews[reviewID] = review
	return review, nil
}

func (f *fakeStore) ListReviewsByCourse(_ context.Context, courseID string) ([]model.Review, error) {
	out := []model.Review{}
	for _, review := range f.reviews {
		if review.CourseID == courseID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, message model.Message) error {
	f.messages[message.ID] = message
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, messageID string) (model.Message, error) {
	message, ok := f.messages[messageID]
	if !ok {
		return model.Message{}, repository.ErrNotFound
	}
	return message, nil
}

func (f *fakeStore) ListInbox(_ context.Context, receiverID string) ([]model.Message, error) {
	out := []model.Message{}
	for _, message := range f.messages {
		if message.ReceiverID == receiverID {
			out = append(out, message)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, messageID string) error {
	message, ok := f.messages[messageID]
	if !ok {
		return repository.ErrNotFound
	}
	message.Read = true
	f.messages[messageID] = message
	return nil
}

func (f *fakeStore) CountUnread(_ context.Context, receiverID string) (int64, error) {
	var count int64
	for _, message := range f.messages {
		if message.ReceiverID == receiverID && !message.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateLiveClass(_ context.Context, class model.LiveClass) error {
	f.liveClasses[class.ID] = class
	return nil
}

func (f *fakeStore) GetLiveClass(_ context.Context, classID string) (model.LiveClass, error) {
	class, ok := f.liveClasses[classID]
	if !ok {
		return model.LiveClass{}, repository.ErrNotFound
	}
	return class, nil
}

func (f *fakeStore) ListLiveClassesByCourse(_ context.Context, courseID string) ([]model.LiveClass, error) {
	out := []model.LiveClass{}
	for _, class := range f.liveClasses {
		if class.CourseID == courseID {
			out = append(out, class)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLiveClassesByTeacher(_ context.Context, teacherID string) ([]model.LiveClass, error) {
	out := []model.LiveClass{}
	for _, class := range f.liveClasses {
		if class.TeacherID == teacherID {
			out = append(out, class)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUpcomingClassesForStudent(_ context.Context, studentID string, now time.Time) ([]model.LiveClass, error) {
	out := []model.LiveClass{}
	for _, class := range f.liveClasses {
		if !class.ScheduledAt.Before(now) {
			if _, ok := f.enrollments[enrollKey(studentID, class.CourseID)]; ok {
				out = append(out, class)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetPlatformStats(_ context.Context) (repository.PlatformStats, error) {
	return repository.PlatformStats{
		TotalUsers:   int64(len(f.users)),
		TotalCourses: int64(len(f.courses)),
	}, nil
}

func (f *fakeStore) TeacherRevenue(_ context.Context, teacherID string) (float64, error) {
	var total float64
	for _, enrollment := range f.enrollments {
		if course, ok := f.courses[enrollment.CourseID]; ok && course.TeacherID == teacherID {
			total += enrollment.AmountPaid
		}
	}
	return total, nil
}

// --- harness ---

const (
	teacherID      = "aaaaaaaa-0000-0000-0000-000000000001"
	otherTeacherID = "aaaaaaaa-0000-0000-0000-000000000002"
	studentID      = "aaaaaaaa-0000-0000-0000-000000000003"
	adminID        = "aaaaaaaa-0000-0000-0000-000000000004"
	courseID       = "bbbbbbbb-0000-0000-0000-000000000001"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
		JoinCodeTTL:    10 * time.Minute,
	}
}

func seedUser(store *fakeStore, id, email string, role model.Role, active bool) {
	store.users[id] = model.User{
		ID:     id,
		Email:  email,
		Name:   "Test",
		Role:   role,
		Active: active,
	}
}

func newTestApp(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	creds := service.NewCredentials(credsAdapter{store}, cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	uploader, err := storage.NewLocal(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("storage error: %v", err)
	}
	server := NewServer(cfg, store, creds, uploader, nil)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return app
}

// credsAdapter narrows fakeStore to the credential service's store interface.
type credsAdapter struct{ *fakeStore }

func (a credsAdapter) CreateUser(_ context.Context, user model.User) error {
	for _, existing := range a.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	a.users[user.ID] = user
	return nil
}

func mustToken(t *testing.T, email string) string {
	t.Helper()
	cfg := testConfig()
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, 10*time.Minute, email)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// --- tests ---

func TestProtectedRouteWithoutToken(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(t, store)

	resp := doReq(t, http.MethodGet, app.URL+"/api/students/enrollments", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPublicRouteSurvivesBadToken(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(t, store)

	resp := doReq(t, http.MethodGet, app.URL+"/api/courses", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on public route with garbage token, got %d", resp.StatusCode)
	}
}

func TestInactiveAccountRejected(t *testing.T) {
	store := newFakeStore()
	seedUser(store, studentID, "student@example.local", model.RoleStudent, false)
	app := newTestApp(t, store)

	resp := doReq(t, http.MethodGet, app.URL+"/api/students/enrollments", mustToken(t, "student@example.local"), nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", resp.StatusCode)
	}
}

func TestStoreFailureIsServerFaultNotDenial(t *testing.T) {
	store := newFakeStore()
	store.userErr = errors.New("connection refused")
	app := newTestApp(t, store)

	resp := doReq(t, http.MethodGet, app.URL+"/api/courses", mustToken(t, "anyone@example.local"), nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", resp.StatusCode)
	}
}

func TestRoleGateDistinguishes401From403(t *testing.T) {
	store := newFakeStore()
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	app := newTestApp(t, store)

	// No principal at all: unauthenticated.
	resp := doReq(t, http.MethodGet, app.URL+"/api/admin/users", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Authenticated but wrong role: forbidden.
	resp = doReq(t, http.MethodGet, app.URL+"/api/admin/users", mustToken(t, "teacher@example.local"), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher on admin route, got %d", resp.StatusCode)
	}
}

func TestAdminCanListUsers(t *testing.T) {
	store := newFakeStore()
	seedUser(store, adminID, "admin@example.local", model.RoleAdmin, true)
	app := newTestApp(t, store)

	resp := doReq(t, http.MethodGet, app.URL+"/api/admin/users", mustToken(t, "admin@example.local"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCourseOwnershipGate(t *testing.T) {
	store := newFakeStore()
	seedUser(store, teacherID, "owner@example.local", model.RoleTeacher, true)
	seedUser(store, otherTeacherID, "other@example.local", model.RoleTeacher, true)
	store.courses[courseID] = model.Course{
		ID:        courseID,
		TeacherID: teacherID,
		Title:     "Go desde cero",
		Status:    model.CoursePublished,
	}
	app := newTestApp(t, store)

	// The owner's course view is gated the same way as edits.
	resp := doReq(t, http.MethodGet, app.URL+"/api/teachers/courses/"+courseID, mustToken(t, "other@example.local"), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner view, got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodGet, app.URL+"/api/teachers/courses/"+courseID, mustToken(t, "owner@example.local"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner view, got %d", resp.StatusCode)
	}

	patch := map[string]interface{}{"title": "Go avanzado"}

	// Another teacher holds the right role but not the course.
	resp = doReq(t, http.MethodPatch, app.URL+"/api/teachers/courses/"+courseID, mustToken(t, "other@example.local"), patch)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPatch, app.URL+"/api/teachers/courses/"+courseID, mustToken(t, "owner@example.local"), patch)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", resp.StatusCode)
	}
	if store.courses[courseID].Title != "Go avanzado" {
		t.Fatalf("expected patch to apply, got %q", store.courses[courseID].Title)
	}
}

func TestCourseDetailIncludesCurriculum(t *testing.T) {
	store := newFakeStore()
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	store.courses[courseID] = model.Course{
		ID:        courseID,
		TeacherID: teacherID,
		Title:     "Go desde cero",
		Status:    model.CoursePublished,
	}
	sectionID := "cccccccc-0000-0000-0000-000000000001"
	store.sections[sectionID] = model.CourseSection{ID: sectionID, CourseID: courseID, Title: "Intro", Position: 1}
	store.lessons[sectionID] = []model.Lesson{
		{ID: "lesson-1", SectionID: sectionID, Title: "Hola", Position: 1},
		{ID: "lesson-2", SectionID: sectionID, Title: "Tipos", Position: 2},
	}
	app := newTestApp(t, store)

	// The catalog detail is public and carries the full curriculum.
	resp := doReq(t, http.MethodGet, app.URL+"/api/courses/"+courseID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var detail struct {
		ID       string `json:"id"`
		Sections []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Lessons []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"lessons"`
		} `json:"sections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(detail.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(detail.Sections))
	}
	if detail.Sections[0].Title != "Intro" {
		t.Fatalf("expected section Intro, got %q", detail.Sections[0].Title)
	}
	if len(detail.Sections[0].Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(detail.Sections[0].Lessons))
	}
	if detail.Sections[0].Lessons[1].Title != "Tipos" {
		t.Fatalf("expected lesson Tipos, got %q", detail.Sections[0].Lessons[1].Title)
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	store := newFakeStore()
	app := newTestApp(t, store)

	body := map[string]interface{}{
		"name":     "Maria",
		"surname":  "Lopez",
		"email":    "maria@example.local",
		"password": "s3cret-pass",
		"role":     "student",
	}
	resp := doReq(t, http.MethodPost, app.URL+"/api/auth/register", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on register, got %d", resp.StatusCode)
	}
	var reg authResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if reg.Token == "" || reg.User.Role != "STUDENT" {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/api/auth/validate", reg.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected register token to validate, got %d", resp.StatusCode)
	}

	login := map[string]interface{}{"email": "maria@example.local", "password": "s3cret-pass"}
	resp = doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", login)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", resp.StatusCode)
	}

	login["password"] = "wrong-pass"
	resp = doReq(t, http.MethodPost, app.URL+"/api/auth/login", "", login)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", resp.StatusCode)
	}
}

func TestEnrollAndProgressFlow(t *testing.T) {
	store := newFakeStore()
	seedUser(store, studentID, "student@example.local", model.RoleStudent, true)
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	store.courses[courseID] = model.Course{
		ID:        courseID,
		TeacherID: teacherID,
		Title:     "Go desde cero",
		Price:     49.90,
		Currency:  "PEN",
		Status:    model.CoursePublished,
	}
	sectionID := "cccccccc-0000-0000-0000-000000000001"
	store.sections[sectionID] = model.CourseSection{ID: sectionID, CourseID: courseID, Title: "Intro"}
	store.lessons[sectionID] = []model.Lesson{
		{ID: "lesson-1", SectionID: sectionID, Title: "Hola"},
		{ID: "lesson-2", SectionID: sectionID, Title: "Tipos"},
	}
	app := newTestApp(t, store)
	studentToken := mustToken(t, "student@example.local")

	resp := doReq(t, http.MethodPost, app.URL+"/api/enrollments", studentToken, map[string]string{"courseId": courseID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on enroll, got %d", resp.StatusCode)
	}
	var enrollment enrollmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&enrollment); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if enrollment.AmountPaid != 49.90 || enrollment.PaymentID == "" {
		t.Fatalf("unexpected enrollment: %+v", enrollment)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/api/enrollments", studentToken, map[string]string{"courseId": courseID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate enroll, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/api/students/enrolled-courses", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 listing enrolled courses, got %d", resp.StatusCode)
	}
	var enrolled []courseResponse
	if err := json.NewDecoder(resp.Body).Decode(&enrolled); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(enrolled) != 1 || enrolled[0].ID != courseID {
		t.Fatalf("expected the enrolled course, got %+v", enrolled)
	}

	// Certificate requires completion.
	resp = doReq(t, http.MethodGet, app.URL+"/api/students/courses/"+courseID+"/certificate", studentToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/api/students/courses/"+courseID+"/lessons/lesson-1/complete", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 completing first lesson, got %d", resp.StatusCode)
	}
	var progress enrollmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if progress.ProgressPercentage != 50 {
		t.Fatalf("expected 50%% progress, got %d", progress.ProgressPercentage)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/api/students/courses/"+courseID+"/lessons/lesson-2/complete", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 completing second lesson, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if progress.ProgressPercentage != 100 || progress.Status != string(model.EnrollmentCompleted) {
		t.Fatalf("expected completed enrollment, got %+v", progress)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/api/students/courses/"+courseID+"/certificate", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on certificate, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", got)
	}
}

func TestReviewRequiresEnrollment(t *testing.T) {
	store := newFakeStore()
	seedUser(store, studentID, "student@example.local", model.RoleStudent, true)
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	store.courses[courseID] = model.Course{ID: courseID, TeacherID: teacherID, Status: model.CoursePublished}
	app := newTestApp(t, store)
	studentToken := mustToken(t, "student@example.local")

	body := map[string]interface{}{"courseId": courseID, "rating": 5, "comment": "excelente"}
	resp := doReq(t, http.MethodPost, app.URL+"/api/reviews", studentToken, body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without enrollment, got %d", resp.StatusCode)
	}

	store.enrollments[enrollKey(studentID, courseID)] = model.Enrollment{
		ID: "e1", StudentID: studentID, CourseID: courseID, Status: model.EnrollmentActive,
	}
	resp = doReq(t, http.MethodPost, app.URL+"/api/reviews", studentToken, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 once enrolled, got %d", resp.StatusCode)
	}
	var review reviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&review); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	// Reply is reserved for the course owner.
	reply := map[string]string{"response": "gracias"}
	resp = doReq(t, http.MethodPatch, app.URL+"/api/reviews/"+review.ID+"/reply", mustToken(t, "teacher@example.local"), reply)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on owner reply, got %d", resp.StatusCode)
	}
}

func TestMarkReadOnlyForReceiver(t *testing.T) {
	store := newFakeStore()
	seedUser(store, studentID, "student@example.local", model.RoleStudent, true)
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	store.messages["m1"] = model.Message{
		ID: "m1", SenderID: studentID, ReceiverID: teacherID, Content: "hola", SentAt: time.Now(),
	}
	app := newTestApp(t, store)

	// The sender does not get to mark the receiver's copy as read.
	resp := doReq(t, http.MethodPatch, app.URL+"/api/messages/m1/read", mustToken(t, "student@example.local"), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for sender, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPatch, app.URL+"/api/messages/m1/read", mustToken(t, "teacher@example.local"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for receiver, got %d", resp.StatusCode)
	}
	if !store.messages["m1"].Read {
		t.Fatalf("expected message to be marked read")
	}
}

func TestAdminCourseModeration(t *testing.T) {
	store := newFakeStore()
	seedUser(store, adminID, "admin@example.local", model.RoleAdmin, true)
	seedUser(store, teacherID, "teacher@example.local", model.RoleTeacher, true)
	store.courses[courseID] = model.Course{ID: courseID, TeacherID: teacherID, Status: model.CoursePendingReview}
	app := newTestApp(t, store)
	adminToken := mustToken(t, "admin@example.local")

	resp := doReq(t, http.MethodPatch, app.URL+"/api/admin/courses/"+courseID+"/approve", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on approve, got %d", resp.StatusCode)
	}
	if store.courses[courseID].Status != model.CoursePublished {
		t.Fatalf("expected PUBLISHED, got %s", store.courses[courseID].Status)
	}

	// A published course cannot be approved or rejected again.
	resp = doReq(t, http.MethodPatch, app.URL+"/api/admin/courses/"+courseID+"/reject", adminToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 re-moderating published course, got %d", resp.StatusCode)
	}
}
