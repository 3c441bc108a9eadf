package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutordesk/config"
	"tutordesk/internal/dto"
	"tutordesk/internal/scheduling"
	"tutordesk/internal/service"
	"tutordesk/pkg/jwt"
	"tutordesk/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidators()
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AccessService ──

type mockAccessService struct {
	verifyResult *dto.VerifyAccessResponse
	verifyErr    error
	logoutErr    error
	lastClient   string
	loggedOut    *jwt.Claims
}

func (m *mockAccessService) Verify(_ context.Context, _ *dto.VerifyAccessRequest, clientKey string) (*dto.VerifyAccessResponse, error) {
	m.lastClient = clientKey
	return m.verifyResult, m.verifyErr
}
func (m *mockAccessService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.loggedOut = claims
	return m.logoutErr
}

// ── Mock TutorService ──

type mockTutorService struct {
	listResult []dto.TutorResponse
	getResult  *dto.TutorResponse
	getErr     error
	createErr  error
}

func (m *mockTutorService) Create(_ context.Context, req *dto.CreateTutorRequest) (*dto.TutorResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.TutorResponse{ID: "t1", Name: req.Name, IsActive: true}, nil
}
func (m *mockTutorService) GetByID(_ context.Context, _ string) (*dto.TutorResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTutorService) List(_ context.Context, _ *dto.TutorListRequest) ([]dto.TutorResponse, error) {
	return m.listResult, nil
}
func (m *mockTutorService) Update(_ context.Context, _ string, _ *dto.UpdateTutorRequest) (*dto.TutorResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTutorService) Delete(_ context.Context, _ string) error {
	return m.getErr
}

// ── Mock TimetableService ──

type mockTimetableService struct {
	listResult   []dto.TimetableEntryResponse
	entryResult  *dto.TimetableEntryResponse
	gridResult   *dto.GridResponse
	importResult *dto.ImportTimetableResponse
	err          error
	lastGrid     *dto.GridRequest
	lastCreate   *dto.CreateTimetableEntryRequest
}

func (m *mockTimetableService) ListAll(_ context.Context) ([]dto.TimetableEntryResponse, error) {
	return m.listResult, m.err
}
func (m *mockTimetableService) ListByTutor(_ context.Context, _ string) ([]dto.TimetableEntryResponse, error) {
	return m.listResult, m.err
}
func (m *mockTimetableService) Create(_ context.Context, req *dto.CreateTimetableEntryRequest) (*dto.TimetableEntryResponse, error) {
	m.lastCreate = req
	return m.entryResult, m.err
}
func (m *mockTimetableService) Update(_ context.Context, _ string, _ *dto.UpdateTimetableEntryRequest) (*dto.TimetableEntryResponse, error) {
	return m.entryResult, m.err
}
func (m *mockTimetableService) Delete(_ context.Context, _ string) error {
	return m.err
}
func (m *mockTimetableService) Grid(_ context.Context, req *dto.GridRequest) (*dto.GridResponse, error) {
	m.lastGrid = req
	return m.gridResult, m.err
}
func (m *mockTimetableService) Project(_ context.Context, _ *dto.GridRequest) (*scheduling.Grid, error) {
	return nil, m.err
}
func (m *mockTimetableService) Import(_ context.Context, _ *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error) {
	return m.importResult, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportTimetable(_ context.Context, _ *dto.GridRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set(ClaimsKey, &jwt.Claims{Role: jwt.RoleStaff, TokenType: "access"})
	c.Set("role", jwt.RoleStaff)
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, path, pattern string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	_, _, w := setupGin()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r := gin.New()
	r.Handle(method, pattern, h)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AccessHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAccessHandler_Verify_Success(t *testing.T) {
	mock := &mockAccessService{verifyResult: &dto.VerifyAccessResponse{Authorized: true, AccessToken: "tok", ExpiresIn: 3600}}
	h := NewAccessHandler(mock)

	w := serve("POST", "/verify-access", "/verify-access", jsonBody(dto.VerifyAccessRequest{Password: "pw"}), h.VerifyAccess)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastClient == "" {
		t.Error("expected client ip to be passed as client key")
	}
}

func TestAccessHandler_Verify_MissingPassword(t *testing.T) {
	h := NewAccessHandler(&mockAccessService{})

	w := serve("POST", "/verify-access", "/verify-access", jsonBody(map[string]string{}), h.VerifyAccess)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAccessHandler_Verify_WrongPassword(t *testing.T) {
	mock := &mockAccessService{
		verifyResult: &dto.VerifyAccessResponse{Authorized: false, Remaining: 2},
		verifyErr:    service.ErrAccessDenied,
	}
	h := NewAccessHandler(mock)

	w := serve("POST", "/verify-access", "/verify-access", jsonBody(dto.VerifyAccessRequest{Password: "x"}), h.VerifyAccess)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10101 {
		t.Errorf("expected code 10101, got %d", resp.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["authorized"] != false {
		t.Errorf("expected authorized=false in data, got %v", resp.Data)
	}
}

func TestAccessHandler_Verify_Locked(t *testing.T) {
	mock := &mockAccessService{verifyResult: &dto.VerifyAccessResponse{}, verifyErr: service.ErrAccessLocked}
	h := NewAccessHandler(mock)

	w := serve("POST", "/verify-access", "/verify-access", jsonBody(dto.VerifyAccessRequest{Password: "x"}), h.VerifyAccess)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestAccessHandler_Logout(t *testing.T) {
	mock := &mockAccessService{}
	h := NewAccessHandler(mock)

	w := serve("POST", "/logout", "/logout", nil, func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut == nil {
		t.Error("expected claims to be passed to Logout")
	}
}

func TestAccessHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAccessHandler(&mockAccessService{})

	w := serve("POST", "/logout", "/logout", nil, h.Logout)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TutorHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTutorHandler_List_Envelope(t *testing.T) {
	mock := &mockTutorService{listResult: []dto.TutorResponse{{ID: "t1", Name: "Sam"}, {ID: "t2", Name: "Alex"}}}
	h := NewTutorHandler(mock)

	w := serve("GET", "/tutors", "/tutors", nil, h.ListTutors)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	if data["count"] != float64(2) {
		t.Errorf("expected count=2, got %v", data["count"])
	}
	if results, ok := data["results"].([]interface{}); !ok || len(results) != 2 {
		t.Errorf("expected 2 results, got %v", data["results"])
	}
}

func TestTutorHandler_Create_BlankName(t *testing.T) {
	h := NewTutorHandler(&mockTutorService{})

	w := serve("POST", "/tutors", "/tutors", jsonBody(map[string]string{"name": "   "}), h.CreateTutor)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", w.Code)
	}
}

func TestTutorHandler_Create_Success(t *testing.T) {
	h := NewTutorHandler(&mockTutorService{})

	w := serve("POST", "/tutors", "/tutors", jsonBody(dto.CreateTutorRequest{Name: "Sam"}), h.CreateTutor)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestTutorHandler_Get_NotFound(t *testing.T) {
	h := NewTutorHandler(&mockTutorService{getErr: service.ErrTutorNotFound})

	w := serve("GET", "/tutors/x", "/tutors/:id", nil, h.GetTutor)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20001 {
		t.Errorf("expected code 20001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TimetableHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimetableHandler_CreateEntry_Success(t *testing.T) {
	mock := &mockTimetableService{entryResult: &dto.TimetableEntryResponse{ID: "e1"}}
	h := NewTimetableHandler(mock)

	body := jsonBody(map[string]interface{}{
		"tutor_id":    "6f1c1a52-7d4b-4f7e-9b7a-0c2f3f1d9e11",
		"day_of_week": 0,
		"start_time":  "09:00",
		"end_time":    "10:00",
		"subject":     "Maths",
	})
	w := serve("POST", "/timetable/entries", "/timetable/entries", body, h.CreateEntry)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mock.lastCreate == nil || *mock.lastCreate.DayOfWeek != 0 {
		t.Error("expected day_of_week 0 to be accepted as a present value")
	}
}

func TestTimetableHandler_CreateEntry_Validation(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"bad time": {"tutor_id": "6f1c1a52-7d4b-4f7e-9b7a-0c2f3f1d9e11", "day_of_week": 1, "start_time": "9am", "end_time": "10:00"},
		"bad day":  {"tutor_id": "6f1c1a52-7d4b-4f7e-9b7a-0c2f3f1d9e11", "day_of_week": 7, "start_time": "09:00", "end_time": "10:00"},
		"no day":   {"tutor_id": "6f1c1a52-7d4b-4f7e-9b7a-0c2f3f1d9e11", "start_time": "09:00", "end_time": "10:00"},
		"bad uuid": {"tutor_id": "sam", "day_of_week": 1, "start_time": "09:00", "end_time": "10:00"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewTimetableHandler(&mockTimetableService{})
			w := serve("POST", "/timetable/entries", "/timetable/entries", jsonBody(body), h.CreateEntry)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestTimetableHandler_Grid_BindsQuery(t *testing.T) {
	mock := &mockTimetableService{gridResult: &dto.GridResponse{MinHour: 8, MaxHour: 12}}
	h := NewTimetableHandler(mock)

	w := serve("GET", "/timetable/grid?min_hour=8&max_hour=12", "/timetable/grid", nil, h.Grid)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastGrid == nil || mock.lastGrid.MinHour == nil || *mock.lastGrid.MinHour != 8 || *mock.lastGrid.MaxHour != 12 {
		t.Errorf("expected hour range 8-12 to be bound, got %+v", mock.lastGrid)
	}
}

func TestTimetableHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"TutorNotFound", service.ErrTutorNotFound, 404, 20001},
		{"EntryNotFound", service.ErrTimetableEntryNotFound, 404, 21001},
		{"InvalidSpan", service.ErrTimetableInvalidSpan, 400, 21002},
		{"InvalidRange", service.ErrTimetableInvalidRange, 400, 21003},
		{"VersionConflict", service.ErrTimetableVersionConflict, 409, 21004},
		{"FetchFailed", service.ErrImportFetchFailed, 502, 21101},
		{"TooLarge", service.ErrImportTooLarge, 413, 21102},
		{"ParseFailed", service.ErrImportParseFailed, 422, 21103},
		{"TutorRequired", service.ErrImportTutorRequired, 400, 21104},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTimetableHandler(&mockTimetableService{err: tt.err})

			w := serve("GET", "/timetable/all", "/timetable/all", nil, h.ListAll)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// SchedulerHandler Tests（使用真实 SchedulerService）
// ═══════════════════════════════════════════════════════════

func newSchedulerRouter() *gin.Engine {
	svc := service.NewSchedulerService(&config.SchedulerConfig{SessionTTL: time.Hour, MaxSessions: 4}, zap.NewNop())
	h := NewSchedulerHandler(svc)

	r := gin.New()
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions/:id", h.GetSession)
	r.GET("/sessions/:id/days/:day", h.DayEntries)
	r.POST("/sessions/:id/entries", h.AddEntry)
	r.DELETE("/sessions/:id", h.DeleteSession)
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = jsonBody(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, "POST", "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	id, _ := data["session_id"].(string)
	if id == "" {
		t.Fatal("expected session_id in response")
	}
	return id
}

func TestSchedulerHandler_AddEntry_AcceptThenClash(t *testing.T) {
	r := newSchedulerRouter()
	id := createSession(t, r)

	w := do(r, "POST", "/sessions/"+id+"/entries", dto.AddScheduleEntryRequest{
		Day: "Monday", Tutor: "Sam", Subject: "Maths", Time: "14:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, "POST", "/sessions/"+id+"/entries", dto.AddScheduleEntryRequest{
		Day: "Monday", Tutor: "sam", Subject: "Physics", Time: "14:00",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 22004 || resp.Message != "sam already has a class at 14:00" {
		t.Errorf("unexpected clash response: %+v", resp)
	}
	data, _ := resp.Data.(map[string]interface{})
	existing, _ := data["existing"].(map[string]interface{})
	if existing["subject"] != "Maths" {
		t.Errorf("expected existing entry in data, got %v", resp.Data)
	}

	w = do(r, "GET", "/sessions/"+id+"/days/monday", nil)
	data, _ = parseResponse(w).Data.(map[string]interface{})
	if entries, _ := data["entries"].([]interface{}); len(entries) != 1 {
		t.Errorf("expected 1 entry after clash, got %v", data["entries"])
	}
}

func TestSchedulerHandler_AddEntry_BadTime(t *testing.T) {
	r := newSchedulerRouter()
	id := createSession(t, r)

	w := do(r, "POST", "/sessions/"+id+"/entries", dto.AddScheduleEntryRequest{
		Day: "Monday", Tutor: "Sam", Subject: "Maths", Time: "2pm",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSchedulerHandler_AddEntry_BindingNamesField(t *testing.T) {
	r := newSchedulerRouter()
	id := createSession(t, r)

	tests := []struct {
		name  string
		req   dto.AddScheduleEntryRequest
		field string
	}{
		{"BlankTutor", dto.AddScheduleEntryRequest{Day: "Monday", Tutor: "   ", Subject: "Maths", Time: "14:00"}, "tutor"},
		{"BlankSubject", dto.AddScheduleEntryRequest{Day: "Monday", Tutor: "Sam", Subject: " ", Time: "14:00"}, "subject"},
		{"UnpaddedTime", dto.AddScheduleEntryRequest{Day: "Monday", Tutor: "Sam", Subject: "Maths", Time: "9:00"}, "time"},
		{"MissingTime", dto.AddScheduleEntryRequest{Day: "Monday", Tutor: "Sam", Subject: "Maths"}, "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, "POST", "/sessions/"+id+"/entries", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != 22003 {
				t.Errorf("expected code 22003, got %d", resp.Code)
			}
			if !strings.HasPrefix(resp.Details, tt.field+":") {
				t.Errorf("expected details to name %q, got %q", tt.field, resp.Details)
			}
		})
	}
}

func TestSchedulerHandler_AddEntry_BadDay(t *testing.T) {
	r := newSchedulerRouter()
	id := createSession(t, r)

	w := do(r, "POST", "/sessions/"+id+"/entries", dto.AddScheduleEntryRequest{
		Day: "Funday", Tutor: "Sam", Subject: "Maths", Time: "14:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22003 || resp.Details == "" {
		t.Errorf("expected code 22003 with details, got %+v", resp)
	}
}

func TestSchedulerHandler_UnknownSession(t *testing.T) {
	r := newSchedulerRouter()

	w := do(r, "GET", "/sessions/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22001 {
		t.Errorf("expected code 22001, got %d", resp.Code)
	}
}

func TestSchedulerHandler_DeleteSession(t *testing.T) {
	r := newSchedulerRouter()
	id := createSession(t, r)

	if w := do(r, "DELETE", "/sessions/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := do(r, "GET", "/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("excel content"), filename: "timetable.xlsx"}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/timetable", "/export/timetable", nil, h.ExportTimetable)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_TutorNotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrTutorNotFound})

	w := serve("GET", "/export/timetable?tutor_id=6f1c1a52-7d4b-4f7e-9b7a-0c2f3f1d9e11", "/export/timetable", nil, h.ExportTimetable)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestExportHandler_BadQuery(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := serve("GET", "/export/timetable?min_hour=30", "/export/timetable", nil, h.ExportTimetable)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
