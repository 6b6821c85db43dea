package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/handler"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/query"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/response"
	"github.com/stemsi/student-dashboard/internal/router"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stemsi/student-dashboard/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type testServer struct {
	engine *gin.Engine
	store  *fakeStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := newFakeStore()

	students := service.NewStudentService(store, nil, log)
	dashboard := service.NewDashboardService(students)
	export := service.NewExportService(log)

	cfg := &config.Config{
		GinMode:       gin.TestMode,
		SessionSecret: "test-secret-test-secret-test-sec",
		StaticDir:     t.TempDir() + "/missing",
	}
	handlers := &router.Handlers{
		Student:    handler.NewStudentHandler(students),
		Dashboard:  handler.NewDashboardHandler(dashboard),
		Export:     handler.NewExportHandler(dashboard, export),
		Preference: handler.NewPreferenceHandler(log),
		System:     handler.NewSystemHandler(fakePinger{}, nil, log),
	}
	return &testServer{engine: router.SetupRouter(handlers, nil, cfg, log), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func payload(name, reg, dept string, year int, marks float64) model.StudentRequest {
	return model.StudentRequest{
		Name: name, RegistrationNumber: reg, Department: dept,
		BloodGroup: "A+", Year: year, AverageMarks: marks,
	}
}

func (s *testServer) seedABC(t *testing.T) {
	t.Helper()
	for _, p := range []model.StudentRequest{
		payload("Alice", "REG-A", "CS", 2, 90),
		payload("Bob", "REG-B", "CS", 2, 70),
		payload("Cara", "REG-C", "EE", 3, 95),
	} {
		if w := s.do(t, http.MethodPost, "/api/students", p); w.Code != http.StatusOK {
			t.Fatalf("seed %s: %d %s", p.Name, w.Code, w.Body.String())
		}
	}
}

func TestCreateAndList(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/students", payload("Alice", "REG1", "Computer Science", 1, 88.5))
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	if ack := decode[response.Ack](t, w); ack.Message != "Success" {
		t.Errorf("ack = %+v", ack)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	w = s.do(t, http.MethodGet, "/api/students", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("list body is not a bare array: %s", w.Body.String())
	}
	if len(raw) != 1 {
		t.Fatalf("len = %d", len(raw))
	}
	for _, key := range []string{"id", "name", "registration_number", "department", "blood_group", "year", "average_marks", "created_at"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("missing key %q in %v", key, raw[0])
		}
	}
	if raw[0]["id"] == "" {
		t.Error("id not generated")
	}
}

func TestListEmptyIsArray(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/students", nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCreateDuplicateRejected(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodPost, "/api/students", payload("Dan", "REG-A", "ME", 1, 60))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[response.ErrorBody](t, w)
	if body.Code != response.ErrConflict {
		t.Errorf("code = %s", body.Code)
	}
	if !strings.Contains(body.Error, "students_registration_number_key") {
		t.Errorf("error = %q, want database message", body.Error)
	}
	if body.Fields["registration_number"] == "" {
		t.Errorf("fields = %v", body.Fields)
	}
	if s.store.count() != 3 {
		t.Errorf("store count = %d, want 3", s.store.count())
	}
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/students", map[string]interface{}{
		"registration_number": "REG1", "department": "CS", "blood_group": "O+",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[response.ErrorBody](t, w)
	if body.Code != response.ErrValidation || body.Fields["name"] == "" {
		t.Errorf("body = %+v", body)
	}

	w = s.do(t, http.MethodPost, "/api/students", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d", w.Code)
	}
	if body := decode[response.ErrorBody](t, w); body.Code != response.ErrInvalidPayload {
		t.Errorf("malformed code = %q", body.Code)
	}
	if s.store.count() != 0 {
		t.Errorf("store count = %d", s.store.count())
	}
}

func TestCreateRejectsOversizedValues(t *testing.T) {
	s := newTestServer(t)

	p := payload("Alice", "REG1", "CS", 1, 80)
	p.BloodGroup = "AB+ve!"
	p.ID = strings.Repeat("x", 37)
	w := s.do(t, http.MethodPost, "/api/students", p)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	body := decode[response.ErrorBody](t, w)
	if body.Code != response.ErrValidation || body.Fields["blood_group"] == "" || body.Fields["id"] == "" {
		t.Errorf("body = %+v", body)
	}

	p = payload("Alice", strings.Repeat("9", 51), "CS", 1, 80)
	if w := s.do(t, http.MethodPut, "/api/students/x", p); w.Code != http.StatusBadRequest {
		t.Errorf("replace status = %d", w.Code)
	}
	if s.store.count() != 0 {
		t.Errorf("store count = %d", s.store.count())
	}
}

func TestCreateAcceptsNumericStrings(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/students",
		`{"name":"Ann","registration_number":"R1","department":"CS","blood_group":"A+","year":"2","average_marks":"91.5"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	got, _ := s.store.List(context.Background())
	if len(got) != 1 || got[0].Year != 2 || got[0].AverageMarks != 91.5 {
		t.Errorf("stored %+v", got)
	}

	w = s.do(t, http.MethodPost, "/api/students",
		`{"name":"Bo","registration_number":"R2","department":"CS","blood_group":"A+","year":"second"}`)
	if body := decode[response.ErrorBody](t, w); w.Code != http.StatusBadRequest || body.Code != response.ErrInvalidPayload {
		t.Errorf("non-numeric year: %d %+v", w.Code, body)
	}
}

func TestStoreRejectionIs400(t *testing.T) {
	s := newTestServer(t)
	s.store.writeErr = &repository.RejectedError{
		Code:    "22001",
		Message: "value too long for type character varying(5)",
	}

	w := s.do(t, http.MethodPost, "/api/students", payload("Alice", "REG1", "CS", 1, 80))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	body := decode[response.ErrorBody](t, w)
	if body.Code != response.ErrValidation || body.Error != "value too long for type character varying(5)" {
		t.Errorf("body = %+v", body)
	}
}

func TestReplace(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)
	list, _ := s.store.List(context.Background())
	id := list[0].ID

	w := s.do(t, http.MethodPut, "/api/students/"+id, payload("Cara Ray", "REG-C", "EE", 4, 96))
	if w.Code != http.StatusOK || decode[response.Ack](t, w).Message != "Updated" {
		t.Fatalf("replace: %d %s", w.Code, w.Body.String())
	}
	list, _ = s.store.List(context.Background())
	if list[0].ID != id || list[0].Name != "Cara Ray" || list[0].Year != 4 {
		t.Errorf("after replace = %+v", list[0])
	}

	w = s.do(t, http.MethodPut, "/api/students/"+id, payload("Cara Ray", "REG-A", "EE", 4, 96))
	if w.Code != http.StatusBadRequest || decode[response.ErrorBody](t, w).Code != response.ErrConflict {
		t.Errorf("conflicting replace: %d %s", w.Code, w.Body.String())
	}
}

func TestReplaceMissingIsSilentSuccess(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodPut, "/api/students/does-not-exist", payload("Ghost", "REG-Z", "CS", 1, 1))
	if w.Code != http.StatusOK || decode[response.Ack](t, w).Message != "Updated" {
		t.Fatalf("replace missing: %d %s", w.Code, w.Body.String())
	}
	if s.store.count() != 3 {
		t.Errorf("store count = %d", s.store.count())
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)
	list, _ := s.store.List(context.Background())

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodDelete, "/api/students/"+list[0].ID, nil)
		if w.Code != http.StatusOK || decode[response.Ack](t, w).Message != "Deleted" {
			t.Fatalf("delete #%d: %d %s", i+1, w.Code, w.Body.String())
		}
	}
	if s.store.count() != 2 {
		t.Errorf("store count = %d", s.store.count())
	}
}

func TestReset(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodPost, "/api/reset", nil)
	if w.Code != http.StatusOK || decode[response.Ack](t, w).Message != "Reset" {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
	if s.store.count() != 0 {
		t.Errorf("store count = %d", s.store.count())
	}
}

func TestStoreDownIs500(t *testing.T) {
	s := newTestServer(t)
	s.store.down = true

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/students"},
		{http.MethodPost, "/api/reset"},
		{http.MethodDelete, "/api/students/x"},
	} {
		w := s.do(t, tc.method, tc.path, nil)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s = %d", tc.method, tc.path, w.Code)
			continue
		}
		if body := decode[response.ErrorBody](t, w); body.Code != response.ErrInternal || body.Error == "" {
			t.Errorf("%s %s body = %+v", tc.method, tc.path, body)
		}
	}
}

func TestView(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodGet, "/api/students/view?sort=average_marks&dir=desc&page=1&size=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view: %d %s", w.Code, w.Body.String())
	}
	res := decode[query.Result](t, w)

	var names []string
	for _, r := range res.Rows {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "Cara,Alice,Bob" {
		t.Errorf("order = %v", names)
	}
	counts := map[string]int{}
	for _, b := range res.Charts.ByDepartment {
		counts[b.Label] = b.Count
	}
	if counts["CS"] != 2 || counts["EE"] != 1 || len(counts) != 2 {
		t.Errorf("department counts = %v", counts)
	}
	if res.Summary.AverageMarks != 85.0 {
		t.Errorf("mean = %v", res.Summary.AverageMarks)
	}
	if res.Pagination.TotalPages != 1 || res.Pagination.HasNext {
		t.Errorf("pagination = %+v", res.Pagination)
	}
}

func TestViewPageBeyondLastIsEmpty(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	for _, page := range []string{"2", "2305843009213693953", "4611686018427387905", "9223372036854775807"} {
		w := s.do(t, http.MethodGet, "/api/students/view?size=4&page="+page, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("page %s: %d %s", page, w.Code, w.Body.String())
		}
		res := decode[query.Result](t, w)
		if res.Rows == nil || len(res.Rows) != 0 {
			t.Errorf("page %s rows = %+v", page, res.Rows)
		}
		if res.Pagination.TotalItems != 3 || res.Pagination.TotalPages != 1 {
			t.Errorf("page %s pagination = %+v", page, res.Pagination)
		}
	}
}

func TestViewReportYearAndFilter(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodGet, "/api/students/view?filter=cs&year=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view: %d %s", w.Code, w.Body.String())
	}
	res := decode[query.Result](t, w)
	if res.Pagination.TotalItems != 2 {
		t.Errorf("TotalItems = %d", res.Pagination.TotalItems)
	}
	if len(res.Charts.AverageByDepartment) != 0 {
		t.Errorf("year 3 has no CS students, got %+v", res.Charts.AverageByDepartment)
	}

	if w := s.do(t, http.MethodGet, "/api/students/view?year=all", nil); w.Code != http.StatusOK {
		t.Errorf("year=all: %d", w.Code)
	}
}

func TestViewInvalidQuery(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"sort=shoe_size", "page=0", "page=x", "year=last"} {
		w := s.do(t, http.MethodGet, "/api/students/view?"+q, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, w.Code)
			continue
		}
		if body := decode[response.ErrorBody](t, w); body.Code != response.ErrInvalidQuery {
			t.Errorf("%s: code = %s", q, body.Code)
		}
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodGet, "/api/students/export.csv?filter=CS&sort=name", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	want := "Name,Reg,Dept,Blood,Year,Marks\nAlice,REG-A,CS,A+,2,90\nBob,REG-B,CS,A+,2,70\n"
	if w.Body.String() != want {
		t.Errorf("csv =\n%s", w.Body.String())
	}
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t)
	s.seedABC(t)

	w := s.do(t, http.MethodGet, "/api/students/export.xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	// XLSX files are zip containers.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestPreferences(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/preferences", nil)
	if got := decode[model.Preferences](t, w); got != model.DefaultPreferences() {
		t.Errorf("first run = %+v", got)
	}

	w = s.do(t, http.MethodPut, "/api/preferences", model.Preferences{Role: model.RoleViewer, Theme: model.ThemeLight})
	if w.Code != http.StatusOK {
		t.Fatalf("put: %d %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no preferences cookie set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	got := decode[model.Preferences](t, w)
	if got.Role != model.RoleViewer || got.Theme != model.ThemeLight {
		t.Errorf("stored = %+v", got)
	}

	w = s.do(t, http.MethodPut, "/api/preferences", map[string]string{"role": "root", "theme": "dark"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid role status = %d", w.Code)
	}
}

func TestHealthAndMeta(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || decode[map[string]string](t, w)["status"] != "ok" {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/meta", nil)
	meta := decode[map[string]json.RawMessage](t, w)
	var depts []string
	_ = json.Unmarshal(meta["departments"], &depts)
	if len(depts) != len(model.Departments) {
		t.Errorf("departments = %v", depts)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode[response.ErrorBody](t, w); body.Code != response.ErrNotFound {
		t.Errorf("body = %+v", body)
	}
}
