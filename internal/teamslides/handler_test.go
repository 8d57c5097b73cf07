package teamslides

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(p Pipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(p).RegisterRoutes(r.Group("/api/v1/teamslides"))
	return r
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return payload.Error.Code + ": " + payload.Error.Message
}

func TestGenerateDownload(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc)

	for _, path := range []string{"/api/v1/teamslides/generate", "/api/v1/teamslides/generate-slide"} {
		resp := postJSON(t, r, path, `{"consultants":["Jane Doe","Gregor Ledebur","Nobody Here","Max Power"]}`)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
		if ct := resp.Header().Get("Content-Type"); ct != PresentationMIME {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="Team_Slide_Output.pptx"` {
			t.Fatalf("unexpected content disposition: %s", cd)
		}
		if got := resp.Header().Get("X-Team-Slide-Strategy"); got != "marker_text" {
			t.Fatalf("unexpected strategy header: %s", got)
		}
		if got := resp.Header().Get("X-Team-Slide-Defaulted"); got != "2" {
			t.Fatalf("unexpected defaulted header: %s", got)
		}
		if !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
			t.Fatalf("expected a zip body")
		}
		if shapes := shapesByName(t, resp.Body.Bytes()); shapes["FN0"].Text != "Jane" {
			t.Fatalf("unexpected first name: %q", shapes["FN0"].Text)
		}
	}

	if left := dirEntries(t, f.outDir); len(left) != 0 {
		t.Fatalf("expected staged files to be removed, found %v", left)
	}
}

func TestGenerateExampleDownload(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc)

	resp := postJSON(t, r, "/api/v1/teamslides/generate", `{"consultants":["Caledonia Trapp","Benjamin Reinitzer","Benedict Wolske","Gregor Ledebur"]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if resp.Body.String() != "example deck" {
		t.Fatalf("expected example bytes unchanged, got %q", resp.Body.String())
	}
	if got := resp.Header().Get("X-Team-Slide-Source"); got != "example" {
		t.Fatalf("unexpected source header: %s", got)
	}
	if _, err := os.Stat(f.paths.Example); err != nil {
		t.Fatalf("example file removed: %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc)

	tests := []struct {
		name    string
		body    string
		setup   func()
		status  int
		message string
	}{
		{name: "empty body", body: ``, status: http.StatusBadRequest, message: "validation_error: Missing 'consultants' field in request body"},
		{name: "missing field", body: `{"names":["a"]}`, status: http.StatusBadRequest, message: "validation_error: Missing 'consultants' field in request body"},
		{name: "invalid json", body: `{"consultants":`, status: http.StatusBadRequest, message: "validation_error: Missing 'consultants' field in request body"},
		{name: "wrong count", body: `{"consultants":["a","b","c"]}`, status: http.StatusBadRequest, message: "validation_error: invalid input: exactly 4 consultant names are required"},
		{name: "blank name", body: `{"consultants":["a","","c","d"]}`, status: http.StatusBadRequest, message: "validation_error: invalid input: all consultant names must be non-empty"},
		{
			name:   "template missing",
			body:   `{"consultants":["a","b","c","d"]}`,
			setup:  func() { _ = os.Remove(f.paths.Template) },
			status: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			resp := postJSON(t, r, "/api/v1/teamslides/generate", tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if cd := resp.Header().Get("Content-Disposition"); cd != "" {
				t.Fatalf("expected no content disposition, got %s", cd)
			}
			msg := errorMessage(t, resp)
			if tt.message != "" && msg != tt.message {
				t.Fatalf("unexpected error %q, want %q", msg, tt.message)
			}
			if tt.status == http.StatusNotFound && !strings.HasPrefix(msg, "not_found: Template file not found: ") {
				t.Fatalf("unexpected not found error %q", msg)
			}
		})
	}
}

type stubPipeline struct {
	err   error
	files []string
}

func (s stubPipeline) Generate(context.Context, []string) (*Artifact, error) {
	return nil, s.err
}

func (s stubPipeline) ListCVs(context.Context) ([]string, error) {
	return s.files, s.err
}

func (s stubPipeline) Inspect(_ context.Context, name string) (Inspection, error) {
	return Inspection{Name: name}, s.err
}

func TestGenerateInternalError(t *testing.T) {
	r := newTestRouter(stubPipeline{err: errors.New("disk on fire")})

	resp := postJSON(t, r, "/api/v1/teamslides/generate", `{"consultants":["a","b","c","d"]}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if msg := errorMessage(t, resp); msg != "internal_error: Failed to generate team slide: disk on fire" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestListCVsHandler(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/teamslides/cvs", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	want := `{"cv_files":["Broken_Person.pptx","Jane_Doe.pptx","Ledebur_Gregor_CV.pptx"]}`
	if resp.Body.String() != want {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	empty := newTestRouter(stubPipeline{})
	resp = httptest.NewRecorder()
	empty.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/teamslides/cvs", nil))
	if resp.Body.String() != `{"cv_files":[]}` {
		t.Fatalf("unexpected empty body %s", resp.Body.String())
	}

	failing := newTestRouter(stubPipeline{err: errors.New("bucket gone")})
	resp = httptest.NewRecorder()
	failing.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/teamslides/cvs", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestInspectHandler(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/teamslides/cvs/inspect?name=Jane+Doe", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got Inspection
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Found || got.Record.FirstName != "Jane" || got.HeadshotBytes == 0 {
		t.Fatalf("unexpected inspection: %+v", got)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("headshot\":")) {
		t.Fatalf("headshot bytes must not be serialized")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/teamslides/cvs/inspect", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
