package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"course-notes-admin/internal/bootstrap"
	"course-notes-admin/internal/config"
	"course-notes-admin/internal/courseapi"
	"course-notes-admin/internal/dto"
	"course-notes-admin/internal/pkg/logger"
	"course-notes-admin/internal/pkg/serverutils"
	"course-notes-admin/pkg/objectstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addNotesPath = "/math/course/algebra-1/unit-2/topic-3/add-notes"

// fakeCourseAPI serves the two remote endpoints the admin pages call.
type fakeCourseAPI struct {
	mu          sync.Mutex
	courses     string
	addStatus   int
	addBody     string
	addRequests []courseapi.AddNoteRequest
	addPaths    []string
}

func (f *fakeCourseAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/get-courses-for-category":
		w.Write([]byte(f.courses))
	case strings.HasSuffix(r.URL.Path, "/addNotes"):
		var req courseapi.AddNoteRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.addRequests = append(f.addRequests, req)
		f.addPaths = append(f.addPaths, r.URL.Path)
		w.WriteHeader(f.addStatus)
		w.Write([]byte(f.addBody))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type testEnv struct {
	app      *fiber.App
	api      *fakeCourseAPI
	storeDir string
}

func newTestEnv(t *testing.T, overrides ...func(*bootstrap.Infrastructure)) *testEnv {
	t.Helper()

	api := &fakeCourseAPI{courses: "[]", addStatus: http.StatusOK, addBody: `{}`}
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	storeDir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "3000",
			BaseURL:            "http://localhost:3000",
			CorsAllowedOrigins: "http://localhost:3000",
			DraftTTL:           time.Minute,
		},
		CourseAPI: config.CourseAPIConfig{BaseURL: apiServer.URL},
		Storage: config.StorageConfig{
			Provider:      config.StorageProviderLocal,
			LocalDir:      storeDir,
			PublicBaseURL: "http://localhost:3000/uploads",
		},
	}

	store, err := objectstore.NewLocalStore(storeDir, cfg.Storage.PublicBaseURL)
	require.NoError(t, err)

	infra := bootstrap.Infrastructure{
		Logger:    logger.NewNopLogger(),
		Store:     store,
		CourseAPI: courseapi.NewClient(apiServer.URL, 5*time.Second),
	}
	for _, override := range overrides {
		override(&infra)
	}
	container := bootstrap.Build(cfg, infra)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, container.Start(ctx))
	t.Cleanup(func() {
		cancel()
		container.Close()
	})

	return &testEnv{app: New(cfg, container).GetApp(), api: api, storeDir: storeDir}
}

func noteForm(t *testing.T, name, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("name", name))
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestCategoryPage(t *testing.T) {
	t.Run("no courses", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/computer-science", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := readBody(t, resp)
		assert.Contains(t, body, "COMPUTER SCIENCE")
		assert.Contains(t, body, "Courses")
		assert.Equal(t, 0, strings.Count(body, "course-block"))
	})

	t.Run("lists courses", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.courses = `[{"courseId":"cs-101","title":"Intro"},{"courseId":"cs-102","title":"Data Structures"}]`

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/computer-science", nil), -1)
		require.NoError(t, err)

		body := readBody(t, resp)
		assert.Equal(t, 2, strings.Count(body, `class="course-block"`))
		assert.Contains(t, body, `href="/computer-science/course/cs-102"`)
		assert.Contains(t, body, "Data Structures")
	})

	t.Run("remote failure renders empty list", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.courses = `not json`

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/math", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 0, strings.Count(readBody(t, resp), "course-block"))
	})
}

func TestListCoursesJSON(t *testing.T) {
	env := newTestEnv(t)
	env.api.courses = `[{"courseId":"algebra-1","title":"Algebra I"}]`

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/categories/math/courses", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result serverutils.Response[dto.CategoryCoursesResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "MATH", result.Data.Heading)
	require.Len(t, result.Data.Courses, 1)
	assert.Equal(t, "algebra-1", result.Data.Courses[0].Id)
}

func TestAddNotesPage(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, addNotesPath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Set-Cookie"))

	body := readBody(t, resp)
	assert.Contains(t, body, `action="`+addNotesPath+`"`)
	assert.Contains(t, body, `name="file"`)
	assert.Contains(t, body, `href="/math/course/algebra-1"`)
}

func TestAddNotesInvalidRouteKey(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/math/course/%20/unit-2/topic-3/add-notes", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitNote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := noteForm(t, "Week 1", "week1.pdf", "application/pdf", []byte("%PDF-1.7 body"))

		req := httptest.NewRequest(http.MethodPost, addNotesPath, body)
		req.Header.Set("Content-Type", contentType)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Note Added Successfully!")

		require.Len(t, env.api.addRequests, 1)
		assert.Equal(t, "/admin/math/course/algebra-1/unit-2/topic-3/addNotes", env.api.addPaths[0])
		assert.Equal(t, "Week 1", env.api.addRequests[0].Name)
		assert.Equal(t, "http://localhost:3000/uploads/notes/week1.pdf", env.api.addRequests[0].Url)

		stored, err := os.ReadFile(filepath.Join(env.storeDir, "notes", "week1.pdf"))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 body", string(stored))
	})

	t.Run("non pdf is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := noteForm(t, "Week 1", "week1.docx", "application/msword", []byte("doc"))

		req := httptest.NewRequest(http.MethodPost, addNotesPath, body)
		req.Header.Set("Content-Type", contentType)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Please select a PDF file.")
		assert.Empty(t, env.api.addRequests)
	})

	t.Run("missing file", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := noteForm(t, "Week 1", "", "", nil)

		req := httptest.NewRequest(http.MethodPost, addNotesPath, body)
		req.Header.Set("Content-Type", contentType)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Please select a file to upload.")
		assert.Empty(t, env.api.addRequests)
	})

	t.Run("remote rejection keeps the form", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.addStatus = http.StatusNotFound
		env.api.addBody = `{"message":"Topic not found"}`
		body, contentType := noteForm(t, "Week 1", "week1.pdf", "application/pdf", []byte("%PDF-1.7 body"))

		req := httptest.NewRequest(http.MethodPost, addNotesPath, body)
		req.Header.Set("Content-Type", contentType)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		page := readBody(t, resp)
		assert.Contains(t, page, "Topic not found")
		assert.Contains(t, page, `value="Week 1"`)
		assert.Contains(t, page, "Selected: week1.pdf")
	})
}

func TestSelectFileThenStatus(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := noteForm(t, "", "week1.pdf", "application/pdf", []byte("%PDF-1.7 body"))

	req := httptest.NewRequest(http.MethodPost, addNotesPath+"/file", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == serverutils.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	statusReq := httptest.NewRequest(http.MethodGet, addNotesPath+"/status", nil)
	statusReq.AddCookie(session)
	resp, err = env.app.Test(statusReq, -1)
	require.NoError(t, err)

	var result serverutils.Response[dto.NoteDraftResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotNil(t, result.Data.File)
	assert.Equal(t, "week1.pdf", result.Data.File.Name)
	assert.Equal(t, "FILE_SELECTED", result.Data.State)
	assert.Equal(t, "math/course/algebra-1/unit-2/topic-3", result.Data.RouteKey)

	// A different session sees its own empty draft.
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, addNotesPath+"/status", nil), -1)
	require.NoError(t, err)
	var fresh serverutils.Response[dto.NoteDraftResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fresh))
	assert.Nil(t, fresh.Data.File)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func sessionCookie(t *testing.T, app *fiber.App) *http.Cookie {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, addNotesPath, nil), -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == serverutils.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func postNote(t *testing.T, app *fiber.App, session *http.Cookie, name string) *http.Response {
	body, contentType := noteForm(t, name, "week1.pdf", "application/pdf", []byte("%PDF-1.7 body"))
	req := httptest.NewRequest(http.MethodPost, addNotesPath, body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(session)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Error(err)
		return nil
	}
	return resp
}

// gatedStore holds the first upload open until release is closed.
type gatedStore struct {
	objectstore.Store
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress objectstore.ProgressFunc) (string, error) {
	s.once.Do(func() {
		onProgress(objectstore.Progress{BytesTransferred: size / 2, TotalBytes: size})
		close(s.started)
		<-s.release
	})
	return s.Store.Upload(ctx, key, r, size, contentType, onProgress)
}

func TestSubmitWhileUploadInFlight(t *testing.T) {
	gate := &gatedStore{started: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, func(infra *bootstrap.Infrastructure) {
		gate.Store = infra.Store
		infra.Store = gate
	})
	session := sessionCookie(t, env.app)

	first := make(chan *http.Response, 1)
	go func() { first <- postNote(t, env.app, session, "Week 1") }()
	<-gate.started

	resp := postNote(t, env.app, session, "Other name")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	page := readBody(t, resp)
	assert.Contains(t, page, "An upload is already in progress.")
	assert.Contains(t, page, `value="Week 1"`)

	statusReq := httptest.NewRequest(http.MethodGet, addNotesPath+"/status", nil)
	statusReq.AddCookie(session)
	statusResp, err := env.app.Test(statusReq, -1)
	require.NoError(t, err)
	var status serverutils.Response[dto.NoteDraftResponse]
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, "UPLOADING", status.Data.State)
	assert.Equal(t, "Uploading file...", status.Data.Message)
	assert.True(t, status.Data.SubmitDisabled)

	close(gate.release)
	firstResp := <-first
	require.NotNil(t, firstResp)
	assert.Equal(t, http.StatusOK, firstResp.StatusCode)
	assert.Contains(t, readBody(t, firstResp), "Note Added Successfully!")

	env.api.mu.Lock()
	defer env.api.mu.Unlock()
	require.Len(t, env.api.addRequests, 1)
	assert.Equal(t, "Week 1", env.api.addRequests[0].Name)
}

// explodingStore panics mid-upload, as a misbehaving SDK might.
type explodingStore struct {
	objectstore.Store
	armed bool
}

func (s *explodingStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress objectstore.ProgressFunc) (string, error) {
	if s.armed {
		s.armed = false
		onProgress(objectstore.Progress{BytesTransferred: size / 2, TotalBytes: size})
		panic("storage client crashed")
	}
	return s.Store.Upload(ctx, key, r, size, contentType, onProgress)
}

func TestSubmitAfterStoragePanic(t *testing.T) {
	store := &explodingStore{armed: true}
	env := newTestEnv(t, func(infra *bootstrap.Infrastructure) {
		store.Store = infra.Store
		infra.Store = store
	})
	session := sessionCookie(t, env.app)

	resp := postNote(t, env.app, session, "Week 1")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "An unexpected error occurred.")

	resp = postNote(t, env.app, session, "Week 1")
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Note Added Successfully!")
}

func TestProgressSocketRoute(t *testing.T) {
	env := newTestEnv(t)

	t.Run("plain request needs upgrade", func(t *testing.T) {
		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/ws/math/course/algebra-1/unit-2/topic-3", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("blank segment is not a route key", func(t *testing.T) {
		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/ws/math/course/%20/unit-2/topic-3", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed path", func(t *testing.T) {
		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/ws/math/lesson/algebra-1/unit-2/topic-3", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
