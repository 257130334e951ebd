package pod

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
	"testing"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/database"
	"logistics-backend/internal/models"
	"logistics-backend/internal/podai"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *fiber.App
	eng    *workflow.Engine
	upload string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	dir := t.TempDir()
	objects := storage.NewLocal(dir, "/uploads")
	eng := workflow.New(store.New(db), audit.NewRecorder(db), workflow.Options{})

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(7))
		c.Locals(auth.CtxUsernameKey, "reviewer")
		c.Locals(auth.CtxUserRoleKey, models.RoleDispatcher)
		return c.Next()
	})
	app.Get("/pods", ListHandler(eng.Store()))
	app.Post("/pods", CreateHandler(eng))
	app.Post("/pods/upload", UploadHandler(eng, objects))
	app.Post("/pods/:id/review", ReviewHandler(eng))
	app.Post("/pods/:id/analyze", AnalyzeHandler(eng))

	return &testEnv{app: app, eng: eng, upload: dir}
}

func (env *testEnv) book(t *testing.T) *models.Docket {
	t.Helper()
	d, err := env.eng.BookDocket(context.Background(), audit.Actor{}, workflow.BookDocketInput{
		DocketNumber:    "DKT-1",
		SenderName:      "Acme",
		SenderAddress:   "12 Dock Road",
		ReceiverName:    "Globex",
		ReceiverAddress: "4 Ring Road",
		TotalWeight:     10,
		TotalPackages:   1,
		Items:           []workflow.ItemInput{{Description: "Box", Weight: 10, Quantity: 1}},
	})
	require.NoError(t, err)
	return d
}

func multipartBody(t *testing.T, fields map[string]string, contentType string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="pod.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUploadSubmitsPod(t *testing.T) {
	env := setup(t)
	d := env.book(t)

	image := []byte("\xff\xd8\xff\xe0 fake jpeg")
	body, ct := multipartBody(t, map[string]string{"docketId": "1"}, "image/jpeg", image)
	req := httptest.NewRequest("POST", "/pods/upload", body)
	req.Header.Set("Content-Type", ct)

	status, raw := env.do(t, req)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var p models.Pod
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, models.PodPendingReview, p.Status)
	assert.True(t, strings.HasPrefix(p.ImageRef, "/uploads/pods/"))
	assert.True(t, strings.HasSuffix(p.ImageRef, ".jpg"))
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, uint(7), *p.CreatedBy)

	stored, err := os.ReadFile(filepath.Join(env.upload, strings.TrimPrefix(p.ImageRef, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, image, stored)

	got, err := env.eng.Store().GetDocket(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocketDelivered, got.Status)
}

func TestUploadRejects(t *testing.T) {
	env := setup(t)
	env.book(t)

	tests := []struct {
		name   string
		fields map[string]string
		ct     string
		image  []byte
		status int
	}{
		{"missing docket id", map[string]string{}, "image/png", []byte("png"), http.StatusBadRequest},
		{"missing image", map[string]string{"docket_id": "1"}, "", nil, http.StatusBadRequest},
		{"not an image", map[string]string{"docketId": "1"}, "application/pdf", []byte("%PDF"), http.StatusUnsupportedMediaType},
		{"unknown docket", map[string]string{"docketId": "99"}, "image/png", []byte("png"), http.StatusNotFound},
		{"docket id with trailing junk", map[string]string{"docketId": "1abc"}, "image/png", []byte("png"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.ct, tt.image)
			req := httptest.NewRequest("POST", "/pods/upload", body)
			req.Header.Set("Content-Type", ct)
			status, _ := env.do(t, req)
			assert.Equal(t, tt.status, status)
		})
	}

	entries, err := os.ReadDir(env.upload)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not leave files behind")
}

func TestReviewAndAnalyze(t *testing.T) {
	env := setup(t)
	env.book(t)

	status, raw := env.do(t, jsonReq("POST", "/pods", `{"docket_id":1,"image_ref":"https://cdn.example.com/pod.jpg"}`))
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = env.do(t, jsonReq("POST", "/pods/1/analyze", ""))
	require.Equal(t, http.StatusOK, status, string(raw))
	var p models.Pod
	require.NoError(t, json.Unmarshal(raw, &p))
	var a podai.Analysis
	require.NoError(t, json.Unmarshal(p.AIAnalysis, &a))
	assert.True(t, a.Simulated)
	assert.Equal(t, podai.RecommendReview, a.Recommendation)

	status, _ = env.do(t, jsonReq("POST", "/pods/1/review", `{"status":"rejected"}`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = env.do(t, jsonReq("POST", "/pods/1/review", `{"status":"approved"}`))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, models.PodApproved, p.Status)
	assert.NotNil(t, p.ApprovedAt)

	status, _ = env.do(t, jsonReq("POST", "/pods/42/review", `{"status":"approved"}`))
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, jsonReq("POST", "/pods/x/analyze", ""))
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, jsonReq("POST", "/pods/1abc/review", `{"status":"approved"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, httptest.NewRequest("GET", "/pods?docket_id=1x", nil))
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = env.do(t, httptest.NewRequest("GET", "/pods?status=approved&docket_id=1", nil))
	require.Equal(t, http.StatusOK, status)
	var list []models.Pod
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)

	status, _ = env.do(t, httptest.NewRequest("GET", "/pods?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}
