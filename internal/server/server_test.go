package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"logistics-backend/internal/audit"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/config"
	"logistics-backend/internal/database"
	"logistics-backend/internal/models"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newTestServer(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		CORSOrigins: "http://localhost:5173",
	}
	st := store.New(db)
	rec := audit.NewRecorder(db)
	app := New(Deps{
		Config:  cfg,
		Engine:  workflow.New(st, rec, workflow.Options{}),
		Audit:   rec,
		Objects: storage.NewLocal(t.TempDir(), "/uploads"),
		Quiet:   true,
	})
	return app, st
}

func (c *client) send(req *http.Request) (int, []byte) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, raw
}

func (c *client) json(method, path, body string, out any) int {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	status, raw := c.send(req)
	if out != nil && status < 300 {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}
	return status
}

func login(t *testing.T, app *fiber.App, username, password string) *client {
	t.Helper()
	c := &client{t: t, app: app}
	var resp struct {
		Token string `json:"token"`
	}
	status := c.json("POST", "/api/auth/login", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), &resp)
	require.Equal(t, http.StatusOK, status)
	c.token = resp.Token
	return c
}

func TestHealthz(t *testing.T) {
	app, _ := newTestServer(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	app, _ := newTestServer(t)
	anon := &client{t: t, app: app}

	routes := []struct{ method, path string }{
		{"GET", "/api/dockets"},
		{"POST", "/api/dockets"},
		{"GET", "/api/dockets/1/tracker"},
		{"GET", "/api/loading-sheets"},
		{"POST", "/api/manifests"},
		{"GET", "/api/manifests/1/export.xlsx"},
		{"PATCH", "/api/thcs/1"},
		{"POST", "/api/pods/upload"},
		{"POST", "/api/pods/1/review"},
		{"GET", "/api/audit-logs"},
		{"GET", "/api/auth/me"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, _ := anon.send(httptest.NewRequest(r.method, r.path, nil))
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestViewerCannotWrite(t *testing.T) {
	app, st := newTestServer(t)
	_, err := auth.CreateUser(context.Background(), st, "watcher", "viewer-pass-1", models.RoleViewer)
	require.NoError(t, err)
	viewer := login(t, app, "watcher", "viewer-pass-1")

	assert.Equal(t, http.StatusOK, viewer.json("GET", "/api/dockets", "", nil))
	assert.Equal(t, http.StatusForbidden, viewer.json("POST", "/api/dockets", `{}`, nil))
	assert.Equal(t, http.StatusForbidden, viewer.json("POST", "/api/pods/1/review", `{"status":"approved"}`, nil))
}

func TestLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestServer(t)

	anon := &client{t: t, app: app}
	require.Equal(t, http.StatusCreated, anon.json("POST", "/api/auth/register", `{"username":"ops","password":"ops-password","role":"admin"}`, nil))
	c := login(t, app, "ops", "ops-password")

	var d models.Docket
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/dockets", `{
		"docket_number": "DKT-1",
		"sender_name": "Acme", "sender_address": "12 Dock Road, Mumbai",
		"receiver_name": "Globex", "receiver_address": "4 Ring Road, Pune",
		"total_weight": 50, "total_packages": 2,
		"items": [{"description": "Cartons", "weight": 50, "quantity": 2}]
	}`, &d))
	assert.Equal(t, models.DocketBooked, d.Status)

	var ls models.LoadingSheet
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/loading-sheets",
		fmt.Sprintf(`{"sheet_number":"LS-1","vehicle_number":"MH12AB1234","driver_name":"Ravi","destination":"Pune","docket_ids":[%d]}`, d.ID), &ls))
	assert.Equal(t, models.LoadingSheetDraft, ls.Status)

	require.Equal(t, http.StatusOK, c.json("GET", "/api/dockets/DKT-1", "", &d))
	assert.Equal(t, models.DocketLoaded, d.Status)

	// a docket rides on one sheet only
	assert.Equal(t, http.StatusConflict, c.json("POST", "/api/loading-sheets",
		fmt.Sprintf(`{"vehicle_number":"MH12ZZ0001","driver_name":"Anil","destination":"Pune","docket_ids":[%d]}`, d.ID), nil))

	var m models.Manifest
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/manifests", fmt.Sprintf(`{"manifest_number":"MF-1","loading_sheet_id":%d}`, ls.ID), &m))
	assert.Equal(t, http.StatusConflict, c.json("POST", "/api/manifests", fmt.Sprintf(`{"loading_sheet_id":%d}`, ls.ID), nil))

	require.Equal(t, http.StatusOK, c.json("GET", "/api/loading-sheets/"+fmt.Sprint(ls.ID), "", &ls))
	assert.Equal(t, models.LoadingSheetFinalized, ls.Status)
	require.Equal(t, http.StatusOK, c.json("GET", "/api/dockets/DKT-1", "", &d))
	assert.Equal(t, models.DocketInTransit, d.Status)

	var th models.Thc
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/thcs", fmt.Sprintf(`{"manifest_id":%d,"hire_amount":"5000","advance_amount":"1500"}`, m.ID), &th))
	assert.Equal(t, "3500", th.BalanceAmount.String())
	assert.Equal(t, "Ravi", th.DriverName)
	assert.Equal(t, http.StatusBadRequest, c.json("POST", "/api/thcs", fmt.Sprintf(`{"manifest_id":%d,"hire_amount":"100","advance_amount":"200"}`, m.ID), nil))

	require.Equal(t, http.StatusOK, c.json("PATCH", fmt.Sprintf("/api/thcs/%d", th.ID), `{"status":"paid"}`, &th))
	assert.Equal(t, models.ThcPaid, th.Status)
	assert.NotNil(t, th.PaidAt)

	var full models.Manifest
	require.Equal(t, http.StatusOK, c.json("GET", fmt.Sprintf("/api/manifests/%d", m.ID), "", &full))
	require.NotNil(t, full.LoadingSheet)
	assert.Len(t, full.LoadingSheet.Dockets, 1)
	assert.Len(t, full.Thcs, 1)

	t.Run("exports", func(t *testing.T) {
		resp, err := app.Test(authed(c, httptest.NewRequest("GET", fmt.Sprintf("/api/manifests/%d/export.xlsx", m.ID), nil)), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "MF-1.xlsx")

		status, _ := c.send(httptest.NewRequest("GET", fmt.Sprintf("/api/manifests/%d/pdf", m.ID), nil))
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})

	// POD upload delivers the docket
	body, ct := podUpload(t, d.ID)
	req := httptest.NewRequest("POST", "/api/pods/upload", body)
	req.Header.Set("Content-Type", ct)
	status, raw := c.send(req)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var p models.Pod
	require.NoError(t, json.Unmarshal(raw, &p))

	imgStatus, _ := c.send(httptest.NewRequest("GET", p.ImageRef, nil))
	assert.Equal(t, http.StatusOK, imgStatus)

	require.Equal(t, http.StatusOK, c.json("POST", fmt.Sprintf("/api/pods/%d/analyze", p.ID), "", &p))
	require.Equal(t, http.StatusOK, c.json("POST", fmt.Sprintf("/api/pods/%d/review", p.ID), `{"status":"approved"}`, &p))
	assert.Equal(t, models.PodApproved, p.Status)

	require.Equal(t, http.StatusOK, c.json("GET", "/api/dockets/DKT-1", "", &d))
	assert.Equal(t, models.DocketDelivered, d.Status)
	require.NotNil(t, d.Pod)
	assert.Equal(t, models.PodApproved, d.Pod.Status)

	var logs []audit.AuditLogResponse
	require.Equal(t, http.StatusOK, c.json("GET", "/api/audit-logs", "", &logs))
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{
		models.ActionPodReviewed,
		models.ActionPodAnalyzed,
		models.ActionPodSubmitted,
		models.ActionThcUpdated,
		models.ActionThcCreated,
		models.ActionManifestGenerated,
		models.ActionLoadingSheetCreated,
		models.ActionDocketCreated,
		models.ActionUserRegistered,
	}, actions)
	assert.Equal(t, "ops", logs[0].Username)

	require.Equal(t, http.StatusOK, c.json("GET", "/api/audit-logs?search=manifest&limit=5", "", &logs))
	assert.NotEmpty(t, logs)
	assert.Equal(t, http.StatusBadRequest, c.json("GET", "/api/audit-logs?limit=abc", "", nil))
}

func authed(c *client, req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req
}

func podUpload(t *testing.T, docketID uint) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("docketId", fmt.Sprint(docketID)))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="pod.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
