package docket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/database"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := setupAppWithEngine(t)
	return app
}

func setupAppWithEngine(t *testing.T) (*fiber.App, *workflow.Engine) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	st := store.New(db)
	rec := audit.NewRecorder(db)
	eng := workflow.New(st, rec, workflow.Options{})

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUsernameKey, "dispatch")
		c.Locals(auth.CtxUserRoleKey, models.RoleDispatcher)
		return c.Next()
	})
	app.Get("/dockets", ListHandler(st))
	app.Post("/dockets", CreateHandler(eng))
	app.Get("/dockets/:id", GetHandler(st))
	app.Get("/dockets/:id/tracker", TrackerHandler(st, rec))
	app.Patch("/dockets/:id/status", ForceStatusHandler(eng))
	return app, eng
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

const bookBody = `{
	"docket_number": "DKT-1",
	"sender_name": "Acme Traders",
	"sender_address": "12 Dock Road, Mumbai",
	"receiver_name": "Globex",
	"receiver_address": "4 Ring Road, Pune",
	"total_weight": 120,
	"total_packages": 3,
	"items": [{"description": "Steel pipes", "weight": 120, "quantity": 3, "package_type": "bundle"}],
	"geofence_lat": 18.5204, "geofence_lng": 73.8567, "geofence_radius_m": 500,
	"current_lat": 18.5210, "current_lng": 73.8570
}`

func TestCreateAndGet(t *testing.T) {
	app := setupApp(t)

	status, raw := do(t, app, "POST", "/dockets", bookBody)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created models.Docket
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, models.DocketBooked, created.Status)
	require.Len(t, created.Items, 1)

	t.Run("by id", func(t *testing.T) {
		status, raw := do(t, app, "GET", "/dockets/1", "")
		require.Equal(t, http.StatusOK, status)
		var d models.Docket
		require.NoError(t, json.Unmarshal(raw, &d))
		assert.Equal(t, "DKT-1", d.DocketNumber)
	})

	t.Run("by number", func(t *testing.T) {
		status, raw := do(t, app, "GET", "/dockets/DKT-1", "")
		require.Equal(t, http.StatusOK, status)
		var d models.Docket
		require.NoError(t, json.Unmarshal(raw, &d))
		assert.Equal(t, created.ID, d.ID)
	})

	t.Run("missing", func(t *testing.T) {
		status, _ := do(t, app, "GET", "/dockets/404", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCreateValidation(t *testing.T) {
	app := setupApp(t)

	status, raw := do(t, app, "POST", "/dockets", `{"sender_name":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "sender_address", body["field"])

	status, _ = do(t, app, "POST", "/dockets", `{"sender_name":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/dockets", bookBody)
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, app, "POST", "/dockets", bookBody)
	assert.Equal(t, http.StatusConflict, status)
}

func TestListFilters(t *testing.T) {
	app := setupApp(t)
	status, _ := do(t, app, "POST", "/dockets", bookBody)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"all", "", http.StatusOK, 1},
		{"search sender", "?search=acme", http.StatusOK, 1},
		{"search miss", "?search=initech", http.StatusOK, 0},
		{"status match", "?status=booked", http.StatusOK, 1},
		{"status miss", "?status=delivered", http.StatusOK, 0},
		{"bad status", "?status=lost", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := do(t, app, "GET", "/dockets"+tt.query, "")
			require.Equal(t, tt.status, status)
			if status != http.StatusOK {
				return
			}
			var list []models.Docket
			require.NoError(t, json.Unmarshal(raw, &list))
			assert.Len(t, list, tt.count)
		})
	}
}

func TestForceStatusAndTracker(t *testing.T) {
	app := setupApp(t)
	status, _ := do(t, app, "POST", "/dockets", bookBody)
	require.Equal(t, http.StatusCreated, status)

	status, raw := do(t, app, "PATCH", "/dockets/1/status", `{"status":"in_transit"}`)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, _ = do(t, app, "PATCH", "/dockets/1/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	for _, ref := range []string{"abc", "1abc", "1%20", "0"} {
		status, _ = do(t, app, "PATCH", "/dockets/"+ref+"/status", `{"status":"booked"}`)
		assert.Equal(t, http.StatusBadRequest, status, ref)
	}

	status, raw = do(t, app, "GET", "/dockets/1/tracker", "")
	require.Equal(t, http.StatusOK, status)
	var tr TrackerResponse
	require.NoError(t, json.Unmarshal(raw, &tr))

	assert.Equal(t, models.DocketInTransit, tr.Status)
	require.NotNil(t, tr.DistanceM)
	require.NotNil(t, tr.Within)
	assert.True(t, *tr.Within)
	require.Len(t, tr.Timeline, 2)
	assert.Equal(t, models.ActionDocketStatusForced, tr.Timeline[0].Action)
	assert.Equal(t, models.ActionDocketCreated, tr.Timeline[1].Action)
	assert.Equal(t, "dispatch", tr.Timeline[0].Username)
}

func TestTrackerTimelineFollowsLifecycle(t *testing.T) {
	app, eng := setupAppWithEngine(t)
	ctx := context.Background()
	actor := audit.Actor{}

	status, _ := do(t, app, "POST", "/dockets", bookBody)
	require.Equal(t, http.StatusCreated, status)

	// a second docket on another sheet must not leak into the timeline
	other, err := eng.BookDocket(ctx, actor, workflow.BookDocketInput{
		DocketNumber: "DKT-2", SenderName: "Initech", SenderAddress: "1 Main St",
		ReceiverName: "Hooli", ReceiverAddress: "2 Side St", TotalWeight: 5, TotalPackages: 1,
		Items: []workflow.ItemInput{{Description: "Envelope", Weight: 5, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = eng.AssembleLoadingSheet(ctx, actor, workflow.AssembleLoadingSheetInput{
		SheetNumber: "LS-2", VehicleNumber: "MH01ZZ0001", DriverName: "Anil", Destination: "Nashik",
		DocketIDs: []uint{other.ID},
	})
	require.NoError(t, err)

	ls, err := eng.AssembleLoadingSheet(ctx, actor, workflow.AssembleLoadingSheetInput{
		SheetNumber: "LS-1", VehicleNumber: "MH12AB1234", DriverName: "Ravi", Destination: "Pune",
		DocketIDs: []uint{1},
	})
	require.NoError(t, err)
	_, err = eng.GenerateManifest(ctx, actor, workflow.GenerateManifestInput{ManifestNumber: "MF-1", LoadingSheetID: ls.ID})
	require.NoError(t, err)
	_, err = eng.SubmitPod(ctx, actor, workflow.SubmitPodInput{DocketID: 1, ImageRef: "https://cdn.example.com/pod.jpg"})
	require.NoError(t, err)

	status, raw := do(t, app, "GET", "/dockets/DKT-1/tracker", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var tr TrackerResponse
	require.NoError(t, json.Unmarshal(raw, &tr))

	actions := make([]string, 0, len(tr.Timeline))
	for _, l := range tr.Timeline {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{
		models.ActionPodSubmitted,
		models.ActionManifestGenerated,
		models.ActionLoadingSheetCreated,
		models.ActionDocketCreated,
	}, actions)
	assert.Equal(t, models.DocketDelivered, tr.Status)
}

func TestBuildTracker(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	t.Run("outside geofence", func(t *testing.T) {
		d := &models.Docket{
			ID: 1, DocketNumber: "DKT-9", Status: models.DocketInTransit,
			GeofenceLat: f(18.5204), GeofenceLng: f(73.8567), GeofenceRadiusM: f(500),
			CurrentLat: f(19.0760), CurrentLng: f(72.8777),
		}
		tr := BuildTracker(d, nil)
		require.NotNil(t, tr.DistanceM)
		assert.InDelta(t, 120000, *tr.DistanceM, 10000)
		assert.False(t, *tr.Within)
		assert.NotNil(t, tr.Timeline)
	})

	t.Run("no position", func(t *testing.T) {
		d := &models.Docket{ID: 2, GeofenceLat: f(1), GeofenceLng: f(1), GeofenceRadiusM: f(100)}
		tr := BuildTracker(d, nil)
		assert.Nil(t, tr.Position)
		assert.NotNil(t, tr.Geofence)
		assert.Nil(t, tr.DistanceM)
		assert.Nil(t, tr.Within)
	})
}
