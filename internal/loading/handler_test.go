package loading

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
	"logistics-backend/internal/database"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadingSheetRoutes(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	st := store.New(db)
	eng := workflow.New(st, audit.NewRecorder(db), workflow.Options{})
	for _, n := range []string{"DKT-1", "DKT-2"} {
		_, err := eng.BookDocket(context.Background(), audit.Actor{}, workflow.BookDocketInput{
			DocketNumber: n, SenderName: "Acme", SenderAddress: "Mumbai", ReceiverName: "Globex", ReceiverAddress: "Pune",
			Items: []workflow.ItemInput{{Description: "Crates", Weight: 10, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler})
	app.Get("/loading-sheets", ListHandler(st))
	app.Post("/loading-sheets", CreateHandler(eng))
	app.Get("/loading-sheets/:id", GetHandler(st))

	send := func(method, path, body string) (int, []byte) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, raw
	}

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"no dockets", `{"vehicle_number":"V1","driver_name":"D","destination":"Pune","docket_ids":[]}`, http.StatusBadRequest},
		{"no vehicle", `{"driver_name":"D","destination":"Pune","docket_ids":[1]}`, http.StatusBadRequest},
		{"unknown docket", `{"vehicle_number":"V1","driver_name":"D","destination":"Pune","docket_ids":[1,99]}`, http.StatusNotFound},
		{"bad status", `{"vehicle_number":"V1","driver_name":"D","destination":"Pune","status":"shipped","docket_ids":[1]}`, http.StatusBadRequest},
		{"sheet number with a slash", `{"sheet_number":"LS/1","vehicle_number":"V1","driver_name":"D","destination":"Pune","docket_ids":[1]}`, http.StatusBadRequest},
		{"vehicle number too long", `{"vehicle_number":"` + strings.Repeat("V", 31) + `","driver_name":"D","destination":"Pune","docket_ids":[1]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := send("POST", "/loading-sheets", tt.body)
			assert.Equal(t, tt.status, status)
		})
	}

	status, raw := send("POST", "/loading-sheets", `{"sheet_number":"LS-1","vehicle_number":"V1","driver_name":"D","destination":"Pune","status":"finalized","docket_ids":[2,1,2]}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var ls models.LoadingSheet
	require.NoError(t, json.Unmarshal(raw, &ls))
	assert.Equal(t, models.LoadingSheetFinalized, ls.Status)
	require.Len(t, ls.Dockets, 2)
	assert.Equal(t, models.DocketLoaded, ls.Dockets[0].Status)

	status, _ = send("GET", "/loading-sheets/1", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = send("GET", "/loading-sheets/2", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = send("GET", "/loading-sheets/zero", "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = send("GET", "/loading-sheets/1abc", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = send("GET", "/loading-sheets", "")
	require.Equal(t, http.StatusOK, status)
	var list []models.LoadingSheet
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)
}
