package docket

import (
	"logistics-backend/internal/audit"
	"logistics-backend/internal/geocode"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

const timelineLimit = 50

type GeofenceView struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM float64 `json:"radius_m"`
}

type TrackerResponse struct {
	DocketID     uint                     `json:"docket_id"`
	DocketNumber string                   `json:"docket_number"`
	Status       models.DocketStatus      `json:"status"`
	Position     *geocode.Coordinate      `json:"position"`
	Geofence     *GeofenceView            `json:"geofence"`
	DistanceM    *float64                 `json:"distance_m"`
	Within       *bool                    `json:"within_geofence"`
	Pod          *models.Pod              `json:"pod,omitempty"`
	Timeline     []audit.AuditLogResponse `json:"timeline"`
}

// BuildTracker derives the live view of a docket. Distance and the geofence
// flag are only set when both the position and the geofence are known.
func BuildTracker(d *models.Docket, timeline []models.AuditLog) TrackerResponse {
	resp := TrackerResponse{
		DocketID:     d.ID,
		DocketNumber: d.DocketNumber,
		Status:       d.Status,
		Pod:          d.Pod,
		Timeline:     make([]audit.AuditLogResponse, 0, len(timeline)),
	}

	if d.CurrentLat != nil && d.CurrentLng != nil {
		resp.Position = &geocode.Coordinate{Lat: *d.CurrentLat, Lng: *d.CurrentLng}
	}
	if d.GeofenceLat != nil && d.GeofenceLng != nil {
		gf := &GeofenceView{Lat: *d.GeofenceLat, Lng: *d.GeofenceLng}
		if d.GeofenceRadiusM != nil {
			gf.RadiusM = *d.GeofenceRadiusM
		}
		resp.Geofence = gf
	}

	if resp.Position != nil && resp.Geofence != nil {
		dist := geocode.DistanceM(*resp.Position, geocode.Coordinate{Lat: resp.Geofence.Lat, Lng: resp.Geofence.Lng})
		within := resp.Geofence.RadiusM > 0 && dist <= resp.Geofence.RadiusM
		resp.DistanceM = &dist
		resp.Within = &within
	}

	for _, l := range timeline {
		resp.Timeline = append(resp.Timeline, audit.ToResponse(l))
	}
	return resp
}

// GET /api/dockets/:id/tracker
func TrackerHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := lookup(c, st)
		if err != nil {
			return err
		}

		trail, err := st.DocketTrail(c.UserContext(), d.ID)
		if err != nil {
			return err
		}

		logs, err := rec.List(c.UserContext(), audit.ListQuery{
			Entities: timelineEntities(d.ID, trail),
			Limit:    timelineLimit,
		})
		if err != nil {
			return err
		}
		return c.JSON(BuildTracker(d, logs))
	}
}

// timelineEntities covers the docket itself plus the sheet, manifest and
// PODs it moved through.
func timelineEntities(docketID uint, trail store.DocketTrail) []audit.EntityRef {
	refs := []audit.EntityRef{{Type: models.EntityDocket, ID: docketID}}
	if trail.SheetID != 0 {
		refs = append(refs, audit.EntityRef{Type: models.EntityLoadingSheet, ID: trail.SheetID})
	}
	if trail.ManifestID != 0 {
		refs = append(refs, audit.EntityRef{Type: models.EntityManifest, ID: trail.ManifestID})
	}
	for _, id := range trail.PodIDs {
		refs = append(refs, audit.EntityRef{Type: models.EntityPod, ID: id})
	}
	return refs
}
