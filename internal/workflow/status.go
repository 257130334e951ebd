package workflow

import "logistics-backend/internal/models"

// lifecycle order of a docket; a docket never moves left
var stage = map[models.DocketStatus]int{
	models.DocketBooked:    0,
	models.DocketLoaded:    1,
	models.DocketInTransit: 2,
	models.DocketDelivered: 3,
}

func ValidStatus(s models.DocketStatus) bool {
	_, ok := stage[s]
	return ok
}

// CanAdvance reports whether to lies strictly after from in the lifecycle.
func CanAdvance(from, to models.DocketStatus) bool {
	f, ok1 := stage[from]
	t, ok2 := stage[to]
	return ok1 && ok2 && t > f
}

// Promote returns the status a cascade leaves behind: to when that is a
// forward move, otherwise from unchanged.
func Promote(from, to models.DocketStatus) models.DocketStatus {
	if CanAdvance(from, to) {
		return to
	}
	return from
}

func Terminal(s models.DocketStatus) bool {
	return s == models.DocketDelivered
}
