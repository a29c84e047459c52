package dashboard

import (
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/i474232898/forecast-dashboard/internal/geo"
)

// Details is the user details section.
type Details struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Language  string  `json:"language"`
	Timezone  string  `json:"timezone"`
	Sunrise   string  `json:"sunrise,omitempty"`
	Sunset    string  `json:"sunset,omitempty"`
}

// BuildDetails renders the location state. Sunrise and sunset are given in
// loc for the day containing now, and left empty where the sun does not
// rise or set.
func BuildDetails(state geo.State, lang string, loc *time.Location, now time.Time) Details {
	d := Details{
		Status:   state.Status.String(),
		Message:  state.Message,
		Language: lang,
		Timezone: loc.String(),
	}
	if state.Status != geo.StatusLocated || state.Position == nil {
		return d
	}

	pos := state.Position
	d.Latitude = pos.Latitude
	d.Longitude = pos.Longitude
	d.Accuracy = pos.Accuracy

	times := suncalc.GetTimes(now, pos.Latitude, pos.Longitude)
	d.Sunrise = clock(times["sunrise"].Value, loc)
	d.Sunset = clock(times["sunset"].Value, loc)
	return d
}

func clock(t time.Time, loc *time.Location) string {
	if t.IsZero() || t.Year() < 1900 {
		return ""
	}
	return t.In(loc).Format("15:04")
}
