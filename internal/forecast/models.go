package forecast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field names one weighted metric of a forecast hour.
type Field string

const (
	FieldDaylight               Field = "daylight"
	FieldPrecipitationChance    Field = "precipitationChance"
	FieldTemperature            Field = "temperature"
	FieldPrecipitationIntensity Field = "precipitationIntensity"
	FieldPrecipitationType      Field = "precipitationType"
	FieldTemperatureDewPoint    Field = "temperatureDewPoint"
	FieldWindSpeed              Field = "windSpeed"
	FieldUVIndex                Field = "uvIndex"
	FieldWindGust               Field = "windGust"
	FieldCloudCover             Field = "cloudCover"
)

// Fields returns the fixed field order. Legend order, color assignment and
// stacked column order all follow it.
func Fields() []Field {
	return []Field{
		FieldDaylight,
		FieldPrecipitationChance,
		FieldTemperature,
		FieldPrecipitationIntensity,
		FieldPrecipitationType,
		FieldTemperatureDewPoint,
		FieldWindSpeed,
		FieldUVIndex,
		FieldWindGust,
		FieldCloudCover,
	}
}

// Meta describes where a forecast was produced for.
type Meta struct {
	Country       string `json:"country"`
	LocalizedName string `json:"local"`
}

// Hour is one hourly forecast record. Values holds the weighted field strings
// keyed by field name, e.g. "0.80 (22)".
type Hour struct {
	Time   string           `json:"time"`
	Score  float64          `json:"score"`
	Values map[Field]string `json:"-"`
}

// Value returns the weighted string for a field, or "" when absent.
func (h Hour) Value(f Field) string {
	return h.Values[f]
}

// Timestamp parses Time as RFC3339.
func (h Hour) Timestamp() (time.Time, error) {
	return time.Parse(time.RFC3339, h.Time)
}

// UnmarshalJSON decodes the flat backend hour object. score is accepted as a
// number or as a numeric string.
func (h *Hour) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*h = Hour{Values: make(map[Field]string, len(Fields()))}

	if t, ok := raw["time"]; ok {
		if err := json.Unmarshal(t, &h.Time); err != nil {
			return fmt.Errorf("time: %w", err)
		}
	}

	if s, ok := raw["score"]; ok {
		score, err := decodeNumber(s)
		if err != nil {
			return fmt.Errorf("score: %w", err)
		}
		h.Score = score
	}

	for _, f := range Fields() {
		v, ok := raw[string(f)]
		if !ok {
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			// Some backends send bare numbers for unweighted fields.
			str = strings.TrimSpace(string(v))
		}
		h.Values[f] = str
	}

	return nil
}

// MarshalJSON writes the hour back in the flat backend shape.
func (h Hour) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Values)+2)
	out["time"] = h.Time
	out["score"] = h.Score
	for f, v := range h.Values {
		out[string(f)] = v
	}
	return json.Marshal(out)
}

// Data is a complete forecast response. Hours are chronological.
type Data struct {
	FetchTime int64  `json:"forecastFetchTime"` // epoch millis
	Hours     []Hour `json:"forecast"`
	Meta      Meta   `json:"meta"`
}

// FetchedAt returns FetchTime as a time.Time.
func (d *Data) FetchedAt() time.Time {
	return time.UnixMilli(d.FetchTime)
}

// UnmarshalJSON accepts forecastFetchTime as epoch millis or an ISO-8601 string.
func (d *Data) UnmarshalJSON(b []byte) error {
	var payload struct {
		FetchTime json.RawMessage `json:"forecastFetchTime"`
		Hours     []Hour          `json:"forecast"`
		Meta      Meta            `json:"meta"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return err
	}

	d.Hours = payload.Hours
	d.Meta = payload.Meta
	d.FetchTime = 0

	if len(payload.FetchTime) == 0 || string(payload.FetchTime) == "null" {
		return nil
	}

	var iso string
	if err := json.Unmarshal(payload.FetchTime, &iso); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, iso)
		if err != nil {
			return fmt.Errorf("forecastFetchTime: %w", err)
		}
		d.FetchTime = ts.UnixMilli()
		return nil
	}

	ms, err := decodeNumber(payload.FetchTime)
	if err != nil {
		return fmt.Errorf("forecastFetchTime: %w", err)
	}
	d.FetchTime = int64(ms)
	return nil
}

// Query identifies one forecast request.
type Query struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	Lang    string  `json:"lang" validate:"required"`
	TZ      string  `json:"tz" validate:"required"`
	Profile string  `json:"profile"`
}

// DefaultProfile is used when no profile was chosen.
const DefaultProfile = "default"

// Key returns a canonical cache key for the query.
func (q Query) Key() string {
	return strings.Join([]string{
		strconv.FormatFloat(q.Lat, 'f', -1, 64),
		strconv.FormatFloat(q.Lon, 'f', -1, 64),
		q.Lang,
		q.TZ,
		q.profile(),
	}, ":")
}

func (q Query) profile() string {
	if q.Profile == "" {
		return DefaultProfile
	}
	return q.Profile
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
