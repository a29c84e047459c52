package httpapi

import (
	_ "embed"
	"errors"
	"log"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-dashboard/internal/chart"
	"github.com/i474232898/forecast-dashboard/internal/dashboard"
	"github.com/i474232898/forecast-dashboard/internal/forecast"
	"github.com/i474232898/forecast-dashboard/internal/geo"
	"github.com/i474232898/forecast-dashboard/internal/prefs"
	"github.com/i474232898/forecast-dashboard/internal/series"
)

var validate = validator.New()

//go:embed web/index.html
var indexPage []byte

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Forecasts dashboard.Forecaster
	Profile   *prefs.Profile
	Palette   series.Palette

	// Defaults for queries that leave them out.
	Lang        string
	Timezone    string
	ChartWidth  int
	ChartHeight int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Palette == nil {
		deps.Palette = series.DefaultPalette()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexPage)
	})

	api := app.Group("/api")

	api.Get("/profiles", func(c *fiber.Ctx) error {
		list, err := deps.Forecasts.Profiles(c.UserContext())
		if err != nil {
			log.Printf("ERROR: fetch profiles: %v", err)
			return fiber.NewError(fiber.StatusBadGateway, dashboard.MessageProfilesFailed)
		}
		return c.JSON(fiber.Map{"profiles": list})
	})

	api.Get("/profile", func(c *fiber.Ctx) error {
		return c.JSON(profileBody{Profile: currentProfile(deps.Profile)})
	})

	api.Put("/profile", func(c *fiber.Ctx) error {
		if deps.Profile == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "preferences are not available")
		}

		var req profileBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := deps.Profile.Select(c.UserContext(), req.Profile); err != nil {
			log.Printf("ERROR: save profile %q: %v", req.Profile, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save profile")
		}
		return c.JSON(profileBody{Profile: deps.Profile.Current()})
	})

	api.Get("/dashboard", func(c *fiber.Ctx) error {
		req, err := parseForecastQuery(c, deps)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		details := dashboard.BuildDetails(req.located(), req.query.Lang, req.loc, time.Now())
		resp := dashboardResponse{Details: details}

		data, err := deps.Forecasts.Forecast(c.UserContext(), req.query)
		if err != nil {
			log.Printf("ERROR: fetch forecast %s: %v", req.query.Key(), err)
			resp.Forecast.Forecast = dashboard.Forecast{
				Status:  dashboard.ForecastFailed,
				Message: dashboard.MessageFetchFailed,
			}
			return c.JSON(resp)
		}

		section, charts := dashboard.Compose(data, req.loc, deps.Palette)
		flow := chart.FlowOption(charts.Flow)
		stacked := chart.StackedOption(charts.Stacked)
		resp.Forecast = forecastResponse{
			Forecast:      section,
			Meta:          &data.Meta,
			FetchTime:     data.FetchTime,
			FlowOption:    &flow,
			StackedOption: &stacked,
		}
		return c.JSON(resp)
	})

	api.Get("/charts/:kind.png", func(c *fiber.Ctx) error {
		kind := c.Params("kind")
		if !dashboard.IsChart(kind) {
			return fiber.NewError(fiber.StatusNotFound, "unknown chart "+kind)
		}

		req, err := parseForecastQuery(c, deps)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		size := chartSize{
			Width:  c.QueryInt("width", deps.ChartWidth),
			Height: c.QueryInt("height", deps.ChartHeight),
		}
		if err := validate.Struct(size); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		data, err := deps.Forecasts.Forecast(c.UserContext(), req.query)
		if err != nil {
			log.Printf("ERROR: fetch forecast %s: %v", req.query.Key(), err)
			return fiber.NewError(fiber.StatusBadGateway, dashboard.MessageFetchFailed)
		}
		_, charts := dashboard.Compose(data, req.loc, deps.Palette)

		frame, err := dashboard.RenderChart(kind, charts, chart.Size{Width: size.Width, Height: size.Height})
		if err != nil {
			log.Printf("ERROR: render %s chart: %v", kind, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
		}

		c.Type("png")
		return c.Send(frame)
	})
}

type profileBody struct {
	Profile string `json:"profile" validate:"required,max=64"`
}

type chartSize struct {
	Width  int `validate:"gte=100,lte=4096"`
	Height int `validate:"gte=100,lte=4096"`
}

type forecastResponse struct {
	dashboard.Forecast
	Meta          *forecast.Meta `json:"meta,omitempty"`
	FetchTime     int64          `json:"fetchTime,omitempty"`
	FlowOption    *chart.Option  `json:"flowOption,omitempty"`
	StackedOption *chart.Option  `json:"stackedOption,omitempty"`
}

type dashboardResponse struct {
	Details  dashboard.Details `json:"details"`
	Forecast forecastResponse  `json:"forecast"`
}

// forecastRequest is a validated forecast query plus its time zone.
type forecastRequest struct {
	query forecast.Query
	loc   *time.Location
}

// located is the location state of a caller that sent its own position.
func (r forecastRequest) located() geo.State {
	return geo.State{
		Status:   geo.StatusLocated,
		Position: &geo.Position{Latitude: r.query.Lat, Longitude: r.query.Lon},
	}
}

func parseForecastQuery(c *fiber.Ctx, deps Deps) (forecastRequest, error) {
	var req forecastRequest

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return req, errors.New("lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return req, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return req, errors.New("invalid lon")
	}

	q := forecast.Query{
		Lat:     lat,
		Lon:     lon,
		Lang:    c.Query("lang", deps.Lang),
		TZ:      c.Query("tz", deps.Timezone),
		Profile: c.Query("profile", currentProfile(deps.Profile)),
	}
	if err := validate.Struct(q); err != nil {
		return req, err
	}

	loc, err := time.LoadLocation(q.TZ)
	if err != nil {
		return req, errors.New("invalid tz")
	}

	req.query = q
	req.loc = loc
	return req, nil
}

func currentProfile(p *prefs.Profile) string {
	if p == nil {
		return forecast.DefaultProfile
	}
	return p.Current()
}
