package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/usecases"
	"github.com/jcroft/spots/internal/pkg/geospatial"
)

// SpotSubmission is the request body for registering a spot. Either an
// address (including the "(lat, lng)" form a map click produces) or an
// explicit coordinate pair must be present.
type SpotSubmission struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateSpotHandler registers a new spot from an address or map click.
func CreateSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SpotSubmission
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Address == "" && (body.Latitude == nil || body.Longitude == nil) {
			return errValidation(c, "address", "an address or a coordinate pair is required")
		}

		spot, err := deps.Spots.ResolveSpot(c.Context(), domain.Submission{
			Address:   body.Address,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
		})
		if err != nil {
			if ve, ok := usecases.IsValidationError(err); ok {
				LoggerFromCtx(c.UserContext()).Info("spot submission rejected",
					"field", ve.Field, "address", body.Address)
				return errValidation(c, ve.Field, ve.Message)
			}
			LoggerFromCtx(c.UserContext()).Error("spot submission failed", "error", err)
			return errInternal(c, err.Error())
		}

		return c.Status(201).JSON(spot)
	}
}

// GetSpotHandler returns a single spot with its city and neighborhoods.
func GetSpotHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "spot id is required")
		}
		spot, err := deps.Spots.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if spot == nil {
			return errNotFound(c, "spot not found")
		}
		return c.JSON(spot)
	}
}

// NearestSpotsHandler returns the spots closest to an existing spot, each
// with its exact distance and compass direction.
func NearestSpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "spot id is required")
		}
		spot, err := deps.Spots.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if spot == nil {
			return errNotFound(c, "spot not found")
		}

		limit := c.QueryInt("limit", usecases.DefaultNearestLimit)
		radius := c.QueryFloat("radius", usecases.DefaultRadiusMiles)

		results, err := deps.Proximity.NearestToSpot(c.Context(), spot, limit, radius)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"spot": spot, "nearest": results})
	}
}

// NearestToPointHandler returns the spots closest to an arbitrary coordinate.
func NearestToPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := requireCoordinate(c, "lat", "lng")
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", usecases.DefaultNearestLimit)
		radius := c.QueryFloat("radius", usecases.DefaultRadiusMiles)

		results, err := deps.Proximity.NearestToPoint(c.Context(), *center, limit, radius)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"center": center, "nearest": results})
	}
}

// DirectionHandler computes the distance, initial bearing, and compass label
// between two points. Compass labels are suppressed beyond 100 miles, where
// a single sector stops being meaningful.
func DirectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := requireCoordinate(c, "from_lat", "from_lng")
		if err != nil {
			return err
		}
		to, err := requireCoordinate(c, "to_lat", "to_lng")
		if err != nil {
			return err
		}
		reverse := c.QueryBool("reverse", false)

		bearing := geospatial.InitialBearing(*from, *to)
		if reverse {
			bearing = geospatial.InitialBearing(*to, *from)
		}

		return c.JSON(fiber.Map{
			"from":           from,
			"to":             to,
			"distance_miles": geospatial.DistanceMiles(*from, *to),
			"bearing":        bearing,
			"direction":      geospatial.CompassDirection(*from, *to, reverse),
		})
	}
}

// ListCitiesHandler returns cities, optionally filtered by country and
// state/province.
func ListCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities, err := deps.Cities.List(c.Context(), c.Query("country"), c.Query("state"))
		if err != nil {
			return errInternal(c, err.Error())
		}

		window, pg := paginate(c, cities, 100, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: window, Pagination: pg})
	}
}

// GetCityHandler returns a single city by slug.
func GetCityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}
		return c.JSON(city)
	}
}

// NearbyCitiesHandler returns cities near a city, sorted by distance.
func NearbyCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", usecases.DefaultNearestLimit)
		radius := c.QueryFloat("radius", usecases.DefaultRadiusMiles)

		nearby, err := deps.Proximity.NearbyCities(c.Context(), city, limit, radius)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"city": city, "nearby": nearby})
	}
}

// CitySpotsHandler returns the spots registered in a city, newest first.
func CitySpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		spots, err := deps.Spots.ListByCity(c.Context(), city.ID, offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"city": city, "spots": spots})
	}
}

// CityNeighborhoodsHandler returns a city's recorded neighborhoods.
func CityNeighborhoodsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}
		hoods, err := deps.Cities.Neighborhoods(c.Context(), city.ID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"city": city, "neighborhoods": hoods})
	}
}

// GetNeighborhoodHandler returns one neighborhood of a city by slug.
func GetNeighborhoodHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}
		hood, err := deps.Cities.GetNeighborhood(c.Context(), city.ID, c.Params("hood"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if hood == nil {
			return errNotFound(c, "neighborhood not found")
		}
		hood.City = city
		return c.JSON(hood)
	}
}

// NeighborhoodSpotsHandler returns the spots attached to a neighborhood.
func NeighborhoodSpotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := cityBySlug(c, deps)
		if err != nil {
			return err
		}
		hood, err := deps.Cities.GetNeighborhood(c.Context(), city.ID, c.Params("hood"))
		if err != nil {
			return errInternal(c, err.Error())
		}
		if hood == nil {
			return errNotFound(c, "neighborhood not found")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		spots, err := deps.Spots.ListByNeighborhood(c.Context(), hood.ID, offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"city": city, "neighborhood": hood, "spots": spots})
	}
}

// Stats holds row counts from the spot tables.
type Stats struct {
	Cities        int    `json:"cities"`
	Neighborhoods int    `json:"neighborhoods"`
	Spots         int    `json:"spots"`
	LastSpot      string `json:"last_spot,omitempty"`
}

// StatsHandler returns row counts from the spot tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats Stats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM cities),
				(SELECT count(*) FROM neighborhoods),
				(SELECT count(*) FROM spots),
				COALESCE((SELECT max(created_at)::text FROM spots), '')
		`)
		if err := row.Scan(&stats.Cities, &stats.Neighborhoods, &stats.Spots, &stats.LastSpot); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// cityBySlug loads the city named in the :slug route param, writing the
// error response itself when the param is missing or the city is unknown.
func cityBySlug(c *fiber.Ctx, deps *Dependencies) (*domain.City, error) {
	slug := c.Params("slug")
	if slug == "" {
		return nil, errBadRequest(c, "city slug is required")
	}
	city, err := deps.Cities.GetBySlug(c.Context(), slug)
	if err != nil {
		return nil, errInternal(c, err.Error())
	}
	if city == nil {
		return nil, errNotFound(c, "city not found")
	}
	return city, nil
}

// requireCoordinate reads a lat/lng query pair. Presence is checked on the
// raw string so that 0 remains a valid coordinate.
func requireCoordinate(c *fiber.Ctx, latKey, lngKey string) (*domain.Coordinate, error) {
	latRaw, lngRaw := c.Query(latKey), c.Query(lngKey)
	if latRaw == "" || lngRaw == "" {
		return nil, errBadRequest(c, latKey+" and "+lngKey+" are required")
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errBadRequest(c, latKey+" must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, errBadRequest(c, lngKey+" must be a number")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, errBadRequest(c, "coordinate out of range")
	}
	return &domain.Coordinate{Lat: lat, Lng: lng}, nil
}
