package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	compassType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CompassLabel",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"abbr": &graphql.Field{Type: graphql.String},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"city":     &graphql.Field{Type: graphql.String},
			"state":    &graphql.Field{Type: graphql.String},
			"county":   &graphql.Field{Type: graphql.String},
			"province": &graphql.Field{Type: graphql.String},
			"country":  &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	neighborhoodType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Neighborhood",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"city_id": &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"slug":    &graphql.Field{Type: graphql.String},
		},
	})

	spotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Spot",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"address":       &graphql.Field{Type: graphql.String},
			"city_id":       &graphql.Field{Type: graphql.String},
			"city":          &graphql.Field{Type: cityType},
			"location":      &graphql.Field{Type: coordinateType},
			"neighborhoods": &graphql.Field{Type: graphql.NewList(neighborhoodType)},
		},
	})

	distanceResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DistanceResult",
		Fields: graphql.Fields{
			"spot":           &graphql.Field{Type: spotType},
			"distance_miles": &graphql.Field{Type: graphql.Float},
			"direction":      &graphql.Field{Type: compassType},
		},
	})

	directionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Direction",
		Fields: graphql.Fields{
			"distance_miles": &graphql.Field{Type: graphql.Float},
			"bearing":        &graphql.Field{Type: graphql.Float},
			"direction":      &graphql.Field{Type: compassType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"cities": &graphql.Field{
				Type:        graphql.NewList(cityType),
				Description: "List cities, optionally filtered by country and state",
				Args: graphql.FieldConfigArgument{
					"country": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"state":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.List(p.Context, p.Args["country"].(string), p.Args["state"].(string))
				},
			},
			"city": &graphql.Field{
				Type:        cityType,
				Description: "Get a city by slug",
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.GetBySlug(p.Context, p.Args["slug"].(string))
				},
			},
			"cityNeighborhoods": &graphql.Field{
				Type:        graphql.NewList(neighborhoodType),
				Description: "List the neighborhoods recorded for a city",
				Args: graphql.FieldConfigArgument{
					"city_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Cities.Neighborhoods(p.Context, p.Args["city_id"].(string))
				},
			},
			"spot": &graphql.Field{
				Type:        spotType,
				Description: "Get a spot by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Spots.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"citySpots": &graphql.Field{
				Type:        graphql.NewList(spotType),
				Description: "List spots registered in a city",
				Args: graphql.FieldConfigArgument{
					"city_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"offset":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Spots.ListByCity(p.Context,
						p.Args["city_id"].(string), p.Args["offset"].(int), p.Args["limit"].(int))
				},
			},
			"nearestSpots": &graphql.Field{
				Type:        graphql.NewList(distanceResultType),
				Description: "Find spots near a coordinate, sorted by distance",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 25.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.Coordinate{
						Lat: p.Args["lat"].(float64),
						Lng: p.Args["lng"].(float64),
					}
					return deps.Proximity.NearestToPoint(p.Context, center,
						p.Args["limit"].(int), p.Args["radius"].(float64))
				},
			},
			"direction": &graphql.Field{
				Type:        directionType,
				Description: "Distance, bearing, and compass label between two points",
				Args: graphql.FieldConfigArgument{
					"from_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lng":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"reverse":  &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.Coordinate{Lat: p.Args["from_lat"].(float64), Lng: p.Args["from_lng"].(float64)}
					to := domain.Coordinate{Lat: p.Args["to_lat"].(float64), Lng: p.Args["to_lng"].(float64)}
					reverse := p.Args["reverse"].(bool)

					bearing := geospatial.InitialBearing(from, to)
					if reverse {
						bearing = geospatial.InitialBearing(to, from)
					}
					return map[string]interface{}{
						"distance_miles": geospatial.DistanceMiles(from, to),
						"bearing":        bearing,
						"direction":      geospatial.CompassDirection(from, to, reverse),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
