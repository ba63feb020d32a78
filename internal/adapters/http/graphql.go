package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	floatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Float",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"platform_code": &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"region":        &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
			"max_depth_m":   &graphql.Field{Type: graphql.Float},
			"distance":      &graphql.Field{Type: graphql.Float},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
			"z": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"float_id":      &graphql.Field{Type: graphql.String},
			"platform_code": &graphql.Field{Type: graphql.String},
			"region":        &graphql.Field{Type: graphql.String},
			"position":      &graphql.Field{Type: positionType},
		},
	})

	threadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Thread",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.String},
			"title": &graphql.Field{Type: graphql.String},
			"date":  &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"floats": &graphql.Field{
				Type:        graphql.NewList(floatType),
				Description: "List the full float catalog",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Floats.List(p.Context)
				},
			},
			"float": &graphql.Field{
				Type:        floatType,
				Description: "Get a float by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Floats.GetByID(p.Context, id)
				},
			},
			"floatsNearby": &graphql.Field{
				Type:        graphql.NewList(floatType),
				Description: "Find floats near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Floats.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Projected 3D globe markers for the catalog",
				Args: graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					radius := p.Args["radius"].(float64)
					return deps.Floats.Markers(p.Context, radius)
				},
			},
			"threads": &graphql.Field{
				Type:        graphql.NewList(threadType),
				Description: "Sidebar thread list for the active session",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Chat.Threads(), nil
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
