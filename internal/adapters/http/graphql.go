package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
// Objects resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.Int},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"distance":    &graphql.Field{Type: graphql.Float, Description: "Meters from the query center"},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserStats",
		Fields: graphql.Fields{
			"followers": &graphql.Field{Type: graphql.Int},
			"following": &graphql.Field{Type: graphql.Int},
			"likes":     &graphql.Field{Type: graphql.Int},
			"visits":    &graphql.Field{Type: graphql.Int},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"username":     &graphql.Field{Type: graphql.String},
			"display_name": &graphql.Field{Type: graphql.String},
			"bio":          &graphql.Field{Type: graphql.String},
			"website":      &graphql.Field{Type: graphql.String},
			"avatar_url":   &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"stats":        &graphql.Field{Type: statsType},
			"distance":     &graphql.Field{Type: graphql.Float},
		},
	})

	pointArgs := func(radius float64) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: radius},
			"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places within a radius, nearest first",
				Args:        pointArgs(defaultPlaceRadius),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lng"].(float64))
					if err != nil {
						return nil, err
					}
					return deps.Places.FindNearby(p.Context, center, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.Get(p.Context, int64(p.Args["id"].(int)))
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Geodesic distance in meters",
				Args: graphql.FieldConfigArgument{
					"fromLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"fromLng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLng":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.GeoPoint{Lat: p.Args["fromLat"].(float64), Lng: p.Args["fromLng"].(float64)}
					to := domain.GeoPoint{Lat: p.Args["toLat"].(float64), Lng: p.Args["toLng"].(float64)}
					return deps.Places.Distance(p.Context, from, to)
				},
			},
			"usersNearby": &graphql.Field{
				Type:        graphql.NewList(userType),
				Description: "Located users within a radius, nearest first",
				Args:        pointArgs(defaultUserRadius),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lng"].(float64))
					if err != nil {
						return nil, err
					}
					res, err := deps.Users.FindNearby(p.Context, center, p.Args["radius"].(float64), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					return res.Users, nil
				},
			},
			"user": &graphql.Field{
				Type:        userType,
				Description: "Get a user's public profile by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					u, err := deps.Users.Get(p.Context, int64(p.Args["id"].(int)))
					if err != nil {
						return nil, err
					}
					pub := u.Public()
					return &pub, nil
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
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
