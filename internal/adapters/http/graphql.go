package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/regions"
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

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"center":        &graphql.Field{Type: geoPointType},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"area_names":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	merchantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Merchant",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"address":  &graphql.Field{Type: graphql.String},
			"phone":    &graphql.Field{Type: graphql.String},
		},
	})

	benefitType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Benefit",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"merchant_id":      &graphql.Field{Type: graphql.String},
			"title":            &graphql.Field{Type: graphql.String},
			"kind":             &graphql.Field{Type: graphql.String},
			"discount_percent": &graphql.Field{Type: graphql.Int},
			"discount_amount":  &graphql.Field{Type: graphql.Int},
			"gift_description": &graphql.Field{Type: graphql.String},
			"location":         &graphql.Field{Type: geoPointType},
			"region_id":        &graphql.Field{Type: graphql.String},
			"active":           &graphql.Field{Type: graphql.Boolean},
			"distance":         &graphql.Field{Type: graphql.Float},
		},
	})

	couponType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coupon",
		Fields: graphql.Fields{
			"token":      &graphql.Field{Type: graphql.String},
			"benefit_id": &graphql.Field{Type: graphql.String},
			"status":     &graphql.Field{Type: graphql.String},
			"remaining":  &graphql.Field{Type: graphql.String},
			"pin":        &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "The fixed Jeju region table",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return regions.Table, nil
				},
			},
			"resolveRegion": &graphql.Field{
				Type:        regionType,
				Description: "Map a coordinate onto the region table",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					return regions.Find(domain.GeoPoint{Lat: lat, Lon: lon}, regions.Table), nil
				},
			},
			"merchants": &graphql.Field{
				Type:        graphql.NewList(merchantType),
				Description: "List all merchants",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Merchants.List(p.Context)
				},
			},
			"benefitsNearby": &graphql.Field{
				Type:        graphql.NewList(benefitType),
				Description: "Find benefits near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 3000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Benefits.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"searchBenefits": &graphql.Field{
				Type:        graphql.NewList(benefitType),
				Description: "Search benefits by title (fuzzy matching)",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Benefits.Search(p.Context, q, nil, limit)
				},
			},
			"benefit": &graphql.Field{
				Type:        benefitType,
				Description: "Get a benefit by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Benefits.GetByID(p.Context, id)
				},
			},
			"benefitsByRegion": &graphql.Field{
				Type:        graphql.NewList(benefitType),
				Description: "List benefits in a region (ID, name, or area name)",
				Args: graphql.FieldConfigArgument{
					"region": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					region := p.Args["region"].(string)
					limit := p.Args["limit"].(int)
					return deps.Benefits.ListByRegion(p.Context, region, limit)
				},
			},
			"coupon": &graphql.Field{
				Type:        couponType,
				Description: "Display state of a coupon by token",
				Args: graphql.FieldConfigArgument{
					"token": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					token := p.Args["token"].(string)
					coupon, err := deps.Coupons.GetByToken(p.Context, token)
					if err != nil {
						return nil, err
					}
					now := deps.Coupons.Now()
					m := map[string]interface{}{
						"token":      coupon.Token,
						"benefit_id": coupon.BenefitID,
						"status":     string(coupon.StatusAt(now)),
						"remaining":  domain.FormatRemaining(coupon.RemainingAt(now)),
					}
					if coupon.ShowPIN(now) {
						m["pin"] = coupon.PIN
					}
					return m, nil
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
