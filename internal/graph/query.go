package graph

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/service"
)

func (r *resolver) queryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return HelloMessage, nil
				},
			},
			"node": &graphql.Field{
				Type: r.node,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.resolveNode,
			},
			"customer": &graphql.Field{
				Type: r.customer,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.lookup(p, CustomerTypeName)
				},
			},
			"product": &graphql.Field{
				Type: r.product,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.lookup(p, ProductTypeName)
				},
			},
			"order": &graphql.Field{
				Type: r.order,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.lookup(p, OrderTypeName)
				},
			},
			"allCustomers": &graphql.Field{
				Type: r.customerConn,
				Args: withPagination(graphql.FieldConfigArgument{
					"name":            &graphql.ArgumentConfig{Type: graphql.String},
					"email":           &graphql.ArgumentConfig{Type: graphql.String},
					"phonePattern":    &graphql.ArgumentConfig{Type: graphql.String},
					"createdAtAfter":  &graphql.ArgumentConfig{Type: dateTimeScalar},
					"createdAtBefore": &graphql.ArgumentConfig{Type: dateTimeScalar},
				}),
				Resolve: r.resolveAllCustomers,
			},
			"allProducts": &graphql.Field{
				Type: r.productConn,
				Args: withPagination(graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
					"priceMin": &graphql.ArgumentConfig{Type: decimalScalar},
					"priceMax": &graphql.ArgumentConfig{Type: decimalScalar},
					"stockMin": &graphql.ArgumentConfig{Type: graphql.Int},
					"stockMax": &graphql.ArgumentConfig{Type: graphql.Int},
				}),
				Resolve: r.resolveAllProducts,
			},
			"allOrders": &graphql.Field{
				Type: r.orderConn,
				Args: withPagination(graphql.FieldConfigArgument{
					"customerName":    &graphql.ArgumentConfig{Type: graphql.String},
					"productName":     &graphql.ArgumentConfig{Type: graphql.String},
					"totalAmountMin":  &graphql.ArgumentConfig{Type: decimalScalar},
					"totalAmountMax":  &graphql.ArgumentConfig{Type: decimalScalar},
					"orderDateAfter":  &graphql.ArgumentConfig{Type: dateTimeScalar},
					"orderDateBefore": &graphql.ArgumentConfig{Type: dateTimeScalar},
				}),
				Resolve: r.resolveAllOrders,
			},
		},
	})
}

// withPagination adds the shared connection arguments.
func withPagination(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args["orderBy"] = &graphql.ArgumentConfig{Type: graphql.String}
	args["first"] = &graphql.ArgumentConfig{Type: graphql.Int}
	args["offset"] = &graphql.ArgumentConfig{Type: graphql.Int}
	args["after"] = &graphql.ArgumentConfig{Type: graphql.String}
	return args
}

func (r *resolver) resolveNode(p graphql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["id"].(string)
	typeName, _, err := FromGlobalID(raw)
	if err != nil {
		return nil, nil
	}
	return r.lookup(p, typeName)
}

// lookup resolves a single entity. Unknown ids resolve to null.
func (r *resolver) lookup(p graphql.ResolveParams, typeName string) (interface{}, error) {
	raw, _ := p.Args["id"].(string)
	id, err := ParseID(raw, typeName)
	if err != nil {
		return nil, nil
	}

	var (
		value interface{}
		found bool
	)
	switch typeName {
	case CustomerTypeName:
		c, lerr := r.crm.GetCustomer(p.Context, id)
		value, found, err = c, c != nil, lerr
	case ProductTypeName:
		pr, lerr := r.crm.GetProduct(p.Context, id)
		value, found, err = pr, pr != nil, lerr
	case OrderTypeName:
		o, lerr := r.crm.GetOrder(p.Context, id)
		value, found, err = o, o != nil, lerr
	default:
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) ||
			errors.Is(err, service.ErrProductNotFound) ||
			errors.Is(err, service.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, r.resolveError(p.Context, "lookup", err)
	}
	if !found {
		return nil, nil
	}
	return value, nil
}

func (r *resolver) resolveAllCustomers(p graphql.ResolveParams) (interface{}, error) {
	w, err := windowFromArgs(p.Args)
	if err != nil {
		return nil, err
	}

	filter := model.CustomerFilter{
		Name:          stringArg(p.Args, "name"),
		Email:         stringArg(p.Args, "email"),
		PhonePrefix:   stringArg(p.Args, "phonePattern"),
		CreatedAfter:  timeArg(p.Args, "createdAtAfter"),
		CreatedBefore: untilArg(p.Args, "createdAtBefore"),
		OrderBy:       orderByArg(p.Args),
	}

	customers, err := r.crm.ListCustomers(p.Context, filter, w.page())
	if err != nil {
		return nil, r.resolveError(p.Context, "allCustomers", err)
	}
	return newConnection(customers, w), nil
}

func (r *resolver) resolveAllProducts(p graphql.ResolveParams) (interface{}, error) {
	w, err := windowFromArgs(p.Args)
	if err != nil {
		return nil, err
	}

	filter := model.ProductFilter{
		Name:     stringArg(p.Args, "name"),
		PriceMin: decimalArg(p.Args, "priceMin"),
		PriceMax: decimalArg(p.Args, "priceMax"),
		StockMin: intArg(p.Args, "stockMin"),
		StockMax: intArg(p.Args, "stockMax"),
		OrderBy:  orderByArg(p.Args),
	}

	products, err := r.crm.ListProducts(p.Context, filter, w.page())
	if err != nil {
		return nil, r.resolveError(p.Context, "allProducts", err)
	}
	return newConnection(products, w), nil
}

func (r *resolver) resolveAllOrders(p graphql.ResolveParams) (interface{}, error) {
	w, err := windowFromArgs(p.Args)
	if err != nil {
		return nil, err
	}

	filter := model.OrderFilter{
		CustomerName:  stringArg(p.Args, "customerName"),
		ProductName:   stringArg(p.Args, "productName"),
		TotalMin:      decimalArg(p.Args, "totalAmountMin"),
		TotalMax:      decimalArg(p.Args, "totalAmountMax"),
		OrderedAfter:  timeArg(p.Args, "orderDateAfter"),
		OrderedBefore: untilArg(p.Args, "orderDateBefore"),
		OrderBy:       orderByArg(p.Args),
	}

	orders, err := r.crm.ListOrders(p.Context, filter, w.page())
	if err != nil {
		return nil, r.resolveError(p.Context, "allOrders", err)
	}
	return newConnection(orders, w), nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]interface{}, key string) *int {
	v, ok := args[key].(int)
	if !ok {
		return nil
	}
	return &v
}

func decimalArg(args map[string]interface{}, key string) *decimal.Decimal {
	v, ok := args[key].(decimal.Decimal)
	if !ok {
		return nil
	}
	return &v
}

func timeArg(args map[string]interface{}, key string) *time.Time {
	v, ok := args[key].(dateTimeInput)
	if !ok {
		return nil
	}
	return &v.t
}

// untilArg reads an inclusive upper bound; a bare date includes that day.
func untilArg(args map[string]interface{}, key string) *time.Time {
	v, ok := args[key].(dateTimeInput)
	if !ok {
		return nil
	}
	end := v.endOfDay()
	return &end
}

// orderByArg converts "-createdAt" style input to the store's "-created_at".
func orderByArg(args map[string]interface{}) string {
	return toSnake(stringArg(args, "orderBy"))
}

func toSnake(s string) string {
	var b strings.Builder
	for i, c := range s {
		if unicode.IsUpper(c) {
			if i > 0 && s[i-1] != '-' && s[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
