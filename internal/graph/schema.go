// Package graph builds the CRM GraphQL schema and its resolvers.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/service"
)

// CRM is the business API the resolvers call.
type CRM interface {
	CreateCustomer(ctx context.Context, input service.CreateCustomerInput) (*model.Customer, error)
	BulkCreateCustomers(ctx context.Context, inputs []service.CreateCustomerInput) (*service.BulkCreateResult, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, filter model.CustomerFilter, page model.Page) ([]*model.Customer, error)

	CreateProduct(ctx context.Context, input service.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter, page model.Page) ([]*model.Product, error)

	CreateOrder(ctx context.Context, input service.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]*model.Order, error)

	RestockLowStock(ctx context.Context, threshold, amount int) ([]*model.Product, error)
}

// HelloMessage is returned by the hello query.
const HelloMessage = "Hello, GraphQL!"

// Config configures the schema.
type Config struct {
	CRM               CRM
	Logger            *slog.Logger
	LowStockThreshold int
	RestockAmount     int
}

type resolver struct {
	crm               CRM
	logger            *slog.Logger
	lowStockThreshold int
	restockAmount     int

	node         *graphql.Interface
	pageInfo     *graphql.Object
	customer     *graphql.Object
	product      *graphql.Object
	order        *graphql.Object
	customerConn *graphql.Object
	productConn  *graphql.Object
	orderConn    *graphql.Object
}

// NewSchema builds the executable schema.
func NewSchema(cfg Config) (graphql.Schema, error) {
	if cfg.CRM == nil {
		return graphql.Schema{}, errors.New("graph: CRM is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &resolver{
		crm:               cfg.CRM,
		logger:            logger.With("component", "graphql"),
		lowStockThreshold: cfg.LowStockThreshold,
		restockAmount:     cfg.RestockAmount,
	}
	if r.lowStockThreshold <= 0 {
		r.lowStockThreshold = service.DefaultLowStockThreshold
	}
	if r.restockAmount <= 0 {
		r.restockAmount = service.DefaultRestockAmount
	}

	r.buildTypes()

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    r.queryType(),
		Mutation: r.mutationType(),
		Types:    []graphql.Type{r.customer, r.product, r.order},
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Execute runs req against schema.
func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func (r *resolver) buildTypes() {
	r.node = graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "Node",
		Description: "An object with a global ID.",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			switch p.Value.(type) {
			case *model.Customer:
				return r.customer
			case *model.Product:
				return r.product
			case *model.Order:
				return r.order
			}
			return nil
		},
	})

	r.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startCursor":     &graphql.Field{Type: graphql.String},
			"endCursor":       &graphql.Field{Type: graphql.String},
		},
	})

	r.customer = graphql.NewObject(graphql.ObjectConfig{
		Name:       CustomerTypeName,
		Interfaces: []*graphql.Interface{r.node},
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return ToGlobalID(CustomerTypeName, p.Source.(*model.Customer).ID), nil
				},
			},
			"pk": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(*model.Customer).ID), nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Customer).Name, nil
				},
			},
			"email": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Customer).Email, nil
				},
			},
			"phone": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if phone := p.Source.(*model.Customer).Phone; phone != "" {
						return phone, nil
					}
					return nil, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.NewNonNull(dateTimeScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Customer).CreatedAt, nil
				},
			},
		},
	})

	r.product = graphql.NewObject(graphql.ObjectConfig{
		Name:       ProductTypeName,
		Interfaces: []*graphql.Interface{r.node},
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return ToGlobalID(ProductTypeName, p.Source.(*model.Product).ID), nil
				},
			},
			"pk": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(*model.Product).ID), nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Product).Name, nil
				},
			},
			"price": &graphql.Field{
				Type: graphql.NewNonNull(decimalScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Product).Price, nil
				},
			},
			"stock": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Product).Stock, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.NewNonNull(dateTimeScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Product).CreatedAt, nil
				},
			},
		},
	})

	r.order = graphql.NewObject(graphql.ObjectConfig{
		Name:       OrderTypeName,
		Interfaces: []*graphql.Interface{r.node},
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return ToGlobalID(OrderTypeName, p.Source.(*model.Order).ID), nil
				},
			},
			"pk": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return int(p.Source.(*model.Order).ID), nil
				},
			},
			"customer": &graphql.Field{
				Type: graphql.NewNonNull(r.customer),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.orderCustomer(p.Context, p.Source.(*model.Order))
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(r.product))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					products := p.Source.(*model.Order).Products
					if products == nil {
						products = []*model.Product{}
					}
					return products, nil
				},
			},
			"totalAmount": &graphql.Field{
				Type: graphql.NewNonNull(decimalScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Order).TotalAmount, nil
				},
			},
			"orderDate": &graphql.Field{
				Type: graphql.NewNonNull(dateTimeScalar),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Order).OrderDate, nil
				},
			},
		},
	})

	r.customerConn = r.connectionType("CustomerConnection", r.customer)
	r.productConn = r.connectionType("ProductConnection", r.product)
	r.orderConn = r.connectionType("OrderConnection", r.order)
}

// orderCustomer returns the preloaded customer, falling back to a lookup.
func (r *resolver) orderCustomer(ctx context.Context, o *model.Order) (*model.Customer, error) {
	if o.Customer != nil {
		return o.Customer, nil
	}
	c, err := r.crm.GetCustomer(ctx, o.CustomerID)
	if err != nil {
		return nil, r.resolveError(ctx, "order.customer", err)
	}
	return c, nil
}

func (r *resolver) connectionType(name string, node *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Edge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"node":   &graphql.Field{Type: node},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(edge))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(r.pageInfo)},
		},
	})
}
