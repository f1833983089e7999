package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/graphcrm/graphcrm/internal/model"
	"github.com/graphcrm/graphcrm/internal/service"
)

func (r *resolver) mutationType() *graphql.Object {
	// Rows are checked one by one in the service, so a missing field is
	// reported against its row instead of failing the whole batch.
	customerInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CustomerInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"email": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"phone": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createCustomer": &graphql.Field{
				Type: payloadType("CreateCustomer", graphql.Fields{
					"customer": &graphql.Field{Type: r.customer},
					"message":  &graphql.Field{Type: graphql.String},
				}),
				Args: graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"phone": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.resolveCreateCustomer,
			},
			"bulkCreateCustomers": &graphql.Field{
				Type: payloadType("BulkCreateCustomers", graphql.Fields{
					"customers": &graphql.Field{Type: graphql.NewList(r.customer)},
					"errors":    &graphql.Field{Type: graphql.NewList(graphql.String)},
				}),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(customerInput))),
					},
				},
				Resolve: r.resolveBulkCreateCustomers,
			},
			"createProduct": &graphql.Field{
				Type: payloadType("CreateProduct", graphql.Fields{
					"product": &graphql.Field{Type: r.product},
				}),
				Args: graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"price": &graphql.ArgumentConfig{Type: graphql.NewNonNull(decimalScalar)},
					"stock": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.resolveCreateProduct,
			},
			"createOrder": &graphql.Field{
				Type: payloadType("CreateOrder", graphql.Fields{
					"order": &graphql.Field{Type: r.order},
				}),
				Args: graphql.FieldConfigArgument{
					"customerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"productIds": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID))),
					},
					"orderDate": &graphql.ArgumentConfig{Type: dateTimeScalar},
				},
				Resolve: r.resolveCreateOrder,
			},
			"updateLowStockProducts": &graphql.Field{
				Type: payloadType("UpdateLowStockProducts", graphql.Fields{
					"products": &graphql.Field{Type: graphql.NewList(r.product)},
					"message":  &graphql.Field{Type: graphql.String},
				}),
				Resolve: r.resolveUpdateLowStock,
			},
		},
	})
}

// payloadType declares a mutation payload object. Payload values are maps
// resolved by the default resolver.
func payloadType(name string, fields graphql.Fields) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
}

func (r *resolver) resolveCreateCustomer(p graphql.ResolveParams) (interface{}, error) {
	customer, err := r.crm.CreateCustomer(p.Context, service.CreateCustomerInput{
		Name:  stringArg(p.Args, "name"),
		Email: stringArg(p.Args, "email"),
		Phone: stringArg(p.Args, "phone"),
	})
	if err != nil {
		return nil, r.resolveError(p.Context, "createCustomer", err)
	}

	return map[string]interface{}{
		"customer": customer,
		"message":  "Customer created",
	}, nil
}

func (r *resolver) resolveBulkCreateCustomers(p graphql.ResolveParams) (interface{}, error) {
	rows, _ := p.Args["input"].([]interface{})
	inputs := make([]service.CreateCustomerInput, 0, len(rows))
	for _, row := range rows {
		fields, _ := row.(map[string]interface{})
		inputs = append(inputs, service.CreateCustomerInput{
			Name:  stringArg(fields, "name"),
			Email: stringArg(fields, "email"),
			Phone: stringArg(fields, "phone"),
		})
	}

	result, err := r.crm.BulkCreateCustomers(p.Context, inputs)
	if err != nil {
		return nil, r.resolveError(p.Context, "bulkCreateCustomers", err)
	}

	return map[string]interface{}{
		"customers": result.Customers,
		"errors":    result.Errors,
	}, nil
}

func (r *resolver) resolveCreateProduct(p graphql.ResolveParams) (interface{}, error) {
	price, ok := p.Args["price"].(decimal.Decimal)
	if !ok {
		return nil, validationError("price", "Invalid price")
	}

	product, err := r.crm.CreateProduct(p.Context, service.CreateProductInput{
		Name:  stringArg(p.Args, "name"),
		Price: price,
		Stock: intArg(p.Args, "stock"),
	})
	if err != nil {
		return nil, r.resolveError(p.Context, "createProduct", err)
	}

	return map[string]interface{}{"product": product}, nil
}

func (r *resolver) resolveCreateOrder(p graphql.ResolveParams) (interface{}, error) {
	customerID, err := ParseID(stringArg(p.Args, "customerId"), CustomerTypeName)
	if err != nil {
		return nil, validationError("customerId", "Invalid customer ID")
	}

	rawIDs, _ := p.Args["productIds"].([]interface{})
	productIDs := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		s, _ := raw.(string)
		id, err := ParseID(s, ProductTypeName)
		if err != nil {
			return nil, validationError("productIds", fmt.Sprintf("Invalid product ID: %s", s))
		}
		productIDs = append(productIDs, id)
	}

	order, err := r.crm.CreateOrder(p.Context, service.CreateOrderInput{
		CustomerID: customerID,
		ProductIDs: productIDs,
		OrderDate:  timeArg(p.Args, "orderDate"),
	})
	if err != nil {
		return nil, r.resolveError(p.Context, "createOrder", err)
	}

	return map[string]interface{}{"order": order}, nil
}

func (r *resolver) resolveUpdateLowStock(p graphql.ResolveParams) (interface{}, error) {
	products, err := r.crm.RestockLowStock(p.Context, r.lowStockThreshold, r.restockAmount)
	if err != nil {
		return nil, r.resolveError(p.Context, "updateLowStockProducts", err)
	}
	if products == nil {
		products = []*model.Product{}
	}

	message := "No low-stock products"
	if len(products) > 0 {
		message = fmt.Sprintf("Restocked %d products", len(products))
	}

	return map[string]interface{}{
		"products": products,
		"message":  message,
	}, nil
}
