// Package resolver builds the GraphQL schema and its resolvers.
package resolver

import (
	"github.com/graphql-go/graphql"
)

var bookType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Book",
	Fields: graphql.Fields{
		"bookId":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"authors":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"image":       &graphql.Field{Type: graphql.String},
		"link":        &graphql.Field{Type: graphql.String},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"_id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"bookCount":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"savedBooks": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(bookType)))},
	},
})

var authType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Auth",
	Fields: graphql.Fields{
		"token": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
	},
})

var bookInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "BookInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"bookId":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)},
		"authors":     &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
		"description": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"title":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"image":       &graphql.InputObjectFieldConfig{Type: graphql.String},
		"link":        &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

func nonNullString() *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
}

// NewSchema wires the resolvers into the executable schema.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.Me,
			},
			"books": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(bookType))),
				Resolve: r.Books,
			},
			"user": &graphql.Field{
				Type:    userType,
				Args:    graphql.FieldConfigArgument{"username": nonNullString()},
				Resolve: r.User,
			},
			"searchBooks": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(bookType))),
				Args:    graphql.FieldConfigArgument{"query": nonNullString()},
				Resolve: r.SearchBooks,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addUser": &graphql.Field{
				Type: authType,
				Args: graphql.FieldConfigArgument{
					"username": nonNullString(),
					"email":    nonNullString(),
					"password": nonNullString(),
				},
				Resolve: r.AddUser,
			},
			"login": &graphql.Field{
				Type: authType,
				Args: graphql.FieldConfigArgument{
					"email":    nonNullString(),
					"password": nonNullString(),
				},
				Resolve: r.Login,
			},
			"saveBook": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"bookData": &graphql.ArgumentConfig{Type: graphql.NewNonNull(bookInputType)},
				},
				Resolve: r.SaveBook,
			},
			"removeBook": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"bookId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: r.RemoveBook,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
