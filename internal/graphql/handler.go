package graphql

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"

	"github.com/rpattn/landtitles/graph"
	"github.com/rpattn/landtitles/internal/logger"
	"github.com/rpattn/landtitles/internal/middleware"
)

// NewHandler builds the /query endpoint. Only GET and POST transports are
// registered; the schema has no subscriptions.
func NewHandler(resolver *Resolver, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	srv := handler.New(graph.NewExecutableSchema(graph.Config{Resolvers: resolver}))
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	// Add the resolver logging extension
	srv.Use(&middleware.ResolverLoggerExtension{Log: log})
	return srv
}
