package httpserv

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Middleware wraps a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	// Middleware wraps the handler, the first one being the outermost.
	Middleware []Middleware
}

// Pattern returns the http.ServeMux pattern of the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// RegisterRoutes registers the routes on the mux. It panics if a route has no handler.
func RegisterRoutes(mux *http.ServeMux, routes ...Route) {
	for _, route := range routes {
		if route.Handler == nil {
			panic(fmt.Sprintf("route handler cannot be nil (%s)", route.Pattern()))
		}
		mux.HandleFunc(route.Pattern(), Chain(route.Middleware...)(route.Handler))
	}
}

func Chain(middlewares ...Middleware) Middleware {
	return func(final http.HandlerFunc) http.HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Recover turns a panicking handler into a 500 response.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Ctx(request.Context()).Error().
					Str("pattern", request.Pattern).
					Msgf("Recovered from panic in HTTP handler: %v", recovered)
				http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next(writer, request)
	}
}
