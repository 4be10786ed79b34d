package httpadapter

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var openapiSpec []byte

var (
	specRouterOnce sync.Once
	specRouter     routers.Router
)

func loadSpecRouter() routers.Router {
	specRouterOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			panic("load embedded openapi spec: " + err.Error())
		}
		if err := doc.Validate(loader.Context); err != nil {
			panic("validate embedded openapi spec: " + err.Error())
		}
		specRouter, err = gorillamux.NewRouter(doc)
		if err != nil {
			panic("build openapi router: " + err.Error())
		}
	})
	return specRouter
}

// validationMiddleware rejects requests whose shape violates the embedded
// API contract before any handler runs. Routes absent from the contract pass
// through untouched.
func validationMiddleware(next http.Handler) http.Handler {
	router := loadSpecRouter()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				MultiError: false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
