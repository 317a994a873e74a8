package providers

import (
	"net/http"

	"regenwasi/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

// methodMux dispatches one URL by HTTP method so the same path can carry
// both a GET and a POST handler.
type methodMux map[string]http.Handler

func (mm methodMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler, ok := mm[r.Method]
	if !ok {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	handler.ServeHTTP(w, r)
}

type RouterProvider struct {
	order    []string
	handlers map[string]methodMux
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	mm, ok := rp.handlers[url]
	if !ok {
		mm = make(methodMux)
		rp.handlers[url] = mm
		rp.order = append(rp.order, url)
	}
	mm[method] = handler
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	routes := make([]structures.Route, 0, len(rp.order))
	for _, url := range rp.order {
		routes = append(routes, structures.Route{
			Url:     url,
			Handler: rp.handlers[url],
		})
	}
	return routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{handlers: make(map[string]methodMux)}
}
