// Package swaggerkit serves the console OpenAPI document and its browser UI
package swaggerkit

import (
	"net/http"

	phttp "facegate/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	// DocsPath is where the UI lives. /swagger redirects here
	DocsPath = "/api/docs"
	docJSON  = DocsPath + "/doc.json"
)

// Mount serves the UI and the document. Disabled docs mount no routes at all
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	toUI := func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, DocsPath+"/", http.StatusPermanentRedirect)
	}
	r.Get(DocsPath, toUI)
	r.Get("/swagger", toUI)
	r.Get(docJSON, serveDocJSON())
	r.Handle(DocsPath+"/*", httpSwagger.Handler(
		httpSwagger.URL(docJSON),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))
}
