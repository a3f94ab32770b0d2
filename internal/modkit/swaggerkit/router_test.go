package swaggerkit

import (
	phttp "facegate/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type testRouter struct {
	mux *chi.Mux
	r   phttp.Router
}

func newRouter() testRouter {
	m := chi.NewRouter()
	return testRouter{mux: m, r: phttp.AdaptChi(m)}
}
