package api

import (
	"net/http"
	"strings"

	"shield_go/pkg/logger"
)

// Router gerencia as rotas da API. Os middlewares comuns (DefaultMiddleware)
// são aplicados por quem monta o router, uma única vez na raiz.
type Router struct {
	handler  *Handler
	mux      *http.ServeMux
	basePath string
	control  Middleware
}

// NewRouter cria um novo router para a API. limiter pode ser nil.
func NewRouter(deps Dependencies, basePath string, limiter *RateLimiter) *Router {
	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimSuffix(basePath, "/")

	control := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		control = limiter.Middleware
	}

	return &Router{
		handler:  NewHandler(deps),
		mux:      http.NewServeMux(),
		basePath: basePath,
		control:  control,
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	r.mux.HandleFunc(r.path("/state"), r.handler.GetState)
	r.mux.HandleFunc(r.path("/video"), r.handler.GetVideo)

	// Rotas de controle passam pelo limitador
	r.mux.Handle(r.path("/arm"), r.control(http.HandlerFunc(r.handler.Arm)))
	r.mux.Handle(r.path("/disarm"), r.control(http.HandlerFunc(r.handler.Disarm)))
	r.mux.Handle(r.path("/mode"), r.control(http.HandlerFunc(r.handler.SetMode)))
	r.mux.Handle(r.path("/emergency-contact"), r.control(http.HandlerFunc(r.handler.UpdateEmergencyContact)))

	logger.Infof("API configurada com base path: %s", r.basePath)
}

// Handler retorna as rotas da API, sem os middlewares comuns
func (r *Router) Handler() http.Handler {
	return r.mux
}

// path retorna o caminho completo para uma rota
func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}
