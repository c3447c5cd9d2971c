package tracking

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// addChiParam injects a URL parameter into req as if chi's router had
// matched it, so handlers using chi.URLParam can be exercised directly
// without mounting the full router.
func addChiParam(req *http.Request, key, value string) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	*req = *req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
