package middleware

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
)

// RootPath is the internal path that serves root host resolution.
const RootPath = "/_root"

type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirectLogin
	DecisionRewriteRoot
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRewriteRoot:
		return "rewrite_root"
	default:
		return "allow"
	}
}

// Decision is the outcome of routing one request. Location is set for
// login redirects.
type Decision struct {
	Kind     DecisionKind
	Location string
}

var publicPrefixes = []string{
	"/_next",
	"/static",
	"/assets",
	"/api",
	"/login",
	"/signup",
	"/register",
	"/forgot-password",
	"/reset-password",
	"/favicon.ico",
	"/robots.txt",
	RootPath,
}

// Edge gates every request on the session cookies. It never calls out.
type Edge struct {
	rootHost string
	public   []string
	logger   *zap.Logger
}

// NewEdge builds the edge layer for rootHost. extraPublic adds path
// prefixes that bypass the session check.
func NewEdge(rootHost string, logger *zap.Logger, extraPublic ...string) *Edge {
	public := make([]string, 0, len(publicPrefixes)+len(extraPublic))
	public = append(public, publicPrefixes...)
	public = append(public, extraPublic...)
	return &Edge{
		rootHost: normalizeHost(rootHost),
		public:   public,
		logger:   logger,
	}
}

func (e *Edge) Decide(r *http.Request) Decision {
	p := r.URL.Path
	if e.isPublic(p) {
		return Decision{Kind: DecisionAllow}
	}

	sess := SessionFromRequest(r)
	if !sess.Valid() {
		q := url.Values{"callbackUrl": []string{r.URL.RequestURI()}}
		return Decision{Kind: DecisionRedirectLogin, Location: "/login?" + q.Encode()}
	}

	if p == "/" && e.rootHost != "" && normalizeHost(r.Host) == e.rootHost {
		return Decision{Kind: DecisionRewriteRoot}
	}
	return Decision{Kind: DecisionAllow}
}

// Middleware applies Decide. Rewritten requests are served by root with
// the client URL unchanged.
func (e *Edge) Middleware(root http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := e.Decide(r)
			switch d.Kind {
			case DecisionRedirectLogin:
				e.logger.Debug("redirecting to login", zap.String("path", r.URL.Path))
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
			case DecisionRewriteRoot:
				rr := r.Clone(withSession(r.Context(), SessionFromRequest(r)))
				rr.URL.Path = RootPath
				root.ServeHTTP(w, rr)
			default:
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), SessionFromRequest(r))))
			}
		})
	}
}

func (e *Edge) isPublic(p string) bool {
	for _, prefix := range e.public {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return path.Ext(path.Base(p)) != ""
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
