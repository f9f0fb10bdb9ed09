package webui

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/procdash/pkg/client"
)

// Invoker is the slice of the supervisor client the web UI needs: raw
// command forwarding. *client.Client satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, command string, args []string) (*client.Response, error)
}

// Config configures a web dashboard Router.
type Config struct {
	// BasePath mounts all routes under a prefix, e.g. "/dash".
	BasePath string
	// WebRoot is the directory holding the static dashboard assets.
	// Empty disables static serving; the API endpoints still work.
	WebRoot string
	// LogPath is the client log file served at GET {base}/logs.
	LogPath string
	Logger  *slog.Logger
}

// Router provides embeddable HTTP handlers for the web dashboard.
// Endpoints:
//
//	GET {basePath}/command?cmd=<verb args...>   forward to the supervisor
//	GET {basePath}/logs                         serve the client log file
//	GET {basePath}/                             static assets (index.html)
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	inv      Invoker
	basePath string
	webRoot  string
	logPath  string
	logger   *slog.Logger
}

// NewRouter constructs a new Router with configurable base path.
func NewRouter(inv Invoker, cfg Config) *Router {
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return &Router{
		inv:      inv,
		basePath: sanitizeBase(cfg.BasePath),
		webRoot:  cfg.WebRoot,
		logPath:  cfg.LogPath,
		logger:   lg,
	}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/command", r.handleCommand)
	group.GET("/logs", r.handleLogs)
	if r.webRoot != "" {
		group.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(r.webRoot, "index.html"))
		})
		g.NoRoute(r.handleStatic)
	}
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Shut it down via http.Server's Close or Shutdown.
func NewServer(addr string, inv Invoker, cfg Config) *http.Server {
	r := NewRouter(inv, cfg)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

type errorResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleCommand forwards one supervisor command. The cmd query value
// carries the verb and its arguments separated by spaces, exactly the
// shape the browser dashboard sends. Application-level failures come
// back with HTTP 200 and an error envelope so the dashboard JS can
// render the message.
func (r *Router) handleCommand(c *gin.Context) {
	cmd := strings.TrimSpace(c.Query("cmd"))
	if cmd == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Status: "error", Message: "missing command parameter"})
		return
	}
	parts := strings.Fields(cmd)
	for _, p := range parts {
		if !isSafeToken(p) {
			writeJSON(c, http.StatusBadRequest, errorResp{Status: "error", Message: "invalid command token: allowed [A-Za-z0-9._-]"})
			return
		}
	}

	resp, err := r.inv.Invoke(c.Request.Context(), parts[0], parts[1:])
	if err != nil {
		r.logger.Warn("command forward failed", "cmd", parts[0], "error", err)
		code := http.StatusOK
		if client.IsAuthRequired(err) {
			code = http.StatusUnauthorized
		}
		writeJSON(c, code, errorResp{Status: "error", Message: "failed to communicate with supervisor: " + err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleLogs(c *gin.Context) {
	if r.logPath == "" {
		writeJSON(c, http.StatusNotFound, errorResp{Status: "error", Message: "log file not configured"})
		return
	}
	data, err := os.ReadFile(r.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(c, http.StatusNotFound, errorResp{Status: "error", Message: "log file not found"})
			return
		}
		writeJSON(c, http.StatusInternalServerError, errorResp{Status: "error", Message: "error reading log file: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

// handleStatic serves dashboard assets from the web root. Only simple
// relative paths are allowed; anything with traversal is rejected.
func (r *Router) handleStatic(c *gin.Context) {
	rel := strings.TrimPrefix(c.Request.URL.Path, r.basePath)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "index.html"
	}
	if !isSafeRelPath(rel) {
		writeJSON(c, http.StatusBadRequest, errorResp{Status: "error", Message: "invalid path"})
		return
	}
	full := filepath.Join(r.webRoot, filepath.FromSlash(rel))
	if _, err := os.Stat(full); err != nil {
		writeJSON(c, http.StatusNotFound, errorResp{Status: "error", Message: "file not found"})
		return
	}
	c.File(full)
}
