package server

import (
	"context"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"sysdeck/internal/catalog"
	"sysdeck/internal/system"
	appver "sysdeck/internal/version"
)

// Server exposes a read-only observer API plus a websocket shell bridge.
// It is meant for a second machine watching an install over the network;
// everything it spawns lands in the same process registry as the TUI.
type Server struct {
	Addr string
}

func (s *Server) Start(ctx context.Context) error {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	mountAPI(r)

	srv := &http.Server{Addr: s.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	system.Logger.Info("webui server listening", "addr", s.Addr)
	return srv.ListenAndServe()
}

func mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": appver.AppVersion})
	})

	api.GET("/tools", func(c *gin.Context) {
		cat, err := catalog.Load()
		if err != nil {
			system.Logger.Warn("serving built-in catalog", "err", err)
		}
		c.JSON(http.StatusOK, cat)
	})
	api.GET("/tools/schema", func(c *gin.Context) {
		b, err := catalog.MarshalSchema(catalog.Schema())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", b)
	})

	// Terminal (WebSocket PTY)
	api.GET("/term/ws", gin.WrapF(terminalWSHandler))
}

// OpenBrowser tries to open a URL in the system browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
