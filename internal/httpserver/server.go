// Package httpserver exposes the classification pipeline over HTTP with a
// small HTML frontend for expert photo submissions.
package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tmarques/floravision/internal/conf"
	"github.com/tmarques/floravision/internal/datastore"
	"github.com/tmarques/floravision/internal/logging"
	"github.com/tmarques/floravision/internal/pipeline"
)

//go:embed views/*.html
var viewsFs embed.FS

// Server encapsulates the Echo server and its collaborators.
type Server struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings
	Pipeline *pipeline.Pipeline

	thumbnailCache *gocache.Cache

	webLogger      *slog.Logger
	webLoggerClose func() error
}

// New initializes an HTTP server bound to the given pipeline and datastore.
func New(settings *conf.Settings, ds datastore.Interface, pl *pipeline.Pipeline) *Server {
	s := &Server{
		Echo:           echo.New(),
		DS:             ds,
		Settings:       settings,
		Pipeline:       pl,
		thumbnailCache: gocache.New(1*time.Hour, 10*time.Minute),
	}

	s.Echo.HideBanner = true
	s.Echo.IPExtractor = echo.ExtractIPFromXFFHeader()

	s.initLogger()
	s.configureMiddleware()
	s.setupTemplateRenderer()
	s.initRoutes()

	return s
}

// Start begins listening and serving HTTP requests. It blocks until the
// server stops.
func (s *Server) Start() error {
	addr := ":" + s.Settings.WebServer.Port
	s.webLogger.Info("Starting web server", "address", addr)
	if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and closes the web log file.
func (s *Server) Shutdown() error {
	err := s.Echo.Close()
	if s.webLoggerClose != nil {
		if closeErr := s.webLoggerClose(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *Server) initLogger() {
	if !s.Settings.WebServer.Log.Enabled {
		s.webLogger = logging.ForService("httpserver")
		return
	}

	logger, closeFn, err := logging.NewFileLogger(s.Settings.WebServer.Log.Path, "httpserver", slog.LevelInfo)
	if err != nil {
		logging.ForService("httpserver").Warn("Failed to open web log file, using default logger",
			"path", s.Settings.WebServer.Log.Path, "error", err)
		s.webLogger = logging.ForService("httpserver")
		return
	}
	s.webLogger = logger
	s.webLoggerClose = closeFn
}

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 6,
		Skipper: func(c echo.Context) bool {
			// Thumbnails are already compressed JPEG.
			return c.Path() == "/media/thumbnail/:id"
		},
	}))
	s.Echo.Use(middleware.BodyLimit(fmt.Sprintf("%d", s.Settings.WebServer.MaxUploadSize)))
	s.Echo.Use(s.requestLoggerMiddleware())
}

func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()[:8]
				c.Request().Header.Set("X-Request-ID", requestID)
			}

			start := time.Now()
			err := next(c)
			s.webLogger.Info("Handled request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"remote_ip", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// TemplateRenderer is a custom HTML template renderer for the Echo framework.
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// setupTemplateRenderer configures the template renderer for the server.
func (s *Server) setupTemplateRenderer() {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"confidence": formatConfidence,
		"add1":       func(i int) int { return i + 1 },
	}).ParseFS(viewsFs, "views/*.html")
	if err != nil {
		s.Echo.Logger.Fatal(err)
	}
	s.Echo.Renderer = &TemplateRenderer{templates: tmpl}
}

// formatConfidence renders a nullable confidence column for display.
func formatConfidence(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v)
}
