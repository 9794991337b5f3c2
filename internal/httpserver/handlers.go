package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tmarques/floravision/internal/datastore"
	"github.com/tmarques/floravision/internal/imaging"
	"github.com/tmarques/floravision/internal/pipeline"
)

// initRoutes registers all page and media routes.
func (s *Server) initRoutes() {
	s.Echo.GET("/", s.handleIndex)
	s.Echo.POST("/classify", s.handleClassify)
	s.Echo.GET("/tests", s.handleTests)
	s.Echo.GET("/tests/:id", s.handleTestDetail)
	s.Echo.POST("/tests/:id/notes", s.handleUpdateNotes)
	s.Echo.GET("/media/thumbnail/:id", s.handleThumbnail)
}

// indexData feeds the upload form template.
type indexData struct {
	Title           string
	DefaultExpertID int
	Error           string
}

// resultsData feeds the results page template.
type resultsData struct {
	Title       string
	ExpertLabel string
	Outcomes    []pipeline.ImageOutcome
}

// testsData feeds the recent-tests listing.
type testsData struct {
	Title string
	Tests []datastore.Test
	Query string
}

// testDetailData feeds the single-test page.
type testDetailData struct {
	Title           string
	Test            datastore.Test
	Classifications []datastore.Classification
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index", &indexData{
		Title:           "Submit plant photos",
		DefaultExpertID: s.Settings.Expert.DefaultID,
	})
}

// handleClassify accepts a multipart upload of one expert label and one or
// more images, runs the full pipeline and renders per-image results.
func (s *Server) handleClassify(c echo.Context) error {
	sub, err := s.submissionFromRequest(c)
	if err != nil {
		return c.Render(http.StatusBadRequest, "index", &indexData{
			Title:           "Submit plant photos",
			DefaultExpertID: s.Settings.Expert.DefaultID,
			Error:           err.Error(),
		})
	}

	outcomes, err := s.Pipeline.Process(c.Request().Context(), sub)
	if err != nil {
		s.webLogger.Warn("Submission rejected", "error", err)
		return c.Render(http.StatusBadRequest, "index", &indexData{
			Title:           "Submit plant photos",
			DefaultExpertID: s.Settings.Expert.DefaultID,
			Error:           err.Error(),
		})
	}

	return c.Render(http.StatusOK, "results", &resultsData{
		Title:       "Classification results",
		ExpertLabel: sub.ExpertLabel,
		Outcomes:    outcomes,
	})
}

// submissionFromRequest extracts the expert metadata and image files from
// a multipart form.
func (s *Server) submissionFromRequest(c echo.Context) (*pipeline.Submission, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	expertID := s.Settings.Expert.DefaultID
	if v := strings.TrimSpace(c.FormValue("expert_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid expert id %q", v)
		}
		expertID = id
	}

	sub := &pipeline.Submission{
		ExpertID:    expertID,
		ExpertLabel: strings.TrimSpace(c.FormValue("species")),
		Notes:       strings.TrimSpace(c.FormValue("notes")),
	}

	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading upload %q: %w", fh.Filename, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("closing upload %q: %w", fh.Filename, closeErr)
		}
		sub.Images = append(sub.Images, pipeline.Image{
			Filename: fh.Filename,
			Data:     data,
		})
	}

	return sub, nil
}

// handleTests lists recent tests, optionally filtered by a search query on
// the expert label or filename.
func (s *Server) handleTests(c echo.Context) error {
	const pageSize = 50

	query := strings.TrimSpace(c.QueryParam("q"))

	var (
		tests []datastore.Test
		err   error
	)
	if query != "" {
		tests, err = s.DS.SearchTests(query, pageSize, 0)
	} else {
		tests, err = s.DS.GetLastTests(pageSize)
	}
	if err != nil {
		s.webLogger.Error("Failed to list tests", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load tests")
	}

	return c.Render(http.StatusOK, "tests", &testsData{
		Title: "Recent tests",
		Tests: tests,
		Query: query,
	})
}

func (s *Server) handleTestDetail(c echo.Context) error {
	id := c.Param("id")

	test, err := s.DS.GetTest(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test not found")
	}

	classifications, err := s.DS.GetTestClassifications(test.ID)
	if err != nil {
		s.webLogger.Error("Failed to load classifications", "test_id", test.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load classifications")
	}

	return c.Render(http.StatusOK, "test_detail", &testDetailData{
		Title:           fmt.Sprintf("Test #%d", test.ID),
		Test:            test,
		Classifications: classifications,
	})
}

func (s *Server) handleUpdateNotes(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid test id")
	}

	if err := s.DS.UpdateTestNotes(uint(id), c.FormValue("notes")); err != nil {
		s.webLogger.Error("Failed to update notes", "test_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update notes")
	}

	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/tests/%d", id))
}

// handleThumbnail serves a scaled-down JPEG of the stored test image.
// Generated thumbnails are cached in memory; test images never change
// after insert, so the cache cannot go stale within its TTL.
func (s *Server) handleThumbnail(c echo.Context) error {
	id := c.Param("id")

	if cached, found := s.thumbnailCache.Get(id); found {
		c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		return c.Blob(http.StatusOK, "image/jpeg", cached.([]byte))
	}

	test, err := s.DS.GetTest(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test not found")
	}
	if len(test.Image) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no image stored for test")
	}

	thumb, err := imaging.Thumbnail(test.Image, imaging.DefaultThumbnailSize, imaging.DefaultThumbnailSize)
	if err != nil {
		s.webLogger.Error("Failed to build thumbnail", "test_id", test.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build thumbnail")
	}
	s.thumbnailCache.SetDefault(id, thumb)

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, "image/jpeg", thumb)
}
