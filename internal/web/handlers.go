package web

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/example/gclearnbot/internal/errs"
)

type submitRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
	Response string `json:"response" validate:"required"`
}

// handleSubmitResponse runs one response through the same pipeline the chat
// platforms use: evaluate, journal, advance.
func (s *Server) handleSubmitResponse(c echo.Context) error {
	req := new(submitRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	claims := contextClaims(c)
	result, err := s.progress.Submit(c.Request().Context(), claims.UserID, req.LessonID, req.Response)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleUserJournal(c echo.Context) error {
	userID, err := s.scopedUserID(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	entries, err := s.journal.ListByUser(userID, page, perPage)
	if err != nil {
		return err
	}
	total, err := s.journal.CountByUser(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"total":   total,
		"entries": entries,
	})
}

func (s *Server) handleUserProgress(c echo.Context) error {
	userID, err := s.scopedUserID(c)
	if err != nil {
		return err
	}
	prog, err := s.progress.Get(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prog)
}

func (s *Server) handleAllJournals(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := s.journal.ListRecent(limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":   len(entries),
		"entries": entries,
	})
}

// handleAnalytics dispatches on the query: a user_id gives a per-user report,
// a lesson gives a per-lesson report, neither gives the cohort overview.
func (s *Server) handleAnalytics(c echo.Context) error {
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errs.Validationf("invalid user_id %q", raw)
		}
		report, err := s.stats.User(userID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, report)
	}
	if lesson := c.QueryParam("lesson"); lesson != "" {
		report, err := s.stats.Lesson(lesson)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, report)
	}
	report, err := s.stats.Cohort()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// scopedUserID resolves the :user_id path param and enforces that
// non-admins can only read their own data.
func (s *Server) scopedUserID(c echo.Context) (int64, error) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return 0, errs.Validationf("invalid user id %q", c.Param("user_id"))
	}
	claims := contextClaims(c)
	if userID != claims.UserID && !claims.IsAdmin {
		return 0, echo.NewHTTPError(http.StatusForbidden, "cannot access another user's data")
	}
	return userID, nil
}
