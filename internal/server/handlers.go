package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rickgao/seoulhigh/internal/kst"
	"github.com/rickgao/seoulhigh/internal/service"
	"github.com/rickgao/seoulhigh/internal/trend"
	"github.com/rickgao/seoulhigh/internal/version"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var pe *service.ParamError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, kst.ErrInvalidDate),
		errors.Is(err, kst.ErrInvalidClock):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrMarketNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func dateParam(c *gin.Context) (kst.Date, error) {
	raw := c.Query("date_kst")
	if raw == "" {
		return kst.Date{}, &service.ParamError{Param: "date_kst", Err: errors.New("required")}
	}
	d, err := kst.ParseDate(raw)
	if err != nil {
		return kst.Date{}, &service.ParamError{Param: "date_kst", Err: err}
	}
	return d, nil
}

func clockParam(c *gin.Context, name, def string) (kst.Clock, error) {
	clk, err := kst.ParseClock(c.DefaultQuery(name, def))
	if err != nil {
		return 0, &service.ParamError{Param: name, Err: err}
	}
	return clk, nil
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ParamError{Param: name, Err: fmt.Errorf("not an integer: %q", raw)}
	}
	return n, nil
}

func modeParam(c *gin.Context) (trend.Mode, error) {
	m, err := trend.ParseMode(c.DefaultQuery("mode", string(trend.Closest)))
	if err != nil {
		return "", &service.ParamError{Param: "mode", Err: err}
	}
	return m, nil
}

func (s *Server) handleDates(c *gin.Context) {
	resp, err := s.svc.Dates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMarkets(c *gin.Context) {
	day, err := dateParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.svc.Markets(c.Request.Context(), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTrend(c *gin.Context) {
	q, err := trendQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.svc.Trend(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func trendQuery(c *gin.Context) (service.TrendQuery, error) {
	var (
		q   service.TrendQuery
		err error
	)
	if q.Day, err = dateParam(c); err != nil {
		return q, err
	}
	if raw := c.Query("market_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, &service.ParamError{Param: "market_id", Err: err}
		}
		q.MarketID = &id
	}
	if q.Start, err = clockParam(c, "start_kst", "00:00"); err != nil {
		return q, err
	}
	if q.End, err = clockParam(c, "end_kst", "24:00"); err != nil {
		return q, err
	}
	if q.IntervalMinutes, err = intParam(c, "interval_minutes", 15); err != nil {
		return q, err
	}
	if q.Mode, err = modeParam(c); err != nil {
		return q, err
	}
	return q, nil
}

func (s *Server) handleNewHighs(c *gin.Context) {
	day, err := dateParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.svc.NewHighs(c.Request.Context(), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEventStudy(c *gin.Context) {
	q, err := eventStudyQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.svc.EventStudy(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func eventStudyQuery(c *gin.Context) (service.EventStudyQuery, error) {
	day, err := dateParam(c)
	if err != nil {
		return service.EventStudyQuery{}, err
	}
	q := service.DefaultEventStudyQuery(day)

	if raw := c.Query("high_c"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil {
			return q, &service.ParamError{Param: "high_c", Err: fmt.Errorf("not an integer: %q", raw)}
		}
		q.HighC = &h
	}
	if q.PreMinutes, err = intParam(c, "pre_minutes", q.PreMinutes); err != nil {
		return q, err
	}
	if q.PostMinutes, err = intParam(c, "post_minutes", q.PostMinutes); err != nil {
		return q, err
	}
	if q.IntervalMinutes, err = intParam(c, "interval_minutes", q.IntervalMinutes); err != nil {
		return q, err
	}
	if raw, ok := c.GetQuery("markets"); ok {
		q.Markets = service.ParseMarketSelectors(raw)
	}
	if q.Mode, err = modeParam(c); err != nil {
		return q, err
	}
	return q, nil
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Dashboard())
}

func (s *Server) handleHealth(c *gin.Context) {
	status, database := "ok", "disabled"
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			status, database = "degraded", "disconnected"
			s.logger.Warn("database ping failed", "error", err)
		} else {
			database = "connected"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"store":    s.svc.HasStore(),
		"database": database,
		"jobs":     s.svc.Dashboard().Meta.Health,
	})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
