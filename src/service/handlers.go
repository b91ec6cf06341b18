package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"airview/src/sensor"
)

// Store is the data dependency of the HTTP layer; *InfluxStore satisfies it.
type Store interface {
	ReadingsInSpan(ctx context.Context, span time.Duration) ([]sensor.Reading, error)
	ReadingsBetween(ctx context.Context, startMs, stopMs int64) ([]sensor.Reading, error)
	CurrentCO2(ctx context.Context) (float64, error)
}

// NewRouter builds the API router. Error responses are plain text on purpose:
// the viewer surfaces response bodies verbatim as its error banner. Responses
// compress when the client accepts gzip; long-span reading lists shrink well.
func NewRouter(store Store, password string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api", bearerAuth(password))
	api.GET("/readings/range/:range", rangeHandler(store))
	api.GET("/readings/from/:start/to/:stop", windowHandler(store))
	api.GET("/co2/current", currentCO2Handler(store))
	return r
}

// bearerAuth rejects requests whose Authorization header does not carry the
// configured password. An empty password disables the check.
func bearerAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != password {
			c.String(http.StatusUnauthorized, "Invalid password")
			c.Abort()
			return
		}
	}
}

// ParseSpan interprets a named preset span. Hours and smaller use Go duration
// syntax; "d" and "w" suffixes add days and weeks, which the presets ("7d",
// "4w") need and stdlib parsing does not cover.
func ParseSpan(name string) (time.Duration, error) {
	if n, ok := strings.CutSuffix(name, "d"); ok {
		days, err := strconv.Atoi(n)
		if err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	if n, ok := strings.CutSuffix(name, "w"); ok {
		weeks, err := strconv.Atoi(n)
		if err == nil && weeks > 0 {
			return time.Duration(weeks) * 7 * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(name)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("could not convert %q into a duration", name)
	}
	return d, nil
}

func rangeHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, err := ParseSpan(c.Param("range"))
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		start := time.Now()
		readings, err := store.ReadingsInSpan(c.Request.Context(), span)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		sensor.Infof("served %d readings for span %s in %d ms",
			len(readings), span, time.Since(start).Milliseconds())
		c.JSON(http.StatusOK, emptyAsList(readings))
	}
}

func windowHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		startMs, err1 := strconv.ParseInt(c.Param("start"), 10, 64)
		stopMs, err2 := strconv.ParseInt(c.Param("stop"), 10, 64)
		if err1 != nil || err2 != nil || stopMs < startMs {
			c.String(http.StatusBadRequest, "window bounds must be epoch milliseconds with start <= stop")
			return
		}
		start := time.Now()
		readings, err := store.ReadingsBetween(c.Request.Context(), startMs, stopMs)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		sensor.Infof("served %d readings for [%d, %d] in %d ms",
			len(readings), startMs, stopMs, time.Since(start).Milliseconds())
		c.JSON(http.StatusOK, emptyAsList(readings))
	}
}

func currentCO2Handler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := store.CurrentCO2(c.Request.Context())
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, "%.2f", v)
	}
}

// emptyAsList keeps empty results serializing as [] rather than null; the
// viewer decodes into a slice either way but other consumers may not.
func emptyAsList(rs []sensor.Reading) []sensor.Reading {
	if rs == nil {
		return []sensor.Reading{}
	}
	return rs
}
