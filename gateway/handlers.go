package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/whisky_backend/config"
	"bitbucket.org/mmdatafocus/whisky_backend/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the whisky endpoints under /api/whiskies.
func RegisterRoutes(r gin.IRouter, g *Gateway) {
	api := r.Group("/api/whiskies")
	api.GET("", g.listHandler())
	api.POST("", g.createHandler())
	api.PUT("", g.updateHandler())
	api.PUT("/:id", g.updateHandler())
	api.DELETE("", g.deleteHandler())
	api.DELETE("/:id", g.deleteHandler())
	api.GET("/export", g.exportHandler())
	api.GET("/:id/image", g.imageHandler())
}

func (g *Gateway) listHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := g.NormalizeListParams(
			firstQuery(c, "search", "q"),
			c.Query("page"),
			firstQuery(c, "limit", "pageSize"),
		)
		env, err := g.List(c.Request.Context(), q)
		if err != nil {
			g.abort(c, "listHandler", err)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}

func (g *Gateway) createHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := readBody(c)
		if err != nil {
			g.abort(c, "createHandler", err)
			return
		}
		fields, err := models.WhiskyFieldsFromJSON(raw)
		if err != nil {
			g.abort(c, "createHandler", fmt.Errorf("%w: %v", ErrMalformedBody, err))
			return
		}
		env, err := g.Create(c.Request.Context(), fields)
		if err != nil {
			g.abort(c, "createHandler", err)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}

func (g *Gateway) updateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := readBody(c)
		if err != nil {
			g.abort(c, "updateHandler", err)
			return
		}
		id, err := updateId(c, raw)
		if err != nil {
			g.abort(c, "updateHandler", err)
			return
		}
		fields, err := models.WhiskyFieldsFromJSON(raw)
		if err != nil {
			g.abort(c, "updateHandler", fmt.Errorf("%w: %v", ErrMalformedBody, err))
			return
		}
		env, err := g.Update(c.Request.Context(), id, fields)
		if err != nil {
			g.abort(c, "updateHandler", err)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}

func (g *Gateway) deleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")
		if raw == "" {
			raw = c.Query("id")
		}
		id, err := ParseId(raw)
		if err != nil {
			g.abort(c, "deleteHandler", err)
			return
		}
		env, err := g.Delete(c.Request.Context(), id)
		if err != nil {
			g.abort(c, "deleteHandler", err)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}

func (g *Gateway) exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		export, err := g.Export(c.Request.Context(), strings.TrimSpace(firstQuery(c, "search", "q")))
		if err != nil {
			g.abort(c, "exportHandler", err)
			return
		}

		filename := fmt.Sprintf("whiskies-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("X-Total-Count", strconv.FormatInt(export.Total, 10))
		c.Header("X-Using-Fallback", strconv.FormatBool(export.UsingFallback))
		if export.Truncated() {
			c.Header("X-Export-Truncated", "true")
		}
		c.Status(http.StatusOK)
		if _, err := export.WriteTo(c.Writer); err != nil {
			// headers are already sent
			config.LogError(g.logger, "handlers.go", "exportHandler", "write workbook", nil, err)
			_ = c.Error(err)
		}
	}
}

func (g *Gateway) imageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParseId(c.Param("id"))
		if err != nil {
			g.abort(c, "imageHandler", err)
			return
		}
		width, _ := strconv.Atoi(c.Query("width"))

		img, err := g.Image(c.Request.Context(), id, width)
		if err != nil {
			g.abort(c, "imageHandler", err)
			return
		}
		c.Header("Cache-Control", "public, max-age=300")
		c.Header("X-Using-Fallback", strconv.FormatBool(img.UsingFallback))
		c.Data(http.StatusOK, img.ContentType, img.Data)
	}
}

// abort maps an error to its status and writes a failure envelope.
func (g *Gateway) abort(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		config.LogError(g.logger, "handlers.go", funcName, c.Request.Method+" "+c.FullPath(), correlationId(c.Request.Context()), err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, failure(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrIdRequired):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrWhiskyNotFound), errors.Is(err, models.ErrImageNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.Query(key); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// readBody decodes a JSON object body. An empty body is an empty object.
func readBody(c *gin.Context) (map[string]json.RawMessage, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	raw := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(body))) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return raw, nil
}

// updateId resolves the target id from the path, then the query string, then the body.
func updateId(c *gin.Context, body map[string]json.RawMessage) (int, error) {
	if id := c.Param("id"); id != "" {
		return ParseId(id)
	}
	if id := c.Query("id"); id != "" {
		return ParseId(id)
	}
	value, ok := body["id"]
	if !ok {
		return 0, ErrIdRequired
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return ParseId(s)
	}
	var n json.Number
	if err := json.Unmarshal(value, &n); err == nil {
		return ParseId(n.String())
	}
	return 0, ErrIdRequired
}
