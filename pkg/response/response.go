package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/middleware/requestid"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Page  *Page                  `json:"page,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// Page echoes the window a list endpoint was asked for.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, env)
}

// OK responds 200 with data.
func OK(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Envelope{Data: data})
}

// WithMeta responds 200 with data and extra top-level metadata.
func WithMeta(c *gin.Context, data interface{}, meta map[string]interface{}) {
	write(c, http.StatusOK, Envelope{Data: data, Meta: meta})
}

// List responds 200 with a slice and its page window.
func List(c *gin.Context, data interface{}, page Page) {
	write(c, http.StatusOK, Envelope{Data: data, Page: &page})
}

// Created responds 201.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Data: data})
}

// Error maps err onto its typed status. Server-side failures are attached to
// the gin context so the access log records the cause.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	env := Envelope{Error: appErr}
	if id := requestid.Value(c); id != "" {
		env.Meta = map[string]interface{}{"request_id": id}
	}
	write(c, appErr.Status, env)
}

// NoContent responds 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
