// Package httpx writes the uniform JSON envelope every endpoint returns.
package httpx

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
)

// CtxDevModeKey, when set to true on the context, adds stack output to failures.
const CtxDevModeKey = "dev_mode"

type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
	Stack   string   `json:"stack,omitempty"`
}

func OK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{StatusCode: status, Data: data, Message: message, Success: true})
}

// Fail writes err as a failure envelope and aborts the chain.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	body := ErrorResponse{Success: false, Message: "Internal Server Error", Errors: []string{}}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Message != "" {
			body.Message = ae.Message
		}
		if len(ae.Errors) > 0 {
			body.Errors = ae.Errors
		}
	}
	if kind == apperr.KindInternal {
		log.Printf("internal error method=%s path=%s err=%v", c.Request.Method, c.Request.URL.Path, err)
	}
	if c.GetBool(CtxDevModeKey) {
		body.Stack = fmt.Sprintf("%v\n%s", err, debug.Stack())
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), body)
}

// DevMode marks every request as running in a development configuration.
func DevMode(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxDevModeKey, enabled)
		c.Next()
	}
}

// Recovery turns panics into an Internal envelope instead of a bare 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				Fail(c, apperr.Internal(fmt.Errorf("panic: %v", r), "Internal Server Error"))
			}
		}()
		c.Next()
	}
}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// CORS allows the comma-separated origins with credentials. "*" allows any
// origin without credentials; an empty list sends no CORS headers.
func CORS(allowed string) gin.HandlerFunc {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins[o] = true
		}
	}
	wildcard := origins["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
			corsMethods(c)
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
			corsMethods(c)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func corsMethods(c *gin.Context) {
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}

// ParseInt is the lenient query parser: anything unparseable, including
// values outside int, yields def.
func ParseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
