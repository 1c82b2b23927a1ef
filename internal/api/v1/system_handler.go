package v1

import (
	"net/http"
	"time"

	"taskhub/internal/api/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a backing dependency answers.
type HealthCheck func(ctx *gin.Context) error

type healthReply struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Time   time.Time         `json:"time"`
}

func RegisterSystemRoutes(router gin.IRoutes, checks map[string]HealthCheck) {
	router.GET("/healthz", func(c *gin.Context) {
		res := healthReply{Status: "ok", Checks: map[string]string{}, Time: time.Now().UTC()}
		healthy := true
		for name, check := range checks {
			if err := check(c); err != nil {
				res.Checks[name] = err.Error()
				healthy = false
				continue
			}
			res.Checks[name] = "ok"
		}
		if !healthy {
			res.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Code:    http.StatusServiceUnavailable,
				Message: res.Status,
				Data:    res,
			})
			return
		}
		response.Success(c, res)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
