package handler

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/contentstore/internal/content/service"
)

// Service is what the HTTP layer needs from the content service.
type Service interface {
	List(ctx context.Context, key, field, value string) (*service.Result, error)
	Get(ctx context.Context, key, id string) (*service.Result, error)
	Update(ctx context.Context, key, id, field string, value json.RawMessage) (*service.Result, error)
	Add(ctx context.Context, key string, clear bool, data json.RawMessage) (*service.Result, error)
	Remove(ctx context.Context, key, token string) (*service.Result, error)
}

type updateRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type addRequest struct {
	Clear bool            `json:"clear"`
	Data  json.RawMessage `json:"data"`
}

// RegisterContentRoutes mounts the content API under /api/v1/content/:key.
// A record whose id is literally "all" cannot be fetched by id.
func RegisterContentRoutes(r gin.IRouter, svc Service) {
	g := r.Group("/api/v1/content/:key")

	g.GET("/all", func(c *gin.Context) {
		res, err := svc.List(c.Request.Context(), c.Param("key"), c.Query("key"), c.Query("value"))
		respond(c, res, err, MsgFetched)
	})

	g.GET("/:id", func(c *gin.Context) {
		res, err := svc.Get(c.Request.Context(), c.Param("key"), c.Param("id"))
		respond(c, res, err, MsgFetched)
	})

	g.PUT("/:id", func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c)
			return
		}
		res, err := svc.Update(c.Request.Context(), c.Param("key"), c.Param("id"), req.Key, req.Value)
		respond(c, res, err, MsgUpdated)
	})

	g.POST("", func(c *gin.Context) {
		var req addRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalid(c)
			return
		}
		res, err := svc.Add(c.Request.Context(), c.Param("key"), req.Clear, req.Data)
		msg := MsgUpdated
		if err == nil && !res.Committed {
			msg = MsgFetched
		}
		respond(c, res, err, msg)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		res, err := svc.Remove(c.Request.Context(), c.Param("key"), c.Param("id"))
		respond(c, res, err, MsgDeleted)
	})
}
