package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/api"
	"github.com/psds-microservice/support-chat/internal/handler"
	"github.com/psds-microservice/support-chat/web"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
)

type Deps struct {
	Chat    *handler.ChatHandler
	Tickets *handler.TicketHandler
	FAQ     *handler.FAQHandler
	Pages   *handler.PageHandler
	Ready   map[string]handler.Pinger

	SessionTTL time.Duration
	Log        *slog.Logger
}

func New(d Deps) (http.Handler, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(handler.Recovery(log), handler.RequestLogger(log))
	r.SetHTMLTemplate(tmpl)

	r.GET(PathHealth, handler.Health)
	r.GET(PathReady, handler.Ready(d.Ready))
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = PathSwagger + "/index.html"
			c.Request.RequestURI = PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(PathSwagger+"/openapi.json"))(c)
	})

	// всё, что читает или пишет журнал, идёт через cookie сессии
	session := handler.Session(d.SessionTTL)
	r.GET("/", session, d.Pages.Index)
	r.GET("/operator", d.Pages.Operator)

	a := r.Group("/api")
	{
		a.POST("/message", session, d.Chat.Message)
		a.POST("/add_to_history", session, d.Chat.AddToHistory)
		a.GET("/history", session, d.Chat.History)

		a.GET("/tickets", d.Tickets.List)
		a.GET("/tickets/:id", d.Tickets.Get)
		a.POST("/tickets/:id/answer", d.Tickets.Answer)

		a.GET("/faq", d.FAQ.List)
		a.POST("/faq", d.FAQ.Create)
		a.GET("/categories", d.FAQ.Categories)
	}

	return r, nil
}
