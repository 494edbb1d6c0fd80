package handler

import (
	"context"
	"net/http"
	"time"

	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type pageController struct {
	db *sqlx.DB
}

func (p *pageController) Index(c *gin.Context) {
	web.Render(c, http.StatusOK, web.PageIndex, web.NewPage(c, "Home"))
}

func (p *pageController) Dashboard(c *gin.Context) {
	web.Render(c, http.StatusOK, web.PageDashboard, web.NewPage(c, "Dashboard"))
}

// Health reports whether the database answers.
func (p *pageController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
