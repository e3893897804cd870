// Package hero renders the landing banner of the site.
package hero

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

const templateName = "index.html"

// Logo describes the banner image and the path used when it fails to load.
type Logo struct {
	Src      string
	Alt      string
	Fallback string
}

// Link is a labelled anchor.
type Link struct {
	Label string
	Href  string
}

// Content is the static data shown in the banner.
type Content struct {
	Title        string
	Tagline      string
	Logo         Logo
	CallToAction Link
}

// DefaultContent returns the banner shown on the landing page.
func DefaultContent() Content {
	return Content{
		Title:   "Hachiran Ramen",
		Tagline: "I ♥ Hachiran Ramen — bold flavors, springy noodles, made with love.",
		Logo: Logo{
			Src:      "/logo.jpg",
			Alt:      "Hachiran Ramen logo",
			Fallback: "/logo.jpg",
		},
		CallToAction: Link{Label: "Explore Menu", Href: "#ramen"},
	}
}

// Handler serves the rendered banner.
type Handler struct {
	tmpl    *template.Template
	content Content
}

// NewHandler parses the embedded template once.
func NewHandler(content Content) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+templateName)
	if err != nil {
		return nil, fmt.Errorf("parse hero template: %w", err)
	}
	return &Handler{tmpl: tmpl, content: content}, nil
}

// RegisterRoutes mounts the landing page and the logo asset.
func RegisterRoutes(router *gin.Engine, handler *Handler, logoPath string) {
	router.GET("/", handler.index)
	router.HEAD("/", handler.index)
	if logoPath != "" {
		router.StaticFile("/logo.jpg", logoPath)
	}
}

func (h *Handler) index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{
		Template: h.tmpl,
		Name:     templateName,
		Data:     h.content,
	})
}
