package admin

import (
	"github.com/gofiber/fiber/v2"

	"mealplan-backend/internal/engine"
	"mealplan-backend/internal/metadata"
	"mealplan-backend/internal/store"
)

// Handler serves read-only introspection of the registered resource schemas.
type Handler struct {
	collections *store.Collections
	registry    *metadata.Registry
}

func NewHandler(c *store.Collections, reg *metadata.Registry) *Handler {
	return &Handler{collections: c, registry: reg}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/resources", h.ListResources)
	admin.Get("/resources/:name", h.GetResource)
}

type fieldView struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Enum      []string `json:"enum,omitempty"`
	Computed  bool     `json:"computed"`
	Operators []string `json:"operators"`
}

type resourceView struct {
	Name       string      `json:"name"`
	ScopeField string      `json:"scope_field,omitempty"`
	Records    int         `json:"records"`
	Fields     []fieldView `json:"fields"`
}

func (h *Handler) ListResources(c *fiber.Ctx) error {
	schemas := h.registry.AllSchemas()
	out := make([]resourceView, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, h.view(s))
	}
	return c.JSON(out)
}

func (h *Handler) GetResource(c *fiber.Ctx) error {
	name := c.Params("name")
	s := h.registry.GetSchema(name)
	if s == nil {
		return engine.UnknownResourceError(name)
	}
	return c.JSON(h.view(s))
}

func (h *Handler) view(s *metadata.Schema) resourceView {
	v := resourceView{
		Name:       s.Name,
		ScopeField: s.ScopeField,
		Records:    h.collections.Len(s.Name),
		Fields:     make([]fieldView, 0, len(s.Fields)),
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		v.Fields = append(v.Fields, fieldView{
			Name:      f.Name,
			Type:      string(f.Type),
			Enum:      f.Enum,
			Computed:  f.Accessor != nil,
			Operators: engine.OperatorsFor(f),
		})
	}
	return v
}
