package engine

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"mealplan-backend/internal/instrument"
	"mealplan-backend/internal/metadata"
	"mealplan-backend/internal/store"
)

// TotalCountHeader carries the number of records that matched before
// pagination.
const TotalCountHeader = "X-Total-Count"

type Handler struct {
	collections *store.Collections
	registry    *metadata.Registry
	defaults    QueryDefaults
}

func NewHandler(c *store.Collections, reg *metadata.Registry, defaults QueryDefaults) *Handler {
	return &Handler{collections: c, registry: reg, defaults: defaults}
}

// List handles GET /api/:resource
func (h *Handler) List(c *fiber.Ctx) error {
	schema, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	scope, err := GetRequestScope(c)
	if err != nil {
		return err
	}

	_, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "query", "list")
	defer span.End()
	span.SetResource(schema.Name, "")
	span.SetMetadata("scope", scope.Household.String())

	plan := ParseQueryParams(queryValues(c), schema, h.defaults)
	page := Execute(plan, h.collections.Snapshot(schema.Name), scope.Household)

	span.SetMetadata("filters", len(plan.Filters))
	span.SetMetadata("total", page.Total)
	span.SetMetadata("returned", len(page.Items))
	span.SetStatus("ok")

	c.Set(TotalCountHeader, strconv.Itoa(page.Total))
	return c.JSON(page.Items)
}

// GetByID handles GET /api/:resource/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	schema, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	scope, err := GetRequestScope(c)
	if err != nil {
		return err
	}

	id := utils.CopyString(c.Params("id"))
	rec, err := h.fetchInScope(schema, id, scope.Household)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// Create handles POST /api/:resource
func (h *Handler) Create(c *fiber.Ctx) error {
	schema, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	scope, err := GetRequestScope(c)
	if err != nil {
		return err
	}

	body, err := parseBody(c, schema)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	now := timestamp()
	rec := cloneRecord(body)
	rec["id"] = id
	rec["created_at"] = now
	rec["updated_at"] = now
	stampScope(rec, schema, scope.Household)

	ctx, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "write", "create")
	defer span.End()
	span.SetResource(schema.Name, id)

	if err := h.collections.Insert(ctx, schema.Name, id, rec); err != nil {
		span.SetStatus("error")
		return writeError(schema.Name, id, err)
	}
	span.SetStatus("ok")

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// Update handles PUT /api/:resource/:id. The id, owning household and
// created_at of the existing record are kept; the rest is replaced.
func (h *Handler) Update(c *fiber.Ctx) error {
	schema, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	scope, err := GetRequestScope(c)
	if err != nil {
		return err
	}

	id := utils.CopyString(c.Params("id"))
	current, err := h.fetchInScope(schema, id, scope.Household)
	if err != nil {
		return err
	}

	body, err := parseBody(c, schema)
	if err != nil {
		return err
	}

	rec := cloneRecord(body)
	rec["id"] = id
	if created, ok := current["created_at"]; ok {
		rec["created_at"] = created
	} else {
		delete(rec, "created_at")
	}
	rec["updated_at"] = timestamp()
	if schema.Scoped() {
		if owner, ok := current[schema.ScopeField]; ok {
			rec[schema.ScopeField] = owner
		} else {
			delete(rec, schema.ScopeField)
		}
	}

	ctx, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "write", "update")
	defer span.End()
	span.SetResource(schema.Name, id)

	if err := h.collections.Replace(ctx, schema.Name, id, rec); err != nil {
		span.SetStatus("error")
		return writeError(schema.Name, id, err)
	}
	span.SetStatus("ok")

	return c.JSON(rec)
}

// Delete handles DELETE /api/:resource/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	schema, err := h.resolveSchema(c)
	if err != nil {
		return err
	}
	scope, err := GetRequestScope(c)
	if err != nil {
		return err
	}

	id := utils.CopyString(c.Params("id"))
	if _, err := h.fetchInScope(schema, id, scope.Household); err != nil {
		return err
	}

	ctx, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "write", "delete")
	defer span.End()
	span.SetResource(schema.Name, id)

	if err := h.collections.Delete(ctx, schema.Name, id); err != nil {
		span.SetStatus("error")
		return writeError(schema.Name, id, err)
	}
	span.SetStatus("ok")

	return c.JSON(fiber.Map{"id": id})
}

func (h *Handler) resolveSchema(c *fiber.Ctx) (*metadata.Schema, error) {
	name := c.Params("resource")
	schema := h.registry.GetSchema(name)
	if schema == nil {
		return nil, UnknownResourceError(name)
	}
	return schema, nil
}

// fetchInScope returns NOT_FOUND both for missing ids and for records owned
// by another household.
func (h *Handler) fetchInScope(schema *metadata.Schema, id string, token ScopeToken) (metadata.Record, error) {
	rec, err := h.collections.Get(schema.Name, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError(schema.Name, id)
		}
		return nil, fmt.Errorf("get %s/%s: %w", schema.Name, id, err)
	}
	if !InScope(rec, schema, token) {
		return nil, NotFoundError(schema.Name, id)
	}
	return rec, nil
}

func parseBody(c *fiber.Ctx, schema *metadata.Schema) (metadata.Record, error) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if body == nil {
		return nil, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if details := ValidateRecord(schema, body); len(details) > 0 {
		return nil, InvalidPayloadError(details)
	}
	return body, nil
}

func writeError(resource, id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(resource, id)
	case errors.Is(err, store.ErrUniqueViolation):
		return ConflictError(fmt.Sprintf("%s with id %s already exists", resource, id))
	}
	return err
}

// queryValues converts the raw query string into url.Values, keeping
// repeated keys.
func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		values.Add(string(k), string(v))
	})
	return values
}

func stampScope(rec metadata.Record, schema *metadata.Schema, token ScopeToken) {
	if !schema.Scoped() {
		return
	}
	if token.Set {
		rec[schema.ScopeField] = token.ID
		return
	}
	delete(rec, schema.ScopeField)
}

func cloneRecord(rec metadata.Record) metadata.Record {
	out := make(metadata.Record, len(rec)+4)
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
