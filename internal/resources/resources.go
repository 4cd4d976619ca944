// Package resources declares the filterable schemas of the three resource
// types served by the query engine. Schemas are data; the engine has no
// resource-specific code.
package resources

import "mealplan-backend/internal/metadata"

// Resource names as they appear in the URL.
const (
	Recipes       = "recipes"
	MealTemplates = "meal_templates"
	Meals         = "meals"
)

// HouseholdField is the scope association shared by every resource.
const HouseholdField = "household_id"

var (
	mealTypes    = []string{"breakfast", "lunch", "dinner", "snack"}
	difficulties = []string{"easy", "medium", "hard"}
)

// RecipeSchema: ingredients are nested as components[].ingredients[].
var RecipeSchema = metadata.MustSchema(Recipes, HouseholdField,
	metadata.Field{Name: "id", Type: metadata.TypeString},
	metadata.Field{Name: "name", Type: metadata.TypeString},
	metadata.Field{Name: "description", Type: metadata.TypeString},
	metadata.Field{Name: "household_id", Type: metadata.TypeString},
	metadata.Field{Name: "calories", Type: metadata.TypeNumber},
	metadata.Field{Name: "servings", Type: metadata.TypeNumber},
	metadata.Field{Name: "prep_time", Type: metadata.TypeNumber},
	metadata.Field{Name: "cook_time", Type: metadata.TypeNumber},
	metadata.Field{Name: "total_time", Type: metadata.TypeNumber,
		Accessor: metadata.Expr("(prep_time ?? 0) + (cook_time ?? 0)")},
	metadata.Field{Name: "protein", Type: metadata.TypeNumber, Accessor: metadata.Path("nutrition.protein")},
	metadata.Field{Name: "cuisine", Type: metadata.TypeString},
	metadata.Field{Name: "difficulty", Type: metadata.TypeEnum, Enum: difficulties},
	metadata.Field{Name: "suitable_for_diet", Type: metadata.TypeStringList},
	metadata.Field{Name: "tags", Type: metadata.TypeStringList},
	metadata.Field{Name: "ingredients", Type: metadata.TypeStringList,
		Accessor: metadata.Path("components.ingredients.name")},
	metadata.Field{Name: "created_at", Type: metadata.TypeDate},
	metadata.Field{Name: "updated_at", Type: metadata.TypeDate},
)

// MealTemplateSchema: a reusable set of recipes for one meal slot.
var MealTemplateSchema = metadata.MustSchema(MealTemplates, HouseholdField,
	metadata.Field{Name: "id", Type: metadata.TypeString},
	metadata.Field{Name: "name", Type: metadata.TypeString},
	metadata.Field{Name: "description", Type: metadata.TypeString},
	metadata.Field{Name: "household_id", Type: metadata.TypeString},
	metadata.Field{Name: "meal_type", Type: metadata.TypeEnum, Enum: mealTypes},
	metadata.Field{Name: "recipe_ids", Type: metadata.TypeStringList, Accessor: metadata.Path("recipes.id")},
	metadata.Field{Name: "recipes", Type: metadata.TypeStringList, Accessor: metadata.Path("recipes.name")},
	metadata.Field{Name: "calories", Type: metadata.TypeNumber,
		Accessor: metadata.Expr("sum(map(recipes ?? [], #.calories ?? 0))")},
	metadata.Field{Name: "suitable_for_diet", Type: metadata.TypeStringList},
	metadata.Field{Name: "created_at", Type: metadata.TypeDate},
	metadata.Field{Name: "updated_at", Type: metadata.TypeDate},
)

// MealSchema: a template or ad hoc recipe set planned on a date.
var MealSchema = metadata.MustSchema(Meals, HouseholdField,
	metadata.Field{Name: "id", Type: metadata.TypeString},
	metadata.Field{Name: "name", Type: metadata.TypeString},
	metadata.Field{Name: "household_id", Type: metadata.TypeString},
	metadata.Field{Name: "date", Type: metadata.TypeDate},
	metadata.Field{Name: "meal_type", Type: metadata.TypeEnum, Enum: mealTypes},
	metadata.Field{Name: "template_id", Type: metadata.TypeString},
	metadata.Field{Name: "recipe_ids", Type: metadata.TypeStringList, Accessor: metadata.Path("recipes.id")},
	metadata.Field{Name: "recipes", Type: metadata.TypeStringList, Accessor: metadata.Path("recipes.name")},
	metadata.Field{Name: "ingredients", Type: metadata.TypeStringList,
		Accessor: metadata.Path("recipes.components.ingredients.name")},
	metadata.Field{Name: "calories", Type: metadata.TypeNumber,
		Accessor: metadata.Expr("sum(map(recipes ?? [], #.calories ?? 0))")},
	metadata.Field{Name: "servings", Type: metadata.TypeNumber},
	metadata.Field{Name: "created_at", Type: metadata.TypeDate},
	metadata.Field{Name: "updated_at", Type: metadata.TypeDate},
)

// All returns the schemas of every resource type.
func All() []*metadata.Schema {
	return []*metadata.Schema{RecipeSchema, MealTemplateSchema, MealSchema}
}

// NewRegistry returns a registry holding every resource schema.
func NewRegistry() *metadata.Registry {
	reg := metadata.NewRegistry()
	reg.Load(All())
	return reg
}
