package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_TopLevel(t *testing.T) {
	v, ok := Path("name")(Record{"name": "Beef Stew"})
	require.True(t, ok)
	assert.Equal(t, "Beef Stew", v)

	_, ok = Path("name")(Record{"title": "Beef Stew"})
	assert.False(t, ok)
}

func TestPath_NestedMap(t *testing.T) {
	rec := Record{"nutrition": map[string]any{"calories": 420.0}}

	v, ok := Path("nutrition.calories")(rec)
	require.True(t, ok)
	assert.Equal(t, 420.0, v)

	_, ok = Path("nutrition.protein")(rec)
	assert.False(t, ok)

	_, ok = Path("nutrition.calories.kcal")(rec)
	assert.False(t, ok)
}

func TestPath_FlattensThroughArrays(t *testing.T) {
	rec := Record{
		"components": []any{
			map[string]any{"ingredients": []any{
				map[string]any{"name": "Chicken"},
				map[string]any{"name": "Onion"},
			}},
			map[string]any{"ingredients": []any{
				map[string]any{"name": "Garlic"},
				map[string]any{"amount": 2},
			}},
			map[string]any{"title": "no ingredients here"},
		},
	}

	v, ok := Path("components.ingredients.name")(rec)
	require.True(t, ok)
	assert.Equal(t, []any{"Chicken", "Onion", "Garlic"}, v)
}

func TestPath_TypedSlices(t *testing.T) {
	rec := Record{
		"tags":    []string{"quick", "weeknight"},
		"recipes": []map[string]any{{"name": "Soup"}, {"name": "Bread"}},
	}

	v, ok := Path("tags")(rec)
	require.True(t, ok)
	assert.Equal(t, []any{"quick", "weeknight"}, v)

	v, ok = Path("recipes.name")(rec)
	require.True(t, ok)
	assert.Equal(t, []any{"Soup", "Bread"}, v)
}

func TestPath_EmptyArrayIsAbsent(t *testing.T) {
	_, ok := Path("components.ingredients.name")(Record{"components": []any{}})
	assert.False(t, ok)
}

func TestExpr_ComputedField(t *testing.T) {
	total := Expr("(prep_time ?? 0) + (cook_time ?? 0)")

	v, ok := total(Record{"prep_time": 10, "cook_time": 25})
	require.True(t, ok)
	assert.EqualValues(t, 35, v)

	v, ok = total(Record{"cook_time": 25.5})
	require.True(t, ok)
	assert.EqualValues(t, 25.5, v)
}

func TestExpr_ErrorIsAbsent(t *testing.T) {
	_, ok := Expr("prep_time + cook_time")(Record{"prep_time": "ten", "cook_time": 5})
	assert.False(t, ok)
}

func TestExpr_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() { Expr("prep_time +") })
}

func TestNewSchema_Validation(t *testing.T) {
	_, err := NewSchema("recipes", "household_id",
		Field{Name: "name", Type: TypeString},
		Field{Name: "name", Type: TypeNumber},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")

	_, err = NewSchema("recipes", "", Field{Name: "cuisine", Type: TypeEnum})
	require.Error(t, err)

	_, err = NewSchema("recipes", "", Field{Name: "weight", Type: "decimal"})
	require.Error(t, err)

	s, err := NewSchema("recipes", "household_id", Field{Name: "name", Type: TypeString})
	require.NoError(t, err)
	assert.True(t, s.Scoped())
	assert.True(t, s.HasField("name"))
	assert.Nil(t, s.GetField("calories"))
}

func TestField_GetWithoutAccessor(t *testing.T) {
	f := Field{Name: "name", Type: TypeString}

	v, ok := f.Get(Record{"name": "Soup"})
	require.True(t, ok)
	assert.Equal(t, "Soup", v)

	_, ok = f.Get(Record{"name": nil})
	assert.False(t, ok)
}
