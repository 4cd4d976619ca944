package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-backend/internal/metadata"
)

func clause(t *testing.T, raw string) FilterClause {
	t.Helper()
	clauses := CompileFilters(query(t, raw), testSchema())
	require.Len(t, clauses, 1, raw)
	return clauses[0]
}

func TestResolve_Types(t *testing.T) {
	s := testSchema()
	rec := metadata.Record{
		"name":              "Soup",
		"calories":          "450",
		"created_at":        "2024-03-01T10:00:00Z",
		"suitable_for_diet": []any{"vegan", nil, "halal"},
	}

	v := Resolve(rec, s.GetField("name"))
	assert.True(t, v.Present)
	assert.Equal(t, []string{"Soup"}, v.Strings)

	v = Resolve(rec, s.GetField("calories"))
	assert.True(t, v.Present)
	assert.Equal(t, 450.0, v.Number)

	v = Resolve(rec, s.GetField("created_at"))
	assert.True(t, v.Present)
	assert.True(t, v.Time.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	v = Resolve(rec, s.GetField("suitable_for_diet"))
	assert.Equal(t, []string{"vegan", "halal"}, v.Strings)

	v = Resolve(rec, s.GetField("prep_time"))
	assert.False(t, v.Present)
}

func TestResolve_AbsentDistinctFromZero(t *testing.T) {
	s := testSchema()

	empty := Resolve(metadata.Record{"name": ""}, s.GetField("name"))
	assert.True(t, empty.Present)

	zero := Resolve(metadata.Record{"calories": 0}, s.GetField("calories"))
	assert.True(t, zero.Present)

	bad := Resolve(metadata.Record{"calories": "many"}, s.GetField("calories"))
	assert.False(t, bad.Present)

	assert.True(t, clause(t, "name=").Matches(metadata.Record{"name": ""}))
	assert.False(t, clause(t, "name=").Matches(metadata.Record{}))
}

func TestEq_CaseSensitive(t *testing.T) {
	c := clause(t, "difficulty=easy")
	assert.True(t, c.Matches(metadata.Record{"difficulty": "easy"}))
	assert.False(t, c.Matches(metadata.Record{"difficulty": "Easy"}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestEq_Number(t *testing.T) {
	c := clause(t, "calories=300")
	assert.True(t, c.Matches(metadata.Record{"calories": 300}))
	assert.True(t, c.Matches(metadata.Record{"calories": 300.0}))
	assert.False(t, c.Matches(metadata.Record{"calories": 301}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestIn_Scalar(t *testing.T) {
	c := clause(t, "name[in]=Soup,Stew")
	assert.True(t, c.Matches(metadata.Record{"name": "Soup"}))
	assert.True(t, c.Matches(metadata.Record{"name": "Stew"}))
	assert.False(t, c.Matches(metadata.Record{"name": "Pie"}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestIn_ArrayIntersection(t *testing.T) {
	c := clause(t, "suitable_for_diet[in]=vegan,vegetarian")
	assert.True(t, c.Matches(metadata.Record{"suitable_for_diet": []string{"gluten_free", "vegan"}}))
	assert.False(t, c.Matches(metadata.Record{"suitable_for_diet": []string{"halal"}}))
	assert.False(t, c.Matches(metadata.Record{"suitable_for_diet": []string{}}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestLike_CaseInsensitive(t *testing.T) {
	c := clause(t, "name[like]=choc")
	assert.True(t, c.Matches(metadata.Record{"name": "Chocolate Cake"}))
	assert.True(t, c.Matches(metadata.Record{"name": "HOT CHOCOLATE"}))
	assert.False(t, c.Matches(metadata.Record{"name": "Vanilla"}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestLike_EmptyOperandMatchesPresent(t *testing.T) {
	c := clause(t, "name[like]=")
	assert.True(t, c.Matches(metadata.Record{"name": "Soup"}))
	assert.True(t, c.Matches(metadata.Record{"name": ""}))
	assert.False(t, c.Matches(metadata.Record{}))
}

func TestLike_NestedIngredients(t *testing.T) {
	rec := metadata.Record{
		"components": []any{
			map[string]any{"ingredients": []any{map[string]any{"name": "Plain Flour"}}},
			map[string]any{"ingredients": []any{map[string]any{"name": "Dark Chocolate"}}},
		},
	}
	assert.True(t, clause(t, "ingredients[like]=chocolate").Matches(rec))
	assert.True(t, clause(t, "ingredients[like]=FLOUR").Matches(rec))
	assert.False(t, clause(t, "ingredients[like]=butter").Matches(rec))
	assert.True(t, clause(t, "ingredients=Plain Flour").Matches(rec))
	assert.False(t, clause(t, "ingredients[like]=flour").Matches(metadata.Record{"components": []any{}}))
}

func TestGtLt_Strict(t *testing.T) {
	gt := clause(t, "calories[gt]=300")
	lt := clause(t, "calories[lt]=300")

	assert.False(t, gt.Matches(metadata.Record{"calories": 300}))
	assert.False(t, lt.Matches(metadata.Record{"calories": 300}))
	assert.True(t, gt.Matches(metadata.Record{"calories": 301}))
	assert.True(t, lt.Matches(metadata.Record{"calories": 299.5}))
}

func TestGtLt_AbsentNumberIsZero(t *testing.T) {
	assert.True(t, clause(t, "calories[lt]=10").Matches(metadata.Record{}))
	assert.False(t, clause(t, "calories[gt]=0").Matches(metadata.Record{}))
	assert.True(t, clause(t, "calories[gt]=-1").Matches(metadata.Record{}))
	assert.True(t, clause(t, "calories[lt]=1").Matches(metadata.Record{"calories": "unknown"}))
}

func TestGtLt_Dates(t *testing.T) {
	rec := metadata.Record{"created_at": "2024-03-01"}
	assert.True(t, clause(t, "created_at[gt]=2024-02-28").Matches(rec))
	assert.False(t, clause(t, "created_at[gt]=2024-03-01").Matches(rec))
	assert.True(t, clause(t, "created_at[lt]=2024-03-01T00:00:01Z").Matches(rec))
	assert.True(t, clause(t, "created_at=2024-03-01T00:00:00Z").Matches(rec))

	// absent dates have no zero fallback
	assert.False(t, clause(t, "created_at[lt]=2030-01-01").Matches(metadata.Record{}))
}

func TestGtLt_TimeValues(t *testing.T) {
	rec := metadata.Record{"created_at": time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	assert.True(t, clause(t, "created_at[gt]=2024-06-01").Matches(rec))
	assert.False(t, clause(t, "created_at[lt]=2024-06-01").Matches(rec))
}
