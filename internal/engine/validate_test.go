package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mealplan-backend/internal/metadata"
)

func TestValidateRecord(t *testing.T) {
	s := testSchema()

	assert.Empty(t, ValidateRecord(s, metadata.Record{
		"name":              "Soup",
		"calories":          300.0,
		"difficulty":        "easy",
		"created_at":        "2024-03-01",
		"suitable_for_diet": []any{"vegan"},
		"extra":             true,
		"prep_time":         nil,
	}))

	errs := ValidateRecord(s, metadata.Record{
		"created_at":        "yesterday",
		"suitable_for_diet": []any{"vegan", 3.0},
	})
	assert.Len(t, errs, 2)
	assert.Equal(t, "created_at", errs[0].Field)
	assert.Equal(t, "suitable_for_diet", errs[1].Field)
}

func TestValidateRecord_SkipsComputedFields(t *testing.T) {
	assert.Empty(t, ValidateRecord(testSchema(), metadata.Record{"ingredients": 12}))
}
