package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ingredientSchema = Object(
	Required("name", String),
	Required("quantity", Number),
	Optional("unit", String),
)

var recipeSchema = Object(
	Required("title", String),
	Required("servings", Integer),
	Required("ingredients", ArrayOf(ingredientSchema)),
	Optional("vegetarian", Boolean),
)

var outcomeSchema = Object(
	Optional("result", recipeSchema).UnlessSet("error"),
	Optional("error", String),
)

func TestSchema_Describe(t *testing.T) {
	var described map[string]any
	require.NoError(t, json.Unmarshal([]byte(recipeSchema.Describe()), &described))

	assert.Equal(t, "object", described["type"])
	assert.ElementsMatch(t, []any{"title", "servings", "ingredients"}, described["required"])

	props := described["properties"].(map[string]any)
	items := props["ingredients"].(map[string]any)["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.NotContains(t, recipeSchema.Describe(), "title\":{\"title")
	assert.NotContains(t, recipeSchema.Describe(), "description")
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "valid",
			doc:  `{"title":"Soup","servings":2,"ingredients":[{"name":"leek","quantity":1}]}`,
		},
		{
			name: "missing required",
			doc:  `{"servings":2,"ingredients":[]}`,
			want: []string{"$.title: required field missing"},
		},
		{
			name: "null required",
			doc:  `{"title":null,"servings":2,"ingredients":[]}`,
			want: []string{"$.title: required field missing"},
		},
		{
			name: "wrong nested type",
			doc:  `{"title":"Soup","servings":2,"ingredients":[{"name":"leek","quantity":"one"}]}`,
			want: []string{"$.ingredients[0].quantity: expected number, got string"},
		},
		{
			name: "fractional integer",
			doc:  `{"title":"Soup","servings":2.5,"ingredients":[]}`,
			want: []string{"$.servings: expected integer, got number"},
		},
		{
			name: "top level array",
			doc:  `[1,2]`,
			want: []string{"$: expected object, got array"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc any
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			assert.Equal(t, tt.want, recipeSchema.Validate(doc))
		})
	}
}

func TestSchema_ValidateUnlessSet(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "result checked without error",
			doc:  `{"result":{"servings":2,"ingredients":[]}}`,
			want: []string{"$.result.title: required field missing"},
		},
		{
			name: "blank error does not excuse result",
			doc:  `{"result":{"title":"Soup","servings":"two","ingredients":[]},"error":"  "}`,
			want: []string{"$.result.servings: expected integer, got string"},
		},
		{
			name: "error excuses malformed result",
			doc:  `{"result":{},"error":"contains peanuts"}`,
		},
		{
			name: "error excuses missing result",
			doc:  `{"error":"contains peanuts"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc any
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			assert.Equal(t, tt.want, outcomeSchema.Validate(doc))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1]\n```", `[1]`},
		{"```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in))
	}
}
