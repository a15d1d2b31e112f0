package service

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

var ingredientSchema = llm.Object(
	llm.Required("name", llm.String),
	llm.Required("quantity", llm.Number),
	llm.Required("unit", llm.String),
)

var recipeSchema = llm.Object(
	llm.Optional("id", llm.String),
	llm.Required("title", llm.String),
	llm.Required("description", llm.String),
	llm.Required("total_time_minutes", llm.Number),
	llm.Required("servings", llm.Integer),
	llm.Required("ingredients", llm.ArrayOf(ingredientSchema)),
	llm.Required("steps", llm.ArrayOf(llm.String)),
)

var suggestionsSchema = llm.Object(
	llm.Required("suggestions", llm.ArrayOf(recipeSchema)),
)

var modifySchema = llm.Object(
	llm.Optional("new_recipe", recipeSchema).UnlessSet("error"),
	llm.Required("response_text", llm.String),
	llm.Optional("error", llm.String),
	llm.Required("needs_new_image", llm.Boolean),
)

type suggestionsOutput struct {
	Suggestions []types.Recipe `json:"suggestions" binding:"dive"`
}

type modifyOutput struct {
	NewRecipe     *types.Recipe `json:"new_recipe" binding:"required"`
	ResponseText  string        `json:"response_text"`
	Error         string        `json:"error"`
	NeedsNewImage bool          `json:"needs_new_image"`
}

// UnmarshalJSON tolerates an undecodable new_recipe alongside a reported
// conflict, since the recipe is discarded in that case.
func (o *modifyOutput) UnmarshalJSON(data []byte) error {
	type plain modifyOutput
	aux := struct {
		*plain
		NewRecipe json.RawMessage `json:"new_recipe"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.NewRecipe) == 0 || string(aux.NewRecipe) == "null" {
		return nil
	}
	var recipe types.Recipe
	if err := json.Unmarshal(aux.NewRecipe, &recipe); err != nil {
		if strings.TrimSpace(o.Error) != "" {
			return nil
		}
		return err
	}
	o.NewRecipe = &recipe
	return nil
}

// Check only holds new_recipe to the recipe rules when no conflict was
// reported; a flagged conflict discards it.
func (o modifyOutput) Check(v *validator.Validate) error {
	if strings.TrimSpace(o.Error) != "" {
		return nil
	}
	return v.Struct(o)
}
