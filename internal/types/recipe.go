package types

import (
	"encoding/json"
	"math"
	"slices"
)

// Ingredient is a single line of a recipe
type Ingredient struct {
	Name     string  `json:"name" binding:"required,notblank"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit"`
}

// Recipe is a request-scoped recipe value. It is well-formed when every
// ingredient is named with a non-negative quantity, servings >= 1 and
// total time >= 0.
type Recipe struct {
	ID               string       `json:"id"`
	Title            string       `json:"title" binding:"required"`
	Description      string       `json:"description"`
	TotalTimeMinutes int          `json:"total_time_minutes" binding:"gte=0"`
	Servings         int          `json:"servings" binding:"gte=1"`
	Ingredients      []Ingredient `json:"ingredients" binding:"dive"`
	Steps            []string     `json:"steps"`
	ImageURL         string       `json:"image_url,omitempty"`
}

// UnmarshalJSON accepts a fractional total_time_minutes and rounds it to
// whole minutes.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type plain Recipe
	aux := struct {
		*plain
		TotalTimeMinutes float64 `json:"total_time_minutes"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.TotalTimeMinutes = int(math.Round(aux.TotalTimeMinutes))
	return nil
}

// Clone returns a deep copy so callers never share slices
func (r Recipe) Clone() Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Steps = slices.Clone(r.Steps)
	return r
}

// MealPlan is an ordered list of recipes
type MealPlan struct {
	Recipes []Recipe `json:"recipes" binding:"dive"`
}

// GroceryItem is a merged shopping line. UnitConflict is set when the same
// ingredient appears elsewhere in the list with a different unit.
type GroceryItem struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	UnitConflict bool    `json:"unit_conflict,omitempty"`
}

// ModifiedIngredient points at an existing ingredient whose amount changed
type ModifiedIngredient struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type RemovedIngredient struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type DiffStep struct {
	Step  string `json:"step"`
	IsNew bool   `json:"is_new"`
}

// RecipeDiff summarizes how a proposed recipe differs from the current one
type RecipeDiff struct {
	NewTitle            *string              `json:"new_title,omitempty"`
	NewDescription      *string              `json:"new_description,omitempty"`
	NewServings         *int                 `json:"new_servings,omitempty"`
	NewTotalTimeMinutes *int                 `json:"new_total_time_minutes,omitempty"`
	AddedIngredients    []Ingredient         `json:"added_ingredients"`
	RemovedIngredients  []RemovedIngredient  `json:"removed_ingredients"`
	ModifiedIngredients []ModifiedIngredient `json:"modified_ingredients"`
	NewSteps            []DiffStep           `json:"new_steps"`
}
