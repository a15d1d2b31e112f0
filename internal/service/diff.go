package service

import (
	"slices"
	"strings"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// DiffRecipes reports what changed between the current recipe and a proposed
// replacement. Ingredients are matched by case-insensitive name.
func DiffRecipes(current, proposed types.Recipe) *types.RecipeDiff {
	diff := &types.RecipeDiff{
		AddedIngredients:    []types.Ingredient{},
		RemovedIngredients:  []types.RemovedIngredient{},
		ModifiedIngredients: []types.ModifiedIngredient{},
		NewSteps:            []types.DiffStep{},
	}

	if current.Title != proposed.Title {
		diff.NewTitle = &proposed.Title
	}
	if current.Description != proposed.Description {
		diff.NewDescription = &proposed.Description
	}
	if current.Servings != proposed.Servings {
		diff.NewServings = &proposed.Servings
	}
	if current.TotalTimeMinutes != proposed.TotalTimeMinutes {
		diff.NewTotalTimeMinutes = &proposed.TotalTimeMinutes
	}

	matched := make([]bool, len(proposed.Ingredients))
	for i, cur := range current.Ingredients {
		j := slices.IndexFunc(proposed.Ingredients, func(p types.Ingredient) bool {
			return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(cur.Name))
		})
		if j < 0 || matched[j] {
			diff.RemovedIngredients = append(diff.RemovedIngredients, types.RemovedIngredient{Index: i, Name: cur.Name})
			continue
		}
		matched[j] = true
		next := proposed.Ingredients[j]
		if next.Quantity != cur.Quantity || !strings.EqualFold(next.Unit, cur.Unit) {
			diff.ModifiedIngredients = append(diff.ModifiedIngredients, types.ModifiedIngredient{
				Index:    i,
				Name:     next.Name,
				Quantity: next.Quantity,
				Unit:     next.Unit,
			})
		}
	}
	for j, p := range proposed.Ingredients {
		if !matched[j] {
			diff.AddedIngredients = append(diff.AddedIngredients, p)
		}
	}

	for _, step := range proposed.Steps {
		diff.NewSteps = append(diff.NewSteps, types.DiffStep{
			Step:  step,
			IsNew: !slices.Contains(current.Steps, step),
		})
	}
	return diff
}
