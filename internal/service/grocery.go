package service

import (
	"strings"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// BuildGroceryList merges ingredients across the plan. Lines with the same
// name (case-insensitive) and unit are summed; the same name with different
// units stays on separate lines, each flagged with UnitConflict. Output
// order follows first appearance.
func BuildGroceryList(plan types.MealPlan) []types.GroceryItem {
	type key struct{ name, unit string }

	var items []types.GroceryItem
	index := make(map[key]int)
	unitsByName := make(map[string]int)

	for _, recipe := range plan.Recipes {
		for _, ing := range recipe.Ingredients {
			name := strings.ToLower(strings.TrimSpace(ing.Name))
			if name == "" {
				continue
			}
			unit := strings.TrimSpace(ing.Unit)
			k := key{name: name, unit: strings.ToLower(unit)}

			if i, ok := index[k]; ok {
				items[i].Quantity += ing.Quantity
				continue
			}
			index[k] = len(items)
			unitsByName[name]++
			items = append(items, types.GroceryItem{
				Name:     name,
				Quantity: ing.Quantity,
				Unit:     unit,
			})
		}
	}

	for i := range items {
		if unitsByName[items[i].Name] > 1 {
			items[i].UnitConflict = true
		}
	}
	return items
}
