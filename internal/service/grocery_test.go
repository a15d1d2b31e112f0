package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

func plan(recipes ...[]types.Ingredient) types.MealPlan {
	var p types.MealPlan
	for i, ings := range recipes {
		p.Recipes = append(p.Recipes, types.Recipe{Title: string(rune('A' + i)), Servings: 1, Ingredients: ings})
	}
	return p
}

func TestBuildGroceryList(t *testing.T) {
	tests := []struct {
		name string
		plan types.MealPlan
		want []types.GroceryItem
	}{
		{
			name: "same name and unit are summed",
			plan: plan(
				[]types.Ingredient{{Name: "garlic", Quantity: 2, Unit: "clove"}},
				[]types.Ingredient{{Name: "Garlic ", Quantity: 2, Unit: "clove"}},
			),
			want: []types.GroceryItem{{Name: "garlic", Quantity: 4, Unit: "clove"}},
		},
		{
			name: "different units stay separate and are flagged",
			plan: plan(
				[]types.Ingredient{{Name: "garlic", Quantity: 2, Unit: "clove"}, {Name: "onion", Quantity: 1, Unit: ""}},
				[]types.Ingredient{{Name: "garlic", Quantity: 1, Unit: "bulb"}},
			),
			want: []types.GroceryItem{
				{Name: "garlic", Quantity: 2, Unit: "clove", UnitConflict: true},
				{Name: "onion", Quantity: 1, Unit: ""},
				{Name: "garlic", Quantity: 1, Unit: "bulb", UnitConflict: true},
			},
		},
		{
			name: "units compare case-insensitively",
			plan: plan(
				[]types.Ingredient{{Name: "milk", Quantity: 1, Unit: "Cup"}},
				[]types.Ingredient{{Name: "milk", Quantity: 0.5, Unit: "cup"}},
			),
			want: []types.GroceryItem{{Name: "milk", Quantity: 1.5, Unit: "Cup"}},
		},
		{
			name: "first appearance order",
			plan: plan(
				[]types.Ingredient{{Name: "rice", Quantity: 1, Unit: "cup"}, {Name: "beans", Quantity: 1, Unit: "can"}},
				[]types.Ingredient{{Name: "salsa", Quantity: 1, Unit: "jar"}, {Name: "rice", Quantity: 2, Unit: "cup"}},
			),
			want: []types.GroceryItem{
				{Name: "rice", Quantity: 3, Unit: "cup"},
				{Name: "beans", Quantity: 1, Unit: "can"},
				{Name: "salsa", Quantity: 1, Unit: "jar"},
			},
		},
		{
			name: "blank names are skipped",
			plan: plan([]types.Ingredient{{Name: "  ", Quantity: 1, Unit: "g"}}),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildGroceryList(tt.plan))
		})
	}
}

func TestBuildGroceryList_PreservesTotals(t *testing.T) {
	p := plan(
		[]types.Ingredient{{Name: "flour", Quantity: 250, Unit: "g"}, {Name: "egg", Quantity: 2, Unit: ""}},
		[]types.Ingredient{{Name: "Flour", Quantity: 100, Unit: "g"}, {Name: "egg", Quantity: 1, Unit: ""}, {Name: "flour", Quantity: 1, Unit: "cup"}},
	)

	totals := map[[2]string]float64{}
	for _, r := range p.Recipes {
		for _, ing := range r.Ingredients {
			totals[[2]string{normalizeTitle(ing.Name), ing.Unit}] += ing.Quantity
		}
	}

	got := map[[2]string]float64{}
	for _, item := range BuildGroceryList(p) {
		got[[2]string{item.Name, item.Unit}] += item.Quantity
	}
	assert.Equal(t, totals, got)
}
