package types

// ChatRequest is the inbound conversational turn
type ChatRequest struct {
	Message  string    `json:"message" binding:"required"`
	Profile  Profile   `json:"profile"`
	Recipe   *Recipe   `json:"recipe,omitempty"`
	MealPlan *MealPlan `json:"meal_plan,omitempty"`
	// History holds titles of previously rejected suggestions.
	History []string `json:"history,omitempty"`
}

type SuggestRequest struct {
	Message string   `json:"message" binding:"required"`
	Profile Profile  `json:"profile"`
	History []string `json:"history,omitempty"`
	Count   int      `json:"count,omitempty" binding:"omitempty,gte=1,lte=10"`
}

type ModifyRequest struct {
	Message string  `json:"message" binding:"required"`
	Profile Profile `json:"profile"`
	Recipe  *Recipe `json:"recipe" binding:"required"`
}

type GeneralRequest struct {
	Message  string    `json:"message" binding:"required"`
	Profile  Profile   `json:"profile"`
	Recipe   *Recipe   `json:"recipe,omitempty"`
	MealPlan *MealPlan `json:"meal_plan,omitempty"`
}

type GroceryListRequest struct {
	Profile  Profile   `json:"profile"`
	MealPlan *MealPlan `json:"meal_plan" binding:"required"`
}

// ChatResponse is the single response object produced per turn
type ChatResponse struct {
	Intent             Intent        `json:"intent"`
	ResponseText       string        `json:"response_text"`
	Suggestions        []Recipe      `json:"suggestions,omitempty"`
	NewRecipe          *Recipe       `json:"new_recipe,omitempty"`
	Diff               *RecipeDiff   `json:"diff,omitempty"`
	NeedsNewImage      bool          `json:"needs_new_image,omitempty"`
	GroceryList        []GroceryItem `json:"grocery_list,omitempty"`
	NeedsClarification bool          `json:"needs_clarification"`
	Error              string        `json:"error,omitempty"`
}
