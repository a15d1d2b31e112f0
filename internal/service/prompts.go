package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

const (
	classifierPrompt = "You are MealPlan-Router-Bot. Classify the user's message.\n" +
		"Return only one label: suggest_recipe | modify_recipe | grocery_list | general_question | ambiguous"

	suggestPersona = "You are a recipe suggestion assistant."
	modifyPersona  = "You are a recipe modifier."
	answerPersona  = "You are a helpful cooking assistant. Answer concisely but clearly."

	clarifierText  = "Just to confirm, would you like new recipes or to change one you already picked?"
	pickRecipeText = "Which recipe would you like to change? Send it along with your request."
	emptyPlanText  = "Your meal plan is empty, so there is nothing to buy yet."
	groceryText    = "Here's your merged grocery list."
	modifiedText   = "Got it, the modified recipe is below."
)

// classifierExamples are replayed as prior turns before the real message
var classifierExamples = []struct {
	message string
	intent  types.Intent
}{
	{"Give me something spicy", types.IntentSuggestRecipe},
	{"Swap chicken for tofu", types.IntentModifyRecipe},
	{"What is gochujang?", types.IntentGeneralQuestion},
	{"What do I need to buy?", types.IntentGroceryList},
	{"Maybe tacos, but can we make them vegetarian?", types.IntentAmbiguous},
}

func classifierMessages(message string) []llm.Message {
	messages := make([]llm.Message, 0, 2*len(classifierExamples)+2)
	messages = append(messages, llm.System(classifierPrompt))
	for _, ex := range classifierExamples {
		messages = append(messages, llm.User(ex.message), llm.Assistant(string(ex.intent)))
	}
	return append(messages, llm.User(message))
}

func suggestMessages(profile types.Profile, history []string, message string, count int) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", profile)
	if len(history) > 0 {
		fmt.Fprintf(&b, "Previously rejected: %s\n", strings.Join(history, ", "))
	}
	fmt.Fprintf(&b, "User request: %q\n", message)
	fmt.Fprintf(&b, "Return %d recipes wrapped in a top-level `suggestions` field.", count)
	if len(history) > 0 {
		b.WriteString(" Do not repeat any of the previously rejected recipes.")
	}
	b.WriteString(" Respect every allergy and diet in the profile.")

	return []llm.Message{
		llm.System(suggestPersona),
		llm.User(b.String()),
	}
}

func modifyMessages(recipe types.Recipe, profile types.Profile, message string) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", profile)
	fmt.Fprintf(&b, "User request: %q\n", message)
	fmt.Fprintf(&b, "Current recipe: %s\n", recipeJSON(recipe))
	b.WriteString("Return the modified recipe as `new_recipe` with a short `response_text`. ")
	b.WriteString("If the modification violates a rule from the user's profile (e.g. allergies), return the original recipe ")
	b.WriteString("unchanged and describe the violation in the `error` field. ")
	b.WriteString("Set `needs_new_image` to true only if the dish would look noticeably different.")

	return []llm.Message{
		llm.System(modifyPersona),
		llm.User(b.String()),
	}
}

func answerMessages(profile types.Profile, recipe *types.Recipe, plan *types.MealPlan, message string) []llm.Message {
	messages := []llm.Message{llm.System(answerPersona)}

	var b strings.Builder
	fmt.Fprintf(&b, "User profile: %s", profile)
	if recipe != nil {
		fmt.Fprintf(&b, "\nCurrent recipe: %s", recipeJSON(*recipe))
	}
	if plan != nil && len(plan.Recipes) > 0 {
		titles := make([]string, 0, len(plan.Recipes))
		for _, r := range plan.Recipes {
			titles = append(titles, r.Title)
		}
		fmt.Fprintf(&b, "\nMeal plan: %s", strings.Join(titles, "; "))
	}
	messages = append(messages, llm.System(b.String()))
	return append(messages, llm.User(message))
}

func recipeJSON(r types.Recipe) string {
	r.ImageURL = ""
	out, err := json.Marshal(r)
	if err != nil {
		return r.Title
	}
	return string(out)
}
