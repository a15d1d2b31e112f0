package types

import "strings"

// Intent is the classified purpose of a chat message
type Intent string

const (
	IntentSuggestRecipe   Intent = "suggest_recipe"
	IntentModifyRecipe    Intent = "modify_recipe"
	IntentGroceryList     Intent = "grocery_list"
	IntentGeneralQuestion Intent = "general_question"
	IntentAmbiguous       Intent = "ambiguous"
)

// Intents lists every label in the order presented to the classifier
var Intents = []Intent{
	IntentSuggestRecipe,
	IntentModifyRecipe,
	IntentGroceryList,
	IntentGeneralQuestion,
	IntentAmbiguous,
}

// ParseIntent maps free text to an intent. Anything that is not exactly a
// known label after trimming and lowercasing is ambiguous.
func ParseIntent(s string) Intent {
	label := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, intent := range Intents {
		if label == intent {
			return intent
		}
	}
	return IntentAmbiguous
}
