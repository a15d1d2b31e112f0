package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// WorkflowError reports a generation failure together with the intent
// whose workflow produced it.
type WorkflowError struct {
	Intent types.Intent
	Err    error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %v", e.Intent, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// IntentClassifier is the classification step of a chat turn
type IntentClassifier interface {
	Classify(ctx context.Context, message string) types.Intent
}

// Router dispatches a turn to exactly one workflow based on its intent
type Router struct {
	classifier IntentClassifier
	recipes    *RecipeService
	qa         *QAService
	log        *zap.Logger
}

// NewRouter creates a router over the given workflows
func NewRouter(classifier IntentClassifier, recipes *RecipeService, qa *QAService, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{classifier: classifier, recipes: recipes, qa: qa, log: log}
}

// Handle classifies the message and runs the matching workflow
func (r *Router) Handle(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	intent := r.classifier.Classify(ctx, req.Message)
	r.log.Debug("routing chat turn", zap.String("intent", string(intent)))

	switch intent {
	case types.IntentSuggestRecipe:
		return r.Suggest(ctx, types.SuggestRequest{
			Message: req.Message,
			Profile: req.Profile,
			History: req.History,
		})
	case types.IntentModifyRecipe:
		return r.Modify(ctx, types.ModifyRequest{
			Message: req.Message,
			Profile: req.Profile,
			Recipe:  req.Recipe,
		})
	case types.IntentGroceryList:
		plan := req.MealPlan
		if (plan == nil || len(plan.Recipes) == 0) && req.Recipe != nil {
			plan = &types.MealPlan{Recipes: []types.Recipe{*req.Recipe}}
		}
		return r.GroceryList(ctx, types.GroceryListRequest{
			Profile:  req.Profile,
			MealPlan: plan,
		})
	case types.IntentGeneralQuestion:
		return r.General(ctx, types.GeneralRequest{
			Message:  req.Message,
			Profile:  req.Profile,
			Recipe:   req.Recipe,
			MealPlan: req.MealPlan,
		})
	default:
		return Clarify(types.IntentAmbiguous, clarifierText), nil
	}
}

// Suggest runs the suggestion workflow without classification
func (r *Router) Suggest(ctx context.Context, req types.SuggestRequest) (*types.ChatResponse, error) {
	recipes, err := r.recipes.Suggest(ctx, req.Profile, req.History, req.Message, req.Count)
	if err != nil {
		return nil, &WorkflowError{Intent: types.IntentSuggestRecipe, Err: err}
	}
	return &types.ChatResponse{
		Intent:       types.IntentSuggestRecipe,
		ResponseText: fmt.Sprintf("Here are %d ideas.", len(recipes)),
		Suggestions:  recipes,
	}, nil
}

// Modify runs the modification workflow without classification
func (r *Router) Modify(ctx context.Context, req types.ModifyRequest) (*types.ChatResponse, error) {
	if req.Recipe == nil {
		return Clarify(types.IntentModifyRecipe, pickRecipeText), nil
	}
	result, err := r.recipes.Modify(ctx, *req.Recipe, req.Profile, req.Message)
	if err != nil {
		return nil, &WorkflowError{Intent: types.IntentModifyRecipe, Err: err}
	}
	recipe := result.Recipe
	return &types.ChatResponse{
		Intent:        types.IntentModifyRecipe,
		ResponseText:  result.ResponseText,
		NewRecipe:     &recipe,
		Diff:          result.Diff,
		NeedsNewImage: result.NeedsNewImage,
		Error:         result.Error,
	}, nil
}

// GroceryList merges the plan's ingredients; no backend call is made
func (r *Router) GroceryList(_ context.Context, req types.GroceryListRequest) (*types.ChatResponse, error) {
	if req.MealPlan == nil || len(req.MealPlan.Recipes) == 0 {
		return &types.ChatResponse{
			Intent:       types.IntentGroceryList,
			ResponseText: emptyPlanText,
			GroceryList:  []types.GroceryItem{},
		}, nil
	}
	return &types.ChatResponse{
		Intent:       types.IntentGroceryList,
		ResponseText: groceryText,
		GroceryList:  BuildGroceryList(*req.MealPlan),
	}, nil
}

// General answers a question without classification
func (r *Router) General(ctx context.Context, req types.GeneralRequest) (*types.ChatResponse, error) {
	answer, err := r.qa.Answer(ctx, req.Profile, req.Recipe, req.MealPlan, req.Message)
	if err != nil {
		return nil, &WorkflowError{Intent: types.IntentGeneralQuestion, Err: err}
	}
	return &types.ChatResponse{
		Intent:       types.IntentGeneralQuestion,
		ResponseText: answer,
	}, nil
}

// Clarify builds a response asking the user to rephrase
func Clarify(intent types.Intent, text string) *types.ChatResponse {
	return &types.ChatResponse{
		Intent:             intent,
		ResponseText:       text,
		NeedsClarification: true,
	}
}
