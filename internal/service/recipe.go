package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// DefaultSuggestionCount is used when a request does not ask for a number
const DefaultSuggestionCount = 3

// suggestionNamespace seeds deterministic ids for suggestions the model left unnamed
var suggestionNamespace = uuid.MustParse("6f1c3b2e-5d0a-4c8e-9b7a-2e4f8d1a0c53")

// ImageGenerator produces an image reference for a recipe
type ImageGenerator interface {
	GenerateRecipeImage(ctx context.Context, recipe types.Recipe) (string, error)
}

// ModifyResult is the outcome of a modification request. When Error is set
// Recipe is the unchanged original.
type ModifyResult struct {
	Recipe        types.Recipe
	ResponseText  string
	Error         string
	NeedsNewImage bool
	Diff          *types.RecipeDiff
}

// RecipeService runs the suggestion and modification workflows
type RecipeService struct {
	gen    *llm.Generator
	images ImageGenerator
	log    *zap.Logger
}

// NewRecipeService creates a new RecipeService instance. images may be nil,
// in which case modified recipes keep their prior image.
func NewRecipeService(gen *llm.Generator, images ImageGenerator, log *zap.Logger) *RecipeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipeService{gen: gen, images: images, log: log}
}

// Suggest generates up to count recipes matching the profile and message,
// excluding any whose title was previously rejected.
func (s *RecipeService) Suggest(ctx context.Context, profile types.Profile, history []string, message string, count int) ([]types.Recipe, error) {
	if count <= 0 {
		count = DefaultSuggestionCount
	}

	out, err := llm.Generate[suggestionsOutput](ctx, s.gen, suggestMessages(profile, history, message, count), suggestionsSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	rejected := make(map[string]struct{}, len(history))
	for _, title := range history {
		rejected[normalizeTitle(title)] = struct{}{}
	}

	recipes := make([]types.Recipe, 0, len(out.Suggestions))
	for _, r := range out.Suggestions {
		if _, skip := rejected[normalizeTitle(r.Title)]; skip {
			s.log.Debug("dropping previously rejected suggestion", zap.String("title", r.Title))
			continue
		}
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewSHA1(suggestionNamespace, []byte(normalizeTitle(r.Title))).String()
		}
		recipes = append(recipes, r)
		if len(recipes) == count {
			break
		}
	}
	return recipes, nil
}

// Modify applies the user's requested change to recipe. Profile conflicts,
// flagged by the model or introduced allergens, return the original recipe
// with Error populated.
func (s *RecipeService) Modify(ctx context.Context, recipe types.Recipe, profile types.Profile, message string) (*ModifyResult, error) {
	original := recipe.Clone()

	out, err := llm.Generate[modifyOutput](ctx, s.gen, modifyMessages(original, profile, message), modifySchema)
	if err != nil {
		return nil, fmt.Errorf("failed to modify recipe: %w", err)
	}

	if msg := strings.TrimSpace(out.Error); msg != "" {
		return s.rejectModification(original, out.ResponseText, msg), nil
	}
	proposed := *out.NewRecipe
	if conflict := allergenConflict(original, proposed, profile); conflict != "" {
		s.log.Info("modification rejected by allergen guard", zap.String("conflict", conflict))
		return s.rejectModification(original, "", conflict), nil
	}

	updated := proposed.Clone()
	if original.ID != "" {
		updated.ID = original.ID
	}
	updated.ImageURL = original.ImageURL
	if out.NeedsNewImage && s.images != nil {
		url, err := s.images.GenerateRecipeImage(ctx, updated)
		if err != nil {
			s.log.Warn("image regeneration failed, keeping previous image", zap.Error(err))
		} else {
			updated.ImageURL = url
		}
	}

	text := strings.TrimSpace(out.ResponseText)
	if text == "" {
		text = modifiedText
	}
	return &ModifyResult{
		Recipe:        updated,
		ResponseText:  text,
		NeedsNewImage: out.NeedsNewImage,
		Diff:          DiffRecipes(original, updated),
	}, nil
}

func (s *RecipeService) rejectModification(original types.Recipe, text, reason string) *ModifyResult {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "I kept your recipe as it was: " + reason
	}
	return &ModifyResult{
		Recipe:       original,
		ResponseText: text,
		Error:        reason,
	}
}

// allergenConflict returns a description of the first ingredient newly
// introduced by proposed whose name mentions one of the profile allergies.
// Names and allergies are compared on singular word forms, so "Peanuts"
// matches "peanut butter".
func allergenConflict(original, proposed types.Recipe, profile types.Profile) string {
	existing := make(map[string]struct{}, len(original.Ingredients))
	for _, ing := range original.Ingredients {
		existing[strings.ToLower(strings.TrimSpace(ing.Name))] = struct{}{}
	}
	for _, ing := range proposed.Ingredients {
		name := strings.ToLower(strings.TrimSpace(ing.Name))
		if _, ok := existing[name]; ok {
			continue
		}
		for _, allergy := range profile.Allergies {
			if mentionsAllergen(name, allergy) {
				return fmt.Sprintf("%s conflicts with your %s allergy", ing.Name, allergy)
			}
		}
	}
	return ""
}

func mentionsAllergen(name, allergy string) bool {
	a := strings.ToLower(strings.TrimSpace(allergy))
	if a == "" {
		return false
	}
	if strings.Contains(name, a) {
		return true
	}
	want := singularWords(a)
	if len(want) == 0 {
		return false
	}
	have := singularWords(name)
	for i := 0; i+len(want) <= len(have); i++ {
		if slices.Equal(have[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func singularWords(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = singular(w)
	}
	return words
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "oes"), strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"):
		return w
	case len(w) > 3 && strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
