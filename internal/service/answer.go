package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// QAService answers free-form cooking questions over the plain chat path
type QAService struct {
	caller llm.Caller
}

func NewQAService(caller llm.Caller) *QAService {
	return &QAService{caller: caller}
}

// Answer replies to message using the profile and any recipe or meal plan as context
func (s *QAService) Answer(ctx context.Context, profile types.Profile, recipe *types.Recipe, plan *types.MealPlan, message string) (string, error) {
	reply, err := s.caller.Invoke(ctx, answerMessages(profile, recipe, plan, message), llm.Options{})
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
