package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// MockCaller is a mock implementation of llm.Caller
type MockCaller struct {
	mock.Mock
}

// Invoke mocks the Invoke method
func (m *MockCaller) Invoke(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

// MockImageGenerator is a mock implementation of service.ImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

// GenerateRecipeImage mocks the GenerateRecipeImage method
func (m *MockImageGenerator) GenerateRecipeImage(ctx context.Context, recipe types.Recipe) (string, error) {
	args := m.Called(ctx, recipe)
	return args.String(0), args.Error(1)
}

// MockTokenValidator is a mock implementation of middleware.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

// ValidateToken mocks the ValidateToken method
func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// MockClassifier is a mock implementation of service.IntentClassifier
type MockClassifier struct {
	mock.Mock
}

// Classify mocks the Classify method
func (m *MockClassifier) Classify(ctx context.Context, message string) types.Intent {
	args := m.Called(ctx, message)
	return args.Get(0).(types.Intent)
}
