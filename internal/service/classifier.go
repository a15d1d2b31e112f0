package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// Classifier maps a free-text message to one of the closed set of intents
type Classifier struct {
	caller llm.Caller
	log    *zap.Logger
}

// NewClassifier creates a classifier using the plain chat path
func NewClassifier(caller llm.Caller, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{caller: caller, log: log}
}

// Classify never fails: unknown labels and backend errors both yield ambiguous
func (c *Classifier) Classify(ctx context.Context, message string) types.Intent {
	reply, err := c.caller.Invoke(ctx, classifierMessages(message), llm.Options{MaxTokens: 16})
	if err != nil {
		c.log.Warn("intent classification failed, treating as ambiguous", zap.Error(err))
		return types.IntentAmbiguous
	}
	intent := types.ParseIntent(reply)
	c.log.Debug("message classified", zap.String("label", reply), zap.String("intent", string(intent)))
	return intent
}
