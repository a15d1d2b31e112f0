package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/logger"
	"github.com/pageza/alchemorsel-v2/gateway/internal/middleware"
	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := llm.RegisterValidations(v); err != nil {
			panic(err)
		}
	}
}

// Workflows is the router surface the handlers drive
type Workflows interface {
	Handle(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
	Suggest(ctx context.Context, req types.SuggestRequest) (*types.ChatResponse, error)
	Modify(ctx context.Context, req types.ModifyRequest) (*types.ChatResponse, error)
	GroceryList(ctx context.Context, req types.GroceryListRequest) (*types.ChatResponse, error)
	General(ctx context.Context, req types.GeneralRequest) (*types.ChatResponse, error)
}

// UsageRecorder stores one ledger row per handled turn
type UsageRecorder interface {
	Record(ctx context.Context, record *models.GenerationRecord) error
}

// ChatHandler serves the conversational endpoints
type ChatHandler struct {
	workflows Workflows
	usage     UsageRecorder
}

// NewChatHandler creates a handler; usage may be nil to skip the ledger
func NewChatHandler(workflows Workflows, usage UsageRecorder) *ChatHandler {
	return &ChatHandler{workflows: workflows, usage: usage}
}

// RegisterRoutes mounts the chat endpoints on router behind the given middleware
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup, handlers ...gin.HandlerFunc) {
	group := router.Group("", handlers...)
	{
		group.POST("/chat", h.Chat)
		group.POST("/suggest", h.Suggest)
		group.POST("/modify", h.Modify)
		group.POST("/general", h.General)
		group.POST("/grocery-list", h.GroceryList)
	}
}

// Chat classifies the message and runs the matching workflow
func (h *ChatHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, "chat", types.IntentAmbiguous, func(ctx context.Context) (*types.ChatResponse, error) {
		return h.workflows.Handle(ctx, req)
	})
}

func (h *ChatHandler) Suggest(c *gin.Context) {
	var req types.SuggestRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, "suggest", types.IntentSuggestRecipe, func(ctx context.Context) (*types.ChatResponse, error) {
		return h.workflows.Suggest(ctx, req)
	})
}

func (h *ChatHandler) Modify(c *gin.Context) {
	var req types.ModifyRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, "modify", types.IntentModifyRecipe, func(ctx context.Context) (*types.ChatResponse, error) {
		return h.workflows.Modify(ctx, req)
	})
}

func (h *ChatHandler) General(c *gin.Context) {
	var req types.GeneralRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, "general", types.IntentGeneralQuestion, func(ctx context.Context) (*types.ChatResponse, error) {
		return h.workflows.General(ctx, req)
	})
}

func (h *ChatHandler) GroceryList(c *gin.Context) {
	var req types.GroceryListRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, "grocery_list", types.IntentGroceryList, func(ctx context.Context) (*types.ChatResponse, error) {
		return h.workflows.GroceryList(ctx, req)
	})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// run executes one turn, renders the result and records it in the ledger.
// A turn abandoned by the caller gets no body and no ledger row.
func (h *ChatHandler) run(c *gin.Context, endpoint string, fallback types.Intent, fn func(context.Context) (*types.ChatResponse, error)) {
	start := time.Now()
	log := logger.FromGin(c).With(zap.String("endpoint", endpoint))
	ctx, stats := llm.WithStats(logger.WithContext(c.Request.Context(), log))

	resp, err := fn(ctx)

	if c.Request.Context().Err() != nil || errors.Is(err, context.Canceled) {
		log.Info("turn abandoned by caller", zap.Int("calls", stats.Calls()))
		c.Abort()
		return
	}

	record := &models.GenerationRecord{
		RequestID: logger.RequestID(c),
		ClientID:  middleware.ClientID(c),
		Endpoint:  endpoint,
		Calls:     stats.Calls(),
		Repairs:   stats.Repairs(),
	}

	if err != nil {
		status, outcome, message := classify(err)
		intent := intentOf(err, fallback)
		log.Error("turn failed",
			zap.String("intent", string(intent)),
			zap.String("outcome", outcome),
			zap.Error(err))
		c.JSON(status, ErrorBody{Intent: intent, Error: message})
		record.Intent, record.Outcome, record.StatusCode = string(intent), outcome, status
	} else {
		c.JSON(http.StatusOK, resp)
		record.Intent, record.Outcome, record.StatusCode = string(resp.Intent), outcomeOf(resp), http.StatusOK
	}
	record.LatencyMS = time.Since(start).Milliseconds()

	if h.usage != nil {
		if err := h.usage.Record(context.WithoutCancel(ctx), record); err != nil {
			log.Warn("failed to record usage", zap.Error(err))
		}
	}
}
