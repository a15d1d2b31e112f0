package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

const (
	defaultImagesURL    = "https://api.openai.com/v1/images/generations"
	imageAttempts       = 3
	imagePromptLimit    = 900
	imageObjectPrefix   = "recipe-images/"
	imageRequestTimeout = 60 * time.Second
)

// ImageGenerationRequest represents a request to the DALL-E API
type ImageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

// ImageGenerationResponse represents the response from DALL-E API
type ImageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// ObjectUploader is the subset of the S3 client used for image storage
type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore is where generated images are persisted
type ImageStore struct {
	Uploader ObjectUploader
	Bucket   string
}

// ImageService generates recipe images and copies them into object storage
type ImageService struct {
	apiKey string
	apiURL string
	store  *ImageStore
	client *http.Client
	log    *zap.Logger
	// retryBase is the delay before the second attempt.
	retryBase time.Duration
}

// NewImageService creates a new ImageService instance. store may be nil, in
// which case the provider's URL is returned as-is.
func NewImageService(apiKey, apiURL string, store *ImageStore, log *zap.Logger) (*ImageService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("image generation requires an API key")
	}
	if apiURL == "" {
		apiURL = defaultImagesURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageService{
		apiKey:    apiKey,
		apiURL:    apiURL,
		store:     store,
		client:    &http.Client{Timeout: imageRequestTimeout},
		log:       log,
		retryBase: time.Second,
	}, nil
}

// GenerateRecipeImage generates an image for the recipe and returns its URL
func (s *ImageService) GenerateRecipeImage(ctx context.Context, recipe types.Recipe) (string, error) {
	prompt := buildRecipeImagePrompt(recipe)
	s.log.Info("generating recipe image", zap.String("title", recipe.Title))

	imageURL, err := s.GenerateImageFromPrompt(ctx, prompt, "1024x1024")
	if err != nil {
		return "", fmt.Errorf("failed to generate recipe image: %w", err)
	}
	return imageURL, nil
}

// GenerateImageFromPrompt generates an image from a text prompt, retrying
// failed attempts with a growing delay.
func (s *ImageService) GenerateImageFromPrompt(ctx context.Context, prompt string, size string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryBase
	policy.MaxElapsedTime = 0

	attempt := 0
	imageURL, err := backoff.RetryNotifyWithData(func() (string, error) {
		attempt++
		return s.generateImageAttempt(ctx, prompt, size)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, imageAttempts-1), ctx), func(err error, delay time.Duration) {
		s.log.Warn("image generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate image after %d attempts: %w", attempt, err)
	}
	return imageURL, nil
}

func (s *ImageService) generateImageAttempt(ctx context.Context, prompt string, size string) (string, error) {
	reqBody := ImageGenerationRequest{
		Model:          "dall-e-3",
		Prompt:         prompt,
		N:              1,
		Size:           size,
		Quality:        "standard",
		ResponseFormat: "url",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var result ImageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", errors.New("no image URL in API response")
	}
	imageURL := result.Data[0].URL

	if s.store == nil {
		return imageURL, nil
	}
	stored, err := s.copyToStore(ctx, imageURL)
	if err != nil {
		s.log.Warn("failed to copy image to storage, returning provider URL", zap.Error(err))
		return imageURL, nil
	}
	return stored, nil
}

func (s *ImageService) copyToStore(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}
	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	return s.UploadImage(ctx, imageData, imageObjectPrefix+uuid.New().String()+".png")
}

// UploadImage stores image data and returns the public URL
func (s *ImageService) UploadImage(ctx context.Context, imageData []byte, key string) (string, error) {
	_, err := s.store.Uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.store.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.store.Bucket, key)
	s.log.Info("uploaded recipe image", zap.String("url", publicURL))
	return publicURL, nil
}

func buildRecipeImagePrompt(recipe types.Recipe) string {
	var b strings.Builder
	b.WriteString("A professional food photography shot of ")
	b.WriteString(strings.ToLower(recipe.Title))
	if recipe.Description != "" {
		b.WriteString(", ")
		b.WriteString(strings.ToLower(recipe.Description))
	}
	if names := ingredientNames(recipe, 5); names != "" {
		b.WriteString(", featuring ")
		b.WriteString(names)
	}
	b.WriteString(", shot with natural lighting, shallow depth of field, restaurant quality presentation, appetizing colors")

	prompt := b.String()
	if len(prompt) > imagePromptLimit {
		prompt = prompt[:imagePromptLimit]
	}
	return prompt
}

func ingredientNames(recipe types.Recipe, limit int) string {
	names := make([]string, 0, limit)
	for _, ing := range recipe.Ingredients {
		if len(names) == limit {
			break
		}
		if n := strings.TrimSpace(ing.Name); n != "" {
			names = append(names, strings.ToLower(n))
		}
	}
	return strings.Join(names, ", ")
}
