package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

const (
	generatedImageSize = 512
	maxNameWords       = 6
	maxNameLength      = 30
)

type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

func NewBedrockClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

type AIService interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, userID int64, prompt string) (*models.MediaAsset, error)
}

type aiService struct {
	client    BedrockAPI
	textModel string
	imgModel  string
	media     MediaService
	ma        repository.MediaAssetRepository
}

func NewAIService(client BedrockAPI, textModel, imageModel string, media MediaService, ma repository.MediaAssetRepository) AIService {
	return &aiService{
		client:    client,
		textModel: textModel,
		imgModel:  imageModel,
		media:     media,
		ma:        ma,
	}
}

type novaContent struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string        `json:"role"`
	Content []novaContent `json:"content"`
}

type novaTextRequest struct {
	Messages []novaMessage `json:"messages"`
}

type novaTextResponse struct {
	Output struct {
		Message novaMessage `json:"message"`
	} `json:"output"`
}

func (s *aiService) invoke(ctx context.Context, modelID string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding model request: %w", err)
	}

	resp, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("error invoking %s: %w", modelID, err)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("error decoding model response: %w", err)
	}
	return nil
}

func (s *aiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", invalid("prompt is required")
	}

	req := novaTextRequest{Messages: []novaMessage{{
		Role:    "user",
		Content: []novaContent{{Text: prompt}},
	}}}

	var resp novaTextResponse
	if err := s.invoke(ctx, s.textModel, req, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Output.Message.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}
	return "", nil
}

type canvasRequest struct {
	TaskType          string `json:"taskType"`
	TextToImageParams struct {
		Text string `json:"text"`
	} `json:"textToImageParams"`
	ImageGenerationConfig struct {
		NumberOfImages int    `json:"numberOfImages"`
		Quality        string `json:"quality"`
		Height         int    `json:"height"`
		Width          int    `json:"width"`
		Seed           int    `json:"seed"`
	} `json:"imageGenerationConfig"`
}

type canvasResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error"`
}

// GenerateImage renders prompt, stores the PNG in the object store and
// records it in the user's media library.
func (s *aiService) GenerateImage(ctx context.Context, userID int64, prompt string) (*models.MediaAsset, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, invalid("prompt is required")
	}

	var req canvasRequest
	req.TaskType = "TEXT_IMAGE"
	req.TextToImageParams.Text = prompt
	req.ImageGenerationConfig.NumberOfImages = 1
	req.ImageGenerationConfig.Quality = "standard"
	req.ImageGenerationConfig.Height = generatedImageSize
	req.ImageGenerationConfig.Width = generatedImageSize

	var resp canvasResponse
	if err := s.invoke(ctx, s.imgModel, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 || resp.Images[0] == "" {
		if resp.Error != "" {
			return nil, fmt.Errorf("No image generated: %s", resp.Error)
		}
		return nil, fmt.Errorf("No image generated")
	}

	image, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("error decoding generated image: %w", err)
	}

	key, err := utils.NewObjectKey("ai-generated", "image.png")
	if err != nil {
		return nil, fmt.Errorf("error generating object key: %w", err)
	}

	fileURL, err := s.media.Store(ctx, key, image, "image/png", map[string]string{
		"generated_by": s.imgModel,
	})
	if err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:      userID,
		FileName:    shortName(prompt) + ".png",
		FileType:    "image/png",
		FileSize:    int64(len(image)),
		FileURL:     fileURL,
		Prompt:      prompt,
		AIGenerated: true,
	}
	if _, err := s.ma.Create(ctx, nil, asset); err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}
	return asset, nil
}

// shortName turns a prompt into a readable file name: letters, digits and
// spaces only, at most six words and thirty characters.
func shortName(prompt string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, prompt)

	words := strings.Fields(clean)
	if len(words) > maxNameWords {
		words = words[:maxNameWords]
	}
	name := strings.Join(words, " ")
	if runes := []rune(name); len(runes) > maxNameLength {
		name = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	if name == "" {
		return "ai_image"
	}
	return name
}
