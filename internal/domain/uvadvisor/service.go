package uvadvisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/uv-australia/internal/domain/uvindex"
	"github.com/yanqian/uv-australia/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
)

// Service exposes UV based recommendation capabilities.
type Service interface {
	Advise(ctx context.Context, reading uvindex.Reading, skin Phototype) (Advice, error)
	Recommend(ctx context.Context, req Request) (Advice, error)
}

// ChatClient produces the optional narrative summary.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg    Config
	client ChatClient
	logger *slog.Logger
}

// NewService wires up the UV advisor domain. client may be nil, in which case
// summaries come from the rule tables only.
func NewService(cfg Config, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "uvadvisor.service"),
	}
}

func (s *service) Advise(ctx context.Context, reading uvindex.Reading, skin Phototype) (Advice, error) {
	if !skin.Valid() {
		return Advice{}, apperrors.Wrap(apperrors.CodeInvalidInput, "skin type must be between 1 and 6", nil)
	}

	derived := uvindex.Derive(reading)
	// Tier of the current reading drives the advice; the peak value is shown alongside.
	rec := Recommend(derived.Tier, skin)
	advice := Advice{
		Reading:        derived,
		SkinType:       skin.Info(),
		Recommendation: rec,
		Summary:        ruleSummary(derived, skin),
		SummarySource:  SummarySourceRules,
	}

	if s.narrativeEnabled() {
		summary, err := s.narrate(ctx, advice)
		if err != nil {
			s.logger.Warn("uv advisor narrative failed, using rule summary", "error", err, "location", reading.LocationID)
		} else {
			advice.Summary = summary
			advice.SummarySource = SummarySourceLLM
		}
	}
	return advice, nil
}

func (s *service) Recommend(ctx context.Context, req Request) (Advice, error) {
	if strings.TrimSpace(req.UV) == "" {
		return Advice{}, apperrors.Wrap(apperrors.CodeInvalidInput, "uv is required", nil)
	}
	skin, err := ParsePhototype(req.SkinType)
	if err != nil {
		return Advice{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid skin type", err)
	}
	reading := uvindex.Reading{UV: uvindex.Value(uvindex.ParseValue(req.UV))}
	return s.Advise(ctx, reading, skin)
}

func (s *service) narrativeEnabled() bool {
	return s.cfg.NarrativeEnabled && s.client != nil
}

func (s *service) narrate(ctx context.Context, advice Advice) (string, error) {
	payload, err := json.Marshal(advice)
	if err != nil {
		return "", fmt.Errorf("encode advice: %w", err)
	}
	messages := []chatgpt.Message{
		{Role: "system", Content: s.buildSystemPrompt()},
		{Role: "user", Content: "Summarise this sun-safety advice for the user: " + string(payload)},
	}
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Messages:       messages,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: chatgpt.JSONObject,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chatgpt returned no choices")
	}
	return parseNarrative(completion.Choices[0].Message.Content)
}

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.Prompt)
	if base == "" {
		base = "You are a sun-safety assistant for Australia."
	}
	return base + " Respond ONLY with minified JSON of the shape {\"summary\":string}. Never contradict the provided advice."
}

func parseNarrative(raw string) (string, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	sanitized = strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))

	var wire struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(sanitized), &wire); err != nil {
		return "", fmt.Errorf("decode narrative: %w", err)
	}
	summary := strings.TrimSpace(wire.Summary)
	if summary == "" {
		return "", errors.New("summary missing")
	}
	return summary, nil
}

func ruleSummary(d uvindex.Derived, skin Phototype) string {
	place := d.Reading.CityName
	if place == "" {
		place = "your location"
	}
	return fmt.Sprintf("UV index in %s is %.1f (%s), estimated to peak near %.1f (%s). Advice tailored for %s skin.",
		place, d.RawValue, d.Label, d.PeakValue, d.PeakLabel, skin.Info().Name)
}
