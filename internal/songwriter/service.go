// Package songwriter turns a generation context into a song by calling an LLM provider once
package songwriter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/singalong-genie/internal/llm"
	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
	"github.com/Conceptual-Machines/singalong-genie/internal/metrics"
	"github.com/Conceptual-Machines/singalong-genie/internal/models"
	"github.com/Conceptual-Machines/singalong-genie/internal/observability"
	"github.com/Conceptual-Machines/singalong-genie/internal/prompt"
)

const (
	modeGenerate = "generate"
	modeRefine   = "refine"

	maxRawLogChars = 500

	// trace outcomes
	outcomeSuccess       = "success"
	outcomeProviderError = "provider_error"
	outcomeUndecodable   = "undecodable"
)

// Service writes and refines songs
type Service struct {
	provider     llm.Provider
	builder      *prompt.Builder
	systemPrompt string
	model        string
	tracer       *observability.LangfuseClient
	recorder     *metrics.Recorder
}

// Option configures a Service
type Option func(*Service)

// WithTracer records every provider call as a Langfuse generation
func WithTracer(tracer *observability.LangfuseClient) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithRecorder records duration and token usage of every provider call
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// NewService loads the embedded prompts and binds them to a provider and model
func NewService(provider llm.Provider, model string, opts ...Option) (*Service, error) {
	loader := prompt.NewPromptLoader()

	systemPrompt, err := loader.GetSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	builder, err := prompt.NewPromptBuilder(loader)
	if err != nil {
		return nil, err
	}

	s := &Service{
		provider:     provider,
		builder:      builder,
		systemPrompt: systemPrompt,
		model:        model,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Model returns the model name sent with every request
func (s *Service) Model() string {
	return s.model
}

// ProviderName returns the name of the backing provider
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Generate writes a new song, or refines gc.Previous when it is set.
// There is no retry; the caller's context bounds the call.
func (s *Service) Generate(ctx context.Context, gc models.GenerationContext) (*models.Song, error) {
	mode := modeGenerate
	if gc.IsRefinement() {
		mode = modeRefine
	} else if strings.TrimSpace(gc.Prompt) == "" {
		return nil, ErrPromptRequired
	}

	userPrompt, err := s.builder.BuildUserPrompt(gc)
	if err != nil {
		return nil, err
	}

	fields := logger.Fields{
		"mode":     mode,
		"model":    s.model,
		"provider": s.provider.Name(),
		"preset":   gc.Preset.ID,
	}
	logger.Info("Requesting song from provider", fields)

	trace := s.startTrace(ctx, mode, gc)
	outcome := outcomeProviderError
	defer func() {
		trace.SetMetadata(map[string]interface{}{"outcome": outcome})
		trace.Finish()
	}()
	gen := trace.Generation("song-"+mode, map[string]interface{}{"preset": gc.Preset.ID})

	start := time.Now()
	resp, err := s.provider.Generate(ctx, &llm.GenerationRequest{
		Model:         s.model,
		SystemPrompt:  s.systemPrompt,
		UserPrompt:    userPrompt,
		ReasoningMode: reasoningMode(gc),
		OutputSchema:  llm.SongOutputSchema(),
	})
	duration := time.Since(start)

	if err != nil {
		s.recorder.RecordGeneration(ctx, s.model, mode, duration, 0, 0, 0, false)
		gen.SetLevel("ERROR")
		gen.Output(err.Error())
		gen.Finish()
		logger.Error("Provider call failed", err, fields)
		return nil, err
	}

	gen.LogCompletion(s.model, s.systemPrompt, userPrompt, resp.RawOutput,
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens, nil)

	song, err := decodeSong(resp.RawOutput)
	if err != nil {
		outcome = outcomeUndecodable
		s.recorder.RecordGeneration(ctx, s.model, mode, duration, 0, 0, 0, false)
		if errors.Is(err, ErrMalformedResponse) {
			s.recorder.RecordMalformedResponse(s.model, mode, len(resp.RawOutput))
		}
		gen.SetLevel("ERROR")
		gen.Finish()
		fields["raw_output"] = logger.Truncate(resp.RawOutput, maxRawLogChars)
		logger.Error("Failed to decode song", err, fields)
		return nil, err
	}
	gen.Finish()
	outcome = outcomeSuccess

	s.recorder.RecordGeneration(ctx, s.model, mode, duration,
		resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens, true)
	logger.LogGenerationRequest(ctx, s.model, duration, map[string]interface{}{
		"total_tokens":  resp.Usage.TotalTokens,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}, logger.Fields{"mode": mode, "parts": len(song.Parts)})

	if shapeErr := song.ValidateShape(); shapeErr != nil {
		logger.Warn("Generated song does not match the expected shape", logger.Fields{
			"mode":  mode,
			"model": s.model,
			"error": shapeErr.Error(),
		})
	}

	return song, nil
}

func (s *Service) startTrace(ctx context.Context, mode string, gc models.GenerationContext) *observability.Trace {
	tracer := s.tracer
	if tracer == nil {
		tracer = observability.GetClient()
	}
	return tracer.StartTrace(ctx, "singalong-"+mode, map[string]interface{}{
		"prompt":    gc.Prompt,
		"preset":    gc.Preset.ID,
		"has_draft": gc.IsRefinement(),
	})
}

// reasoningMode: low for first drafts, medium for refinements
func reasoningMode(gc models.GenerationContext) string {
	if gc.IsRefinement() {
		return llm.ReasoningMedium
	}
	return llm.ReasoningLow
}

// decodeSong parses the provider reply. Blank replies are ErrNoResponse,
// anything else that is not a JSON song is a MalformedResponseError.
func decodeSong(raw string) (*models.Song, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoResponse
	}

	var song models.Song
	if err := json.Unmarshal([]byte(raw), &song); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return &song, nil
}
