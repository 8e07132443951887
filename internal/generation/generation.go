// Package generation is the career-guidance feature behind the guards: it
// builds the prompt, calls the text generator and keeps a per-owner history.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "careergate/pkg/domain-errors"
	"careergate/pkg/requestcontext"
)

const noResponse = "No response generated"

// Request is the user's input to one generation.
type Request struct {
	Education string `json:"education" validate:"required"`
	Skills    string `json:"skills" validate:"required"`
	Interest  string `json:"interest" validate:"required"`
}

// Entry is one stored generation.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"user_id"`
	Education string    `json:"education"`
	Skills    string    `json:"skills"`
	Interest  string    `json:"interest"`
	Response  string    `json:"ai_response"`
	CreatedAt time.Time `json:"created_at"`
}

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HistoryStore persists entries. ListByOwner returns newest first.
type HistoryStore interface {
	Insert(ctx context.Context, e Entry) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Entry, error)
}

type Service struct {
	generator TextGenerator
	history   HistoryStore
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(generator TextGenerator, history HistoryStore, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		history:   history,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs one generation for ownerID and stores it. ownerID must be the
// authenticated caller, never an impersonated subject.
func (s *Service) Generate(ctx context.Context, ownerID string, req Request) (Entry, error) {
	if ownerID == "" {
		return Entry{}, dErrors.New(dErrors.CodeInternal, "generation without owner")
	}
	req = req.trimmed()
	if req.Education == "" || req.Skills == "" || req.Interest == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "Missing required fields")
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return Entry{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "text generation failed")
	}
	if strings.TrimSpace(text) == "" {
		text = noResponse
	}

	entry := Entry{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Education: req.Education,
		Skills:    req.Skills,
		Interest:  req.Interest,
		Response:  text,
		CreatedAt: s.timestamp(ctx),
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		return Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save generation")
	}

	s.logger.InfoContext(ctx, "generation stored",
		"entry_id", entry.ID,
		"owner_id", ownerID,
	)
	return entry, nil
}

// History lists ownerID's entries, newest first.
func (s *Service) History(ctx context.Context, ownerID string, limit int) ([]Entry, error) {
	entries, err := s.history.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return entries, nil
}

func (s *Service) timestamp(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return requestcontext.Now(ctx).UTC()
}

func (r Request) trimmed() Request {
	return Request{
		Education: strings.TrimSpace(r.Education),
		Skills:    strings.TrimSpace(r.Skills),
		Interest:  strings.TrimSpace(r.Interest),
	}
}

// BuildPrompt renders the career-guidance prompt.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are an AI career guidance expert.

Education: %s
Skills: %s
Interest: %s

Provide:
1. Career options
2. Required skills
3. Salary range
4. Learning roadmap
`, req.Education, req.Skills, req.Interest)
}

// Section is one blank-line separated block of a response: its first line
// and the lines after it.
type Section struct {
	Title  string
	Points []string
}

// Sections splits a response for display.
func Sections(text string) []Section {
	var out []Section
	for _, block := range splitBlocks(text) {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}
		out = append(out, Section{Title: lines[0], Points: lines[1:]})
	}
	return out
}

func splitBlocks(text string) []string {
	var blocks []string
	var cur []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}
