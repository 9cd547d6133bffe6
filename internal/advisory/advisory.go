// Package advisory composes recommendations (proposals, negotiation messages and
// profile tips) from deterministic inputs and one response of a text generator.
//
// A composition either returns a complete Advisory or a tagged failure. Partial
// generator output is never returned.
package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/ai"
	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/logger"
)

// Kind names what an advisory recommends.
type Kind string

const (
	KindProposal            Kind = "proposal"
	KindNegotiation         Kind = "negotiation"
	KindProfileOptimization Kind = "profile_optimization"
)

const (
	// DefaultTimeout bounds a composition when Options.Timeout is not positive.
	DefaultTimeout = 60 * time.Second

	openMarker  = "<<<ADVISORY"
	closeMarker = "ADVISORY>>>"
	maxAttempts = 2
)

// Advisory is a finished recommendation.
type Advisory struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Prompt    string    `json:"prompt"`
	Inputs    any       `json:"inputs"`
	Body      string    `json:"body"`
	Attempts  int       `json:"attempts"`
	Insights  any       `json:"insights"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configures a Composer.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// Composer turns requests into advisories. A nil generator makes every composition
// fail with AdvisoryUnavailable.
type Composer struct {
	generator ai.Generator
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Composer backed by generator.
func New(generator ai.Generator, opts Options) *Composer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := logger.WithFields(opts.Logger)
	if generator != nil {
		log = logger.WithModel(log, "", generator.Model())
	}

	return &Composer{
		generator: generator,
		timeout:   timeout,
		logger:    log,
		now:       time.Now,
	}
}

// Compose validates req, renders its prompt and asks the generator for the body. A
// response without the expected markers is retried once with stricter instructions.
// Generator failures and timeouts are not retried.
func (c *Composer) Compose(ctx context.Context, req Request) (*Advisory, error) {
	const op = "compose"

	if req == nil {
		return nil, apperr.Errorf(op, apperr.InvalidInput, "request", "request is required")
	}
	if err := req.validate(op); err != nil {
		return nil, err
	}

	kind := string(req.Kind())
	prompt, err := render(op, req, contractPrompt)
	if err != nil {
		return nil, err
	}

	if c == nil || c.generator == nil {
		return nil, apperr.Errorf(op, apperr.AdvisoryUnavailable, kind, "no text generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := c.logger.With(zap.String("advisory_kind", kind))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err != nil {
			failure := apperr.E(op, apperr.AdvisoryUnavailable, kind, err)
			log.Warn("advisory generation failed",
				append(logger.ErrorFields(failure), zap.Int("attempt", attempt))...)
			return nil, failure
		}

		body, ok := extractBody(text)
		if ok {
			advisory := &Advisory{
				ID:        uuid.NewString(),
				Kind:      req.Kind(),
				Prompt:    prompt,
				Inputs:    req,
				Body:      body,
				Attempts:  attempt,
				Insights:  req.insights(body),
				CreatedAt: c.now().UTC(),
			}
			log.Info("advisory composed",
				zap.String("advisory_id", advisory.ID),
				zap.Int("attempts", attempt),
				zap.Int("body_length", utf8.RuneCountInString(body)),
			)
			return advisory, nil
		}

		log.Warn("advisory response malformed",
			zap.Int("attempt", attempt),
			zap.Int("response_length", utf8.RuneCountInString(text)),
		)

		if attempt < maxAttempts {
			if prompt, err = render(op, req, strictContractPrompt); err != nil {
				return nil, err
			}
		}
	}

	return nil, apperr.Errorf(op, apperr.AdvisoryMalformed, kind,
		"response lacked a non-empty %s ... %s block after %d attempts", openMarker, closeMarker, maxAttempts)
}

type generation struct {
	text string
	err  error
}

// generate returns when the generator answers or ctx is done, whichever comes first.
func (c *Composer) generate(ctx context.Context, prompt string) (string, error) {
	done := make(chan generation, 1)
	go func() {
		text, err := c.generator.GenerateContent(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("generator did not answer in time: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return res.text, nil
	}
}

// extractBody returns the trimmed text between the markers.
func extractBody(text string) (string, bool) {
	start := strings.Index(text, openMarker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(openMarker):]

	end := strings.Index(rest, closeMarker)
	if end < 0 {
		return "", false
	}

	body := strings.TrimSpace(rest[:end])
	return body, body != ""
}
