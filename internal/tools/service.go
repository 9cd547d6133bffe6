// Package tools implements the public operations. Each takes a typed input, validates it
// at the boundary and returns a typed result or an apperr.Error naming the operation.
package tools

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/advisory"
	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/logger"
	"github.com/spigell/gig-assistant/internal/sandbox"
)

// Operation names.
const (
	OpSearch           = "search"
	OpAnalyzeFit       = "analyze_profile_fit"
	OpCodeReview       = "code_review"
	OpCodeDebug        = "code_debug"
	OpNegotiateRate    = "negotiate_rate"
	OpGenerateProposal = "generate_proposal"
	OpOptimizeProfile  = "optimize_profile"
	OpTrack            = "track_application_status"
)

// Service wires the operations to the file accessor and the advisory composer. Files is
// required by code_review and code_debug only; a nil Advisor makes advisory operations
// fail with AdvisoryUnavailable.
type Service struct {
	Files   *sandbox.Accessor
	Advisor *advisory.Composer
	Logger  *zap.Logger
}

func (s *Service) log() *zap.Logger {
	return logger.WithFields(s.Logger)
}

// finish logs the outcome of op and tags err with it.
func (s *Service) finish(op string, started time.Time, err error, fields ...zap.Field) error {
	fields = append(fields, logger.OpFields(op, time.Since(started))...)

	if err != nil {
		err = apperr.WithOp(err, op)
		s.log().Warn("operation failed", append(fields, logger.ErrorFields(err)...)...)
		return err
	}

	s.log().Info("operation completed", fields...)
	return nil
}

func (s *Service) files(op string) (*sandbox.Accessor, error) {
	if s.Files == nil {
		return nil, apperr.Errorf(op, apperr.Internal, "sandbox", "file accessor is not configured")
	}
	return s.Files, nil
}

// Decode converts loosely typed arguments, as received from a transport, into out. Keys
// are matched against json tags and unknown keys are rejected.
func Decode(op string, args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return apperr.E(op, apperr.Internal, "arguments", fmt.Errorf("create decoder: %w", err))
	}

	if err := decoder.Decode(args); err != nil {
		return apperr.E(op, apperr.InvalidInput, "arguments", err)
	}
	return nil
}
