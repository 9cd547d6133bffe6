package tools

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/advisory"
	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/tracking"
)

// NegotiateRate drafts a rate negotiation message with its strategy.
func (s *Service) NegotiateRate(ctx context.Context, in advisory.NegotiationRequest) (*advisory.Advisory, error) {
	return s.compose(ctx, OpNegotiateRate, in)
}

// GenerateProposal drafts a proposal for a gig.
func (s *Service) GenerateProposal(ctx context.Context, in advisory.ProposalRequest) (*advisory.Advisory, error) {
	return s.compose(ctx, OpGenerateProposal, in)
}

// OptimizeProfile suggests profile improvements.
func (s *Service) OptimizeProfile(ctx context.Context, in advisory.OptimizationRequest) (*advisory.Advisory, error) {
	return s.compose(ctx, OpOptimizeProfile, in)
}

func (s *Service) compose(ctx context.Context, op string, req advisory.Request) (adv *advisory.Advisory, err error) {
	started := time.Now()
	defer func() {
		fields := []zap.Field{zap.String("advisory_kind", string(req.Kind()))}
		if adv != nil {
			fields = append(fields, zap.String("advisory_id", adv.ID), zap.Int("attempts", adv.Attempts))
		}
		err = s.finish(op, started, err, fields...)
	}()

	return s.Advisor.Compose(ctx, req)
}

// TrackInput is a log of submitted applications.
type TrackInput struct {
	Applications []tracking.Application `json:"applications"`
}

// TrackApplications summarises application outcomes.
func (s *Service) TrackApplications(_ context.Context, in TrackInput) (summary *tracking.Summary, err error) {
	started := time.Now()
	defer func() {
		err = s.finish(OpTrack, started, err, zap.Int("applications", len(in.Applications)))
	}()

	summary, err = tracking.Summarize(in.Applications)
	if err != nil {
		return nil, apperr.WithOp(err, OpTrack)
	}
	return summary, nil
}
