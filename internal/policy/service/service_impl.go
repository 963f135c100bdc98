package service

import (
	"context"
	"time"

	obsmetrics "github.com/covline/covline/internal/observability/metrics"
	"github.com/covline/covline/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Service implements the policy lifecycle state machine:
// Created -> Signed -> Applicable, with Cancelled reachable from any
// non-terminal state. Transitions are applied with a status
// precondition in SQL, so a concurrent or redelivered webhook settles
// on the same final state without in-process locking.
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("policy.lifecycle"),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	policy, err := s.repo.FindPolicy(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, domain.ErrPolicyNotFound
	}
	return policy, nil
}

func (s *Service) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	quote, err := s.repo.FindQuote(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, domain.ErrQuoteNotFound
	}
	return quote, nil
}

func (s *Service) MarkSigned(ctx context.Context, policyID string, at time.Time) error {
	return s.transition(ctx, policyID, domain.PolicyStatusCreated, domain.PolicyStatusSigned, map[string]any{
		"signature_date": at.UTC(),
	})
}

func (s *Service) MarkApplicable(ctx context.Context, policyID string, paymentAt, signatureAt time.Time) error {
	return s.transition(ctx, policyID, domain.PolicyStatusSigned, domain.PolicyStatusApplicable, map[string]any{
		"payment_date":   paymentAt.UTC(),
		"signature_date": signatureAt.UTC(),
	})
}

func (s *Service) Cancel(ctx context.Context, policyID string, at time.Time) error {
	policy, err := s.GetPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	if policy.Status == domain.PolicyStatusCancelled {
		return nil
	}
	return s.transition(ctx, policyID, policy.Status, domain.PolicyStatusCancelled, nil)
}

// transition applies from -> to with a status precondition. A zero-row
// update is re-read: the transition may have been applied by a
// concurrent delivery, which is a success, not an error.
func (s *Service) transition(ctx context.Context, policyID string, from, to domain.PolicyStatus, set map[string]any) error {
	policy, err := s.repo.FindPolicy(ctx, s.db, policyID)
	if err != nil {
		return err
	}
	if policy == nil {
		return domain.ErrPolicyNotFound
	}
	if policy.Status == to {
		return nil
	}
	if policy.Status != from {
		return &domain.InvalidTransitionError{PolicyID: policyID, From: policy.Status, To: to}
	}

	updated, err := s.repo.TransitionPolicy(ctx, s.db, policyID, from, to, set)
	if err != nil {
		return err
	}
	if !updated {
		current, err := s.repo.FindPolicy(ctx, s.db, policyID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == to {
			return nil
		}
		status := domain.PolicyStatus("")
		if current != nil {
			status = current.Status
		}
		return &domain.InvalidTransitionError{PolicyID: policyID, From: status, To: to}
	}

	s.log.Info("policy transitioned",
		zap.String("policy_id", policyID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.obsMetrics.RecordPolicyTransition(ctx, string(to))
	return nil
}

func (s *Service) MarkPolicyEmailValidated(ctx context.Context, policyID string, at time.Time) error {
	updated, err := s.repo.SetPolicyEmailValidated(ctx, s.db, policyID, at.UTC())
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	// Zero rows means either an unknown policy or one already
	// validated; only the former is an error.
	policy, err := s.repo.FindPolicy(ctx, s.db, policyID)
	if err != nil {
		return err
	}
	if policy == nil {
		return domain.ErrPolicyNotFound
	}
	return nil
}

func (s *Service) MarkQuoteEmailValidated(ctx context.Context, quoteID string, at time.Time) error {
	updated, err := s.repo.SetQuoteEmailValidated(ctx, s.db, quoteID, at.UTC())
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	quote, err := s.repo.FindQuote(ctx, s.db, quoteID)
	if err != nil {
		return err
	}
	if quote == nil {
		return domain.ErrQuoteNotFound
	}
	return nil
}
