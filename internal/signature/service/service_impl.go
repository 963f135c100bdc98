package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/covline/covline/internal/clock"
	"github.com/covline/covline/internal/contract"
	obsmetrics "github.com/covline/covline/internal/observability/metrics"
	policydomain "github.com/covline/covline/internal/policy/domain"
	"github.com/covline/covline/internal/signature/adapter"
	signaturedomain "github.com/covline/covline/internal/signature/domain"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Auth       *adapter.Authenticator
	PolicySvc  policydomain.Service
	Downloader contract.Downloader
	Contracts  contract.Store
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	auth       *adapter.Authenticator
	policySvc  policydomain.Service
	downloader contract.Downloader
	contracts  contract.Store
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("signature.service"),
		clock:      p.Clock,
		auth:       p.Auth,
		policySvc:  p.PolicySvc,
		downloader: p.Downloader,
		contracts:  p.Contracts,
		obsMetrics: p.ObsMetrics,
	}
}

// IngestWebhook authenticates a raw provider delivery and processes the
// event it carries.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte) error {
	event, err := s.auth.Authenticate(ctx, payload)
	if err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "signature", "unknown", "rejected")
		return err
	}
	return s.ProcessEvent(ctx, event)
}

// ProcessEvent dispatches an authenticated signature request event. The
// event's validation hash is re-checked before any state changes.
func (s *Service) ProcessEvent(ctx context.Context, event *signaturedomain.Event) error {
	if err := s.auth.ValidateEvent(event); err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "signature", "unknown", "rejected")
		return err
	}

	log := s.log.With(
		zap.String("signature_request_id", event.RequestID),
		zap.String("policy_id", event.PolicyID),
		zap.String("event_kind", event.Kind.String()),
	)

	var err error
	switch event.Kind {
	case signaturedomain.KindSigned:
		err = s.handleSigned(ctx, event)
	case signaturedomain.KindDocumentsDownloadable:
		err = s.handleDocumentsDownloadable(ctx, event)
	case signaturedomain.KindUnknown:
		log.Info("acknowledging signature event without action",
			zap.String("raw_event_type", event.Validation.RawEventType))
	default:
		err = fmt.Errorf("%w: unhandled event kind %d", signaturedomain.ErrInvalidEvent, event.Kind)
	}

	if err != nil {
		if !errors.Is(err, policydomain.ErrPolicyNotFound) && !errors.Is(err, contract.ErrSignedContractNotFound) {
			log.Error("processing signature event failed", zap.Error(err))
		}
		s.obsMetrics.RecordWebhookEvent(ctx, "signature", event.Kind.String(), "error")
		return err
	}
	s.obsMetrics.RecordWebhookEvent(ctx, "signature", event.Kind.String(), "ok")
	return nil
}

func (s *Service) handleSigned(ctx context.Context, event *signaturedomain.Event) error {
	if event.PolicyID == "" {
		return signaturedomain.ErrInvalidEvent
	}
	return s.policySvc.MarkSigned(ctx, event.PolicyID, s.clock.Now())
}

func (s *Service) handleDocumentsDownloadable(ctx context.Context, event *signaturedomain.Event) error {
	if event.RequestID == "" || event.ContractFileName == "" {
		return signaturedomain.ErrInvalidEvent
	}

	content, err := s.downloader.DownloadSignedContract(ctx, event.RequestID, event.ContractFileName)
	if err != nil {
		return err
	}

	return s.contracts.SaveSignedContract(ctx, &contract.SignedContract{
		FileName:    event.ContractFileName,
		PolicyID:    event.PolicyID,
		Content:     content,
		ContentType: "application/pdf",
	})
}
