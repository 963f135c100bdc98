package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/covline/covline/internal/certificate"
	"github.com/covline/covline/internal/clock"
	"github.com/covline/covline/internal/contract"
	obsmetrics "github.com/covline/covline/internal/observability/metrics"
	"github.com/covline/covline/internal/payment/adapter"
	paymentdomain "github.com/covline/covline/internal/payment/domain"
	policydomain "github.com/covline/covline/internal/policy/domain"
	emailprovider "github.com/covline/covline/internal/providers/email"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Auth         *adapter.Authenticator
	Repo         paymentdomain.Repository
	PolicySvc    policydomain.Service
	Contracts    contract.Store
	Certificates certificate.Generator
	Email        emailprovider.Provider
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	auth         *adapter.Authenticator
	repo         paymentdomain.Repository
	policySvc    policydomain.Service
	contracts    contract.Store
	certificates certificate.Generator
	email        emailprovider.Provider
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		auth:         p.Auth,
		repo:         p.Repo,
		policySvc:    p.PolicySvc,
		contracts:    p.Contracts,
		certificates: p.Certificates,
		email:        p.Email,
		obsMetrics:   p.ObsMetrics,
	}
}

// IngestWebhook authenticates a raw payment processor delivery and runs
// the confirmation pipeline for payment_intent.succeeded events. Events
// the system does not act on are acknowledged without side effects.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	cmd, err := s.auth.Authenticate(ctx, payload, sigHeader)
	if errors.Is(err, paymentdomain.ErrEventIgnored) {
		s.log.Info("ignoring payment event")
		s.obsMetrics.RecordWebhookEvent(ctx, "payment", "other", "ignored")
		return nil
	}
	if err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "payment", "unknown", "rejected")
		return err
	}

	err = s.ConfirmPaymentIntent(ctx, cmd)
	switch {
	case errors.Is(err, paymentdomain.ErrEventAlreadyProcessed):
		s.obsMetrics.RecordWebhookEvent(ctx, "payment", "payment_intent.succeeded", "duplicate")
	case err != nil:
		s.obsMetrics.RecordWebhookEvent(ctx, "payment", "payment_intent.succeeded", "error")
	default:
		s.obsMetrics.RecordWebhookEvent(ctx, "payment", "payment_intent.succeeded", "confirmed")
	}
	return err
}

// ConfirmPaymentIntent runs the payment confirmation pipeline for one
// external payment intent. The pipeline is resumable: a confirmation
// record keyed on the external id tracks the last persisted step, so a
// redelivered event after a mid-pipeline crash picks up where the
// previous attempt stopped instead of repeating committed writes.
// Document generation and the confirmation email carry no persisted
// state and are re-run on every resume.
func (s *Service) ConfirmPaymentIntent(ctx context.Context, cmd *paymentdomain.ConfirmPaymentIntentCommand) error {
	if cmd == nil {
		return paymentdomain.ErrInvalidEvent
	}
	log := s.log.With(
		zap.String("policy_id", cmd.PolicyID),
		zap.String("external_id", cmd.ExternalID),
	)

	now := s.clock.Now()
	rec := &paymentdomain.ConfirmationRecord{
		ExternalID: cmd.ExternalID,
		PolicyID:   cmd.PolicyID,
		LastStep:   paymentdomain.StepNone,
		ReceivedAt: now,
	}
	inserted, err := s.repo.InsertConfirmation(ctx, s.db, rec)
	if err != nil {
		return err
	}
	if !inserted {
		rec, err = s.repo.FindConfirmation(ctx, s.db, cmd.ExternalID)
		if err != nil {
			return err
		}
		if rec == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if rec.CompletedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
		log.Info("resuming payment confirmation", zap.Int("last_step", rec.LastStep))
	}

	policy, err := s.policySvc.GetPolicy(ctx, cmd.PolicyID)
	if err != nil {
		return err
	}

	signed, err := s.contracts.GetSignedContract(ctx, contract.FileNameForPolicy(policy.ID))
	if err != nil {
		return err
	}

	if rec.LastStep < paymentdomain.StepPolicyApplicable {
		signatureAt := cmd.OccurredAt
		if policy.SignatureDate != nil {
			signatureAt = *policy.SignatureDate
		}
		if err := s.policySvc.MarkApplicable(ctx, policy.ID, cmd.OccurredAt, signatureAt); err != nil {
			return err
		}
		if err := s.repo.SetConfirmationStep(ctx, s.db, cmd.ExternalID, paymentdomain.StepPolicyApplicable); err != nil {
			return err
		}
		log.Info("policy marked applicable")
	}

	if rec.LastStep < paymentdomain.StepPaymentRecorded {
		payment := &paymentdomain.Payment{
			ID:         s.genID.Generate(),
			PolicyID:   policy.ID,
			Amount:     cmd.Amount,
			Currency:   cmd.Currency,
			Processor:  cmd.Processor,
			Instrument: cmd.Instrument,
			ExternalID: cmd.ExternalID,
			Status:     paymentdomain.PaymentStatusValid,
			PayedAt:    cmd.OccurredAt,
			RawPayload: datatypes.JSON(cmd.RawPaymentIntent),
			CreatedAt:  now,
		}
		if _, err := s.repo.InsertPayment(ctx, s.db, payment); err != nil {
			return err
		}
		if err := s.repo.SetConfirmationStep(ctx, s.db, cmd.ExternalID, paymentdomain.StepPaymentRecorded); err != nil {
			return err
		}
		log.Info("payment recorded", zap.Int64("amount", cmd.Amount), zap.String("currency", cmd.Currency))
	}

	cert, err := s.certificates.Generate(ctx, policy)
	if err != nil {
		return &paymentdomain.CertificateGenerationError{PolicyID: policy.ID, Err: err}
	}

	if err := s.sendConfirmationEmail(ctx, policy, signed, cert); err != nil {
		return &paymentdomain.SubscriptionValidationEmailError{PolicyID: policy.ID, Err: err}
	}

	if err := s.repo.CompleteConfirmation(ctx, s.db, cmd.ExternalID, s.clock.Now()); err != nil {
		return err
	}
	log.Info("payment confirmation completed")
	return nil
}

var confirmationEmailTemplate = template.Must(template.New("subscription_confirmation").Parse(`<html>
<body>
<p>Bonjour {{.Firstname}} {{.Lastname}},</p>
<p>Votre paiement a bien &eacute;t&eacute; re&ccedil;u. Votre contrat d'assurance {{.PolicyID}} est d&eacute;sormais actif.</p>
<p>Vous trouverez en pi&egrave;ce jointe votre contrat sign&eacute; ainsi que votre attestation d'assurance.</p>
<hr>
<p>Hello {{.Firstname}} {{.Lastname}},</p>
<p>Your payment was received. Your insurance policy {{.PolicyID}} is now active.</p>
<p>Attached you will find your signed contract and your insurance certificate.</p>
</body>
</html>`))

func (s *Service) sendConfirmationEmail(ctx context.Context, policy *policydomain.Policy, signed *contract.SignedContract, cert *certificate.Certificate) error {
	var body bytes.Buffer
	err := confirmationEmailTemplate.Execute(&body, map[string]string{
		"Firstname": policy.HolderFirstname,
		"Lastname":  policy.HolderLastname,
		"PolicyID":  policy.ID,
	})
	if err != nil {
		return err
	}

	msg := emailprovider.Message{
		To:       []string{policy.HolderEmail},
		Subject:  fmt.Sprintf("Votre contrat d'assurance %s / Your insurance policy %s", policy.ID, policy.ID),
		HTMLBody: body.String(),
		Attachments: []emailprovider.Attachment{
			{FileName: signed.FileName, Content: signed.Content, ContentType: signed.ContentType},
			{FileName: cert.FileName, Content: cert.Content, ContentType: cert.ContentType},
		},
	}

	messageID, err := s.email.Send(ctx, msg)
	if err != nil {
		return err
	}
	s.log.Info("subscription confirmation email sent",
		zap.String("policy_id", policy.ID),
		zap.String("message_id", messageID),
	)
	return nil
}
