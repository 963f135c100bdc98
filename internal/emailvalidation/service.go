// Package emailvalidation issues and resolves the magic links used to
// confirm a subscriber's email address.
package emailvalidation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/covline/covline/internal/clock"
	"github.com/covline/covline/internal/config"
	obsmetrics "github.com/covline/covline/internal/observability/metrics"
	policydomain "github.com/covline/covline/internal/policy/domain"
	emailprovider "github.com/covline/covline/internal/providers/email"
	"github.com/covline/covline/internal/token"
)

var (
	ErrBadEmailValidationToken     = errors.New("bad_email_validation_token")
	ErrExpiredEmailValidationToken = errors.New("expired_email_validation_token")
	ErrInvalidStartRequest         = errors.New("invalid_email_validation_request")
)

// StartCommand requests a validation email. Exactly one of PolicyID and
// QuoteID is set. CallbackURL is optional; when empty, a per-locale URL
// is synthesized from configuration.
type StartCommand struct {
	Email       string
	CallbackURL string
	PartnerCode string
	PolicyID    string
	QuoteID     string
}

// Resolution is the outcome of a successfully resolved token.
type Resolution struct {
	CallbackURL string
	Email       string
	PolicyID    string
	QuoteID     string
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Clock      clock.Clock
	Codec      *token.Codec
	PolicySvc  policydomain.Service
	Email      emailprovider.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	cfg        config.EmailValidationConfig
	clock      clock.Clock
	codec      *token.Codec
	policySvc  policydomain.Service
	email      emailprovider.Provider
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("emailvalidation.service"),
		cfg:        p.Cfg.EmailValidation,
		clock:      p.Clock,
		codec:      p.Codec,
		policySvc:  p.PolicySvc,
		email:      p.Email,
		obsMetrics: p.ObsMetrics,
	}
}

var validationLocales = []string{"fr", "en"}

// Start issues a validation email carrying one magic link per locale.
// Each locale gets its own token because the callback URLs differ; the
// tokens share the same expiry and target record.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	if cmd.Email == "" {
		return ErrInvalidStartRequest
	}
	if (cmd.PolicyID != "") == (cmd.QuoteID != "") {
		return ErrInvalidStartRequest
	}

	expiredAt := token.BuildExpiry(s.clock.Now(), s.cfg.ValidityMonths)

	links := make(map[string]string, len(validationLocales))
	for _, locale := range validationLocales {
		callbackURL := cmd.CallbackURL
		if callbackURL == "" {
			callbackURL = s.callbackURLFor(locale, cmd)
		}

		encoded, err := s.codec.Encode(token.Payload{
			Email:       cmd.Email,
			CallbackURL: callbackURL,
			PolicyID:    cmd.PolicyID,
			QuoteID:     cmd.QuoteID,
			ExpiredAt:   expiredAt,
		})
		if err != nil {
			return err
		}
		links[locale] = fmt.Sprintf("%s/validate?token=%s", s.cfg.FrontURL, url.QueryEscape(encoded))
	}

	body, err := renderValidationEmail(links)
	if err != nil {
		return err
	}

	messageID, err := s.email.Send(ctx, emailprovider.Message{
		To:       []string{cmd.Email},
		Subject:  "Confirmez votre adresse email / Confirm your email address",
		HTMLBody: body,
	})
	if err != nil {
		s.obsMetrics.RecordEmailValidation(ctx, "send_failed")
		return err
	}

	s.obsMetrics.RecordEmailValidation(ctx, "issued")
	s.log.Info("validation email sent",
		zap.String("policy_id", cmd.PolicyID),
		zap.String("quote_id", cmd.QuoteID),
		zap.String("message_id", messageID),
		zap.Time("expired_at", expiredAt),
	)
	return nil
}

// Resolve validates a magic-link token and marks the target policy or
// quote email-validated. Resolving the same token again is a no-op and
// returns the same callback URL, so reloading the landing page is safe.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*Resolution, error) {
	payload, err := s.codec.Decode(rawToken)
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		s.obsMetrics.RecordEmailValidation(ctx, "expired")
		return nil, ErrExpiredEmailValidationToken
	case errors.Is(err, token.ErrBadDecrypt), errors.Is(err, token.ErrBadToken):
		s.obsMetrics.RecordEmailValidation(ctx, "rejected")
		return nil, ErrBadEmailValidationToken
	case err != nil:
		return nil, err
	}

	now := s.clock.Now()
	if payload.PolicyID != "" {
		err = s.policySvc.MarkPolicyEmailValidated(ctx, payload.PolicyID, now)
	} else {
		err = s.policySvc.MarkQuoteEmailValidated(ctx, payload.QuoteID, now)
	}
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordEmailValidation(ctx, "resolved")
	return &Resolution{
		CallbackURL: payload.CallbackURL,
		Email:       payload.Email,
		PolicyID:    payload.PolicyID,
		QuoteID:     payload.QuoteID,
	}, nil
}

func (s *Service) callbackURLFor(locale string, cmd StartCommand) string {
	query := url.Values{}
	if cmd.PolicyID != "" {
		query.Set("policy_id", cmd.PolicyID)
	} else {
		query.Set("quote_id", cmd.QuoteID)
	}
	return fmt.Sprintf("%s/%s/%s/%s?%s",
		s.cfg.FrontURL, locale, url.PathEscape(cmd.PartnerCode), s.cfg.CallbackRoute, query.Encode())
}

var validationEmailTemplate = template.Must(template.New("email_validation").Parse(`<html>
<body>
<p>Bonjour,</p>
<p>Pour confirmer votre adresse email et poursuivre votre souscription, cliquez sur le lien ci-dessous :</p>
<p><a href="{{.fr}}">Confirmer mon adresse email</a></p>
<hr>
<p>Hello,</p>
<p>To confirm your email address and continue your subscription, click the link below:</p>
<p><a href="{{.en}}">Confirm my email address</a></p>
</body>
</html>`))

func renderValidationEmail(links map[string]string) (string, error) {
	var body bytes.Buffer
	if err := validationEmailTemplate.Execute(&body, links); err != nil {
		return "", err
	}
	return body.String(), nil
}
