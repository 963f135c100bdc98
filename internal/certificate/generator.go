// Package certificate renders insurance certificates as PDF documents.
package certificate

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	policydomain "github.com/covline/covline/internal/policy/domain"
)

// Certificate is a generated insurance certificate document.
type Certificate struct {
	FileName    string
	Content     []byte
	ContentType string
}

// Generator renders the certificate for a policy.
type Generator interface {
	Generate(ctx context.Context, policy *policydomain.Policy) (*Certificate, error)
}

// FileNameForPolicy derives the canonical certificate file name.
func FileNameForPolicy(policyID string) string {
	return fmt.Sprintf("Covline_Insurance_Certificate_%s.pdf", policyID)
}

type pdfGenerator struct{}

func NewGenerator() Generator {
	return &pdfGenerator{}
}

func (g *pdfGenerator) Generate(ctx context.Context, policy *policydomain.Policy) (*Certificate, error) {
	_ = ctx

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Insurance Certificate / Attestation d'assurance", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRow(24,
		col.New(6).Add(
			text.New("Policy number", props.Text{Style: fontstyle.Bold}),
			text.New(policy.ID, props.Text{Top: 5}),
			text.New("Policy holder", props.Text{Top: 12, Style: fontstyle.Bold}),
			text.New(fmt.Sprintf("%s %s", policy.HolderFirstname, policy.HolderLastname), props.Text{Top: 17}),
		),
		col.New(6).Add(
			text.New("Insured address", props.Text{Style: fontstyle.Bold}),
			text.New(policy.RiskAddress, props.Text{Top: 5}),
			text.New("Contact", props.Text{Top: 12, Style: fontstyle.Bold}),
			text.New(policy.HolderEmail, props.Text{Top: 17}),
		),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Coverage start", props.Text{Style: fontstyle.Bold}),
			text.New(formatDate(policy.TermStartDate), props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Coverage end", props.Text{Style: fontstyle.Bold}),
			text.New(formatDate(policy.TermEndDate), props.Text{Top: 5}),
		),
	)

	m.AddRow(12,
		text.NewCol(12, "This certificate confirms that the above policy is in force.", props.Text{
			Top:  4,
			Size: 9,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return &Certificate{
		FileName:    FileNameForPolicy(policy.ID),
		Content:     doc.GetBytes(),
		ContentType: "application/pdf",
	}, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006")
}
