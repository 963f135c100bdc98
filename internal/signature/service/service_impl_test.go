package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/covline/covline/internal/clock"
	"github.com/covline/covline/internal/config"
	"github.com/covline/covline/internal/contract"
	policydomain "github.com/covline/covline/internal/policy/domain"
	policyrepo "github.com/covline/covline/internal/policy/repository"
	policyservice "github.com/covline/covline/internal/policy/service"
	"github.com/covline/covline/internal/signature/adapter"
	signaturedomain "github.com/covline/covline/internal/signature/domain"
	signatureservice "github.com/covline/covline/internal/signature/service"
)

const sharedKey = "sig_shared_key"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_signature_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE policies (
			id TEXT PRIMARY KEY,
			partner_code TEXT NOT NULL,
			status TEXT NOT NULL,
			holder_email TEXT NOT NULL,
			holder_firstname TEXT,
			holder_lastname TEXT,
			risk_address TEXT,
			premium_amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'EUR',
			term_start_date TIMESTAMP,
			term_end_date TIMESTAMP,
			email_validated_at TIMESTAMP,
			signature_date TIMESTAMP,
			payment_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE signed_contracts (
			file_name TEXT PRIMARY KEY,
			policy_id TEXT NOT NULL,
			content BLOB NOT NULL,
			content_type TEXT NOT NULL DEFAULT 'application/pdf',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type fakeDownloader struct {
	content map[string][]byte
	calls   int
}

func (d *fakeDownloader) DownloadSignedContract(ctx context.Context, requestID, fileName string) ([]byte, error) {
	d.calls++
	content, ok := d.content[requestID+"/"+fileName]
	if !ok {
		return nil, contract.ErrSignedContractNotFound
	}
	return content, nil
}

type fixture struct {
	db         *gorm.DB
	svc        *signatureservice.Service
	policySvc  policydomain.Service
	store      contract.Store
	downloader *fakeDownloader
	clock      *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	policySvc := policyservice.NewService(policyservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: policyrepo.Provide(),
	})
	store := contract.NewStore(contract.StoreParams{DB: db, Log: zap.NewNop()})
	downloader := &fakeDownloader{content: map[string][]byte{}}
	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	svc := signatureservice.NewService(signatureservice.Params{
		Log:        zap.NewNop(),
		Clock:      clk,
		Auth:       adapter.NewAuthenticator(config.SignatureEventConfig{SharedKey: sharedKey}),
		PolicySvc:  policySvc,
		Downloader: downloader,
		Contracts:  store,
	})

	return &fixture{
		db:         db,
		svc:        svc,
		policySvc:  policySvc,
		store:      store,
		downloader: downloader,
		clock:      clk,
	}
}

func (f *fixture) seedPolicy(t *testing.T, id string, status policydomain.PolicyStatus) {
	t.Helper()
	now := f.clock.Now()
	err := f.db.Create(&policydomain.Policy{
		ID:          id,
		PartnerCode: "acme",
		Status:      status,
		HolderEmail: "holder@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error
	if err != nil {
		t.Fatalf("seed policy: %v", err)
	}
}

func validEvent(kindType, requestID, policyID, fileName string) *signaturedomain.Event {
	timeValue := "1741597200"
	mac := hmac.New(sha256.New, []byte(sharedKey))
	_, _ = mac.Write([]byte(timeValue + kindType))
	return &signaturedomain.Event{
		RequestID:        requestID,
		Kind:             signaturedomain.KindOf(kindType),
		PolicyID:         policyID,
		ContractFileName: fileName,
		Validation: signaturedomain.Validation{
			RawEventType: kindType,
			Time:         timeValue,
			Hash:         hex.EncodeToString(mac.Sum(nil)),
		},
	}
}

func TestProcessEventSigned(t *testing.T) {
	f := newFixture(t)
	f.seedPolicy(t, "pol_1", policydomain.PolicyStatusCreated)

	event := validEvent("signature_request.signed", "req_1", "pol_1", "")
	if err := f.svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}

	policy, err := f.policySvc.GetPolicy(context.Background(), "pol_1")
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.Status != policydomain.PolicyStatusSigned {
		t.Fatalf("expected signed, got %s", policy.Status)
	}
	if policy.SignatureDate == nil || !policy.SignatureDate.Equal(f.clock.Now()) {
		t.Fatalf("expected signature date %v, got %v", f.clock.Now(), policy.SignatureDate)
	}

	// Redelivered event is a no-op.
	if err := f.svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
}

func TestProcessEventDocumentsDownloadable(t *testing.T) {
	f := newFixture(t)
	f.seedPolicy(t, "pol_1", policydomain.PolicyStatusSigned)

	fileName := contract.FileNameForPolicy("pol_1")
	f.downloader.content["req_1/"+fileName] = []byte("signed pdf bytes")

	event := validEvent("signature_request.documents_downloadable", "req_1", "pol_1", fileName)
	if err := f.svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, err := f.store.GetSignedContract(context.Background(), fileName)
	if err != nil {
		t.Fatalf("get contract: %v", err)
	}
	if string(stored.Content) != "signed pdf bytes" {
		t.Fatalf("unexpected content %q", stored.Content)
	}
	if stored.PolicyID != "pol_1" {
		t.Fatalf("expected policy pol_1, got %s", stored.PolicyID)
	}

	// Redelivery overwrites with the same content.
	if err := f.svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
}

func TestProcessEventUnknownAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.seedPolicy(t, "pol_1", policydomain.PolicyStatusCreated)

	event := validEvent("signature_request.expired", "req_1", "pol_1", "")
	if err := f.svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unknown event acknowledged, got %v", err)
	}

	policy, err := f.policySvc.GetPolicy(context.Background(), "pol_1")
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.Status != policydomain.PolicyStatusCreated {
		t.Fatalf("expected status unchanged, got %s", policy.Status)
	}
	if f.downloader.calls != 0 {
		t.Fatalf("expected no download for unknown event")
	}
}

func TestProcessEventRejectsTamperedValidation(t *testing.T) {
	f := newFixture(t)
	f.seedPolicy(t, "pol_1", policydomain.PolicyStatusCreated)

	event := validEvent("signature_request.signed", "req_1", "pol_1", "")
	event.Validation.Hash = "deadbeef"
	err := f.svc.ProcessEvent(context.Background(), event)
	if !errors.Is(err, signaturedomain.ErrSignatureEventValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	policy, err := f.policySvc.GetPolicy(context.Background(), "pol_1")
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.Status != policydomain.PolicyStatusCreated {
		t.Fatalf("expected no mutation, got %s", policy.Status)
	}
}

func TestProcessEventDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.seedPolicy(t, "pol_1", policydomain.PolicyStatusSigned)

	fileName := contract.FileNameForPolicy("pol_1")
	event := validEvent("signature_request.documents_downloadable", "req_1", "pol_1", fileName)
	err := f.svc.ProcessEvent(context.Background(), event)
	if !errors.Is(err, contract.ErrSignedContractNotFound) {
		t.Fatalf("expected download not found, got %v", err)
	}

	if _, err := f.store.GetSignedContract(context.Background(), fileName); !errors.Is(err, contract.ErrSignedContractNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}
