// Package domain defines the e-signature provider events this system
// reacts to.
package domain

import "errors"

var (
	// ErrUnauthenticatedEvent rejects deliveries whose validation hash
	// does not verify, including payloads that fail to parse.
	ErrUnauthenticatedEvent = errors.New("unauthenticated_event")

	// ErrSignatureEventValidation rejects an event that fails the
	// orchestrator's own validity re-check.
	ErrSignatureEventValidation = errors.New("signature_event_validation_failed")

	ErrInvalidEvent = errors.New("invalid_event")
)

// Kind is the closed set of signature request event kinds. Dispatch on
// Kind is exhaustive; a raw event type outside the set maps to
// KindUnknown, which is acknowledged without side effects.
type Kind int

const (
	KindUnknown Kind = iota
	KindSigned
	KindDocumentsDownloadable
)

const (
	eventTypeSigned                = "signature_request.signed"
	eventTypeDocumentsDownloadable = "signature_request.documents_downloadable"
)

// KindOf maps a provider event type to its Kind.
func KindOf(rawEventType string) Kind {
	switch rawEventType {
	case eventTypeSigned:
		return KindSigned
	case eventTypeDocumentsDownloadable:
		return KindDocumentsDownloadable
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindSigned:
		return "signed"
	case KindDocumentsDownloadable:
		return "documents_downloadable"
	default:
		return "unknown"
	}
}

// Validation is the authentication material attached to each event.
// Hash must equal HMAC-SHA256(sharedKey, Time ++ RawEventType).
type Validation struct {
	RawEventType string
	Time         string
	Hash         string
}

// Event is an authenticated signature request event.
type Event struct {
	RequestID        string
	Kind             Kind
	PolicyID         string
	ContractFileName string
	Validation       Validation
}
