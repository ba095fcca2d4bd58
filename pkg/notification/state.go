package notification

// State is a stage of the notification pipeline. Stages only move forward.
type State int

const (
	StateReceived State = iota
	StateBodyParsed
	StateSchemaValidated
	StateSignatureVerified
	StateRechecked
	StateProcessed
	StateResponded
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateBodyParsed:
		return "body_parsed"
	case StateSchemaValidated:
		return "schema_validated"
	case StateSignatureVerified:
		return "signature_verified"
	case StateRechecked:
		return "rechecked"
	case StateProcessed:
		return "processed"
	case StateResponded:
		return "responded"
	}
	return "unknown"
}
