package domain

import "strings"

// Kind is the closed set of commands understood over chat.
type Kind int

const (
	KindUnknown Kind = iota
	KindService
	KindServices
	KindAddService
	KindSub
	KindUnsub
	KindHelp
)

var verbs = map[string]Kind{
	"service":    KindService,
	"services":   KindServices,
	"addservice": KindAddService,
	"sub":        KindSub,
	"unsub":      KindUnsub,
	"help":       KindHelp,
}

// String returns the verb for k, or "unknown".
func (k Kind) String() string {
	for verb, kind := range verbs {
		if kind == k {
			return verb
		}
	}
	return "unknown"
}

// Command is a parsed inbound message.
type Command struct {
	Kind      Kind
	Verb      string // verb exactly as typed
	Args      string // raw remainder after the first space, not re-split
	Sender    string // full sender address, resource included
	Transport string // tag of the transport the message arrived on
}

// Reply is the single outbound answer to a Command.
type Reply struct {
	To   string
	Body string
}

// ParseCommand turns a raw message body into a Command.
//
// The body is split on its first space: the first token is the verb
// (case-sensitive), the rest is kept verbatim as Args. Verbs that are not
// known still parse, as KindUnknown, so the executor answers them.
// Examples:
//   - "service db main" -> service, args "db main"
//   - "services"        -> services, args ""
//   - "frobnicate x"    -> unknown, verb "frobnicate"
func ParseCommand(sender, body string) (Command, error) {
	body = strings.TrimSpace(body)
	verb, args, _ := strings.Cut(body, " ")
	if verb == "" {
		return Command{}, &ParseError{Body: body, Err: ErrEmptyMessage}
	}

	kind, ok := verbs[verb]
	if !ok {
		kind = KindUnknown
	}

	return Command{
		Kind:   kind,
		Verb:   verb,
		Args:   args,
		Sender: sender,
	}, nil
}

// NormalizeAddress strips the transport resource from a sender address.
// Example: "alice@example.com/phone1" -> "alice@example.com"
func NormalizeAddress(sender string) string {
	if i := strings.IndexByte(sender, '/'); i >= 0 {
		return sender[:i]
	}
	return sender
}

// Verbs returns the known verbs in display order.
func Verbs() []string {
	return []string{"service", "services", "addservice", "sub", "unsub", "help"}
}
