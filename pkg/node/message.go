package node

// Message is the envelope every Maelstrom message travels in.
type Message struct {
	Src  string
	Dest string
	Body Body
}

// Body carries the correlation ids next to the payload. A nil id is absent.
type Body struct {
	MsgID     *uint64
	InReplyTo *uint64
	Payload   Payload
}

// Payload is one of Echo, EchoOk, Init or InitOk.
type Payload interface {
	// Type is the value of the "type" tag on the wire.
	Type() string

	payload()
}

const (
	TypeEcho   = "echo"
	TypeEchoOk = "echo_ok"
	TypeInit   = "init"
	TypeInitOk = "init_ok"
)

// Echo asks the node to send Echo back unchanged.
type Echo struct {
	Echo string
}

type EchoOk struct {
	Echo string
}

// Init assigns the node its id and the full cluster membership.
type Init struct {
	NodeID  string
	NodeIDs []string
}

type InitOk struct{}

func (Echo) Type() string { return TypeEcho }
func (EchoOk) Type() string { return TypeEchoOk }
func (Init) Type() string { return TypeInit }
func (InitOk) Type() string { return TypeInitOk }

func (Echo) payload() {}
func (EchoOk) payload() {}
func (Init) payload() {}
func (InitOk) payload() {}

// ID returns a pointer to id, for filling MsgID and InReplyTo.
func ID(id uint64) *uint64 {
	return &id
}

// reply builds the answer to msg: src and dest swapped, in_reply_to set to
// the request's msg_id and no msg_id of its own.
func reply(msg Message, payload Payload) Message {
	var inReplyTo *uint64
	if msg.Body.MsgID != nil {
		inReplyTo = ID(*msg.Body.MsgID)
	}

	return Message{
		Src:  msg.Dest,
		Dest: msg.Src,
		Body: Body{
			InReplyTo: inReplyTo,
			Payload:   payload,
		},
	}
}
