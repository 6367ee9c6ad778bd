package node

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Node answers init and echo requests. It is not safe for concurrent use:
// Run owns it for the lifetime of the process.
type Node struct {
	id      string
	nodeIDs []string

	initialized bool

	logger *logrus.Entry
}

type Option func(*Node)

// WithLogger sets the logger the node reports through.
func WithLogger(logger *logrus.Entry) Option {
	return func(n *Node) {
		n.logger = logger
	}
}

func NewNode(opts ...Option) *Node {
	n := &Node{}
	for _, opt := range opts {
		opt(n)
	}

	if n.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		n.logger = logrus.NewEntry(l)
	}
	n.logger = n.logger.WithField("component", "node")

	return n
}

// Handle processes one message and returns the reply, if the message kind
// calls for one.
func (n *Node) Handle(msg Message) (Message, bool) {
	switch p := msg.Body.Payload.(type) {
	case Echo:
		return reply(msg, EchoOk{Echo: p.Echo}), true
	case Init:
		n.init(p)
		return reply(msg, InitOk{}), true
	case EchoOk, InitOk:
		return Message{}, false
	default:
		n.logger.WithField("payload", p).Warn("ignoring unknown payload")
		return Message{}, false
	}
}

func (n *Node) init(p Init) {
	if n.initialized {
		n.logger.WithFields(logrus.Fields{
			"old_id": n.id,
			"new_id": p.NodeID,
		}).Warn("node initialized again")
	}

	n.id = p.NodeID
	n.nodeIDs = append([]string(nil), p.NodeIDs...)
	n.initialized = true

	n.logger.WithFields(logrus.Fields{
		"id":       n.id,
		"node_ids": n.nodeIDs,
	}).Info("node initialized")
}

// ID is the node's own id, empty until the first init.
func (n *Node) ID() string {
	return n.id
}

// NodeIDs is the cluster membership from the last init, this node included.
func (n *Node) NodeIDs() []string {
	return append([]string(nil), n.nodeIDs...)
}

func (n *Node) Initialized() bool {
	return n.initialized
}
