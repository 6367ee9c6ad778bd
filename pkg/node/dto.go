package node

// wireBody is the flattened body as it is written out: correlation ids and
// the variant's own fields are siblings. Pointers keep zero ids and empty
// strings on the wire while nil ones are dropped.
type wireBody struct {
	Type      string    `json:"type"`
	MsgID     *uint64   `json:"msg_id,omitempty"`
	InReplyTo *uint64   `json:"in_reply_to,omitempty"`
	Echo      *string   `json:"echo,omitempty"`
	NodeID    *string   `json:"node_id,omitempty"`
	NodeIDs   *[]string `json:"node_ids,omitempty"`
}

type outboundMessage struct {
	Src  string   `json:"src"`
	Dest string   `json:"dest"`
	Body wireBody `json:"body"`
}
