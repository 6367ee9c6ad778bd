package node

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Decode parses one line of input into a Message. Any failure is returned as
// a *MalformedInputError.
func Decode(line []byte) (Message, error) {
	msg, err := decode(line)
	if err != nil {
		return Message{}, &MalformedInputError{Err: err}
	}
	return msg, nil
}

func decode(line []byte) (Message, error) {
	if err := checkText(line); err != nil {
		return Message{}, err
	}

	env, err := decodeObject(line, "envelope")
	if err != nil {
		return Message{}, err
	}

	var msg Message
	if err := env.required("src", &msg.Src); err != nil {
		return Message{}, err
	}
	if err := env.required("dest", &msg.Dest); err != nil {
		return Message{}, err
	}
	var raw json.RawMessage
	if err := env.required("body", &raw); err != nil {
		return Message{}, err
	}

	body, err := decodeObject(raw, "body")
	if err != nil {
		return Message{}, err
	}
	if msg.Body, err = decodeBody(body); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func decodeBody(f fields) (Body, error) {
	var b Body
	var typ string
	if err := f.required("type", &typ); err != nil {
		return Body{}, err
	}
	if err := f.optional("msg_id", &b.MsgID); err != nil {
		return Body{}, err
	}
	if err := f.optional("in_reply_to", &b.InReplyTo); err != nil {
		return Body{}, err
	}

	// Only the fields of the tagged variant are looked at.
	switch typ {
	case TypeEcho:
		var p Echo
		if err := f.required("echo", &p.Echo); err != nil {
			return Body{}, err
		}
		b.Payload = p
	case TypeEchoOk:
		var p EchoOk
		if err := f.required("echo", &p.Echo); err != nil {
			return Body{}, err
		}
		b.Payload = p
	case TypeInit:
		var p Init
		if err := f.required("node_id", &p.NodeID); err != nil {
			return Body{}, err
		}
		if err := f.required("node_ids", &p.NodeIDs); err != nil {
			return Body{}, err
		}
		b.Payload = p
	case TypeInitOk:
		b.Payload = InitOk{}
	default:
		return Body{}, errors.Errorf("unknown message type %q", typ)
	}

	return b, nil
}

// fields holds the members of one JSON object. Keys match exactly.
type fields map[string]json.RawMessage

func decodeObject(data []byte, what string) (fields, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.Errorf("%s is null", what)
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "decode %s", what)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(raw, []byte("null"))
}

// required decodes key into v. A missing or null key is an error.
func (f fields) required(key string, v any) error {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return errors.Errorf("missing field %s", key)
	}
	return errors.Wrapf(json.Unmarshal(raw, v), "field %s", key)
}

// optional decodes key into *v, leaving *v nil when key is missing or null.
func (f fields) optional(key string, v **uint64) error {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return nil
	}
	var id uint64
	if err := json.Unmarshal(raw, &id); err != nil {
		return errors.Wrapf(err, "field %s", key)
	}
	*v = &id
	return nil
}

// checkText rejects input that would not survive decoding byte for byte:
// invalid UTF-8 and \u escapes naming half of a surrogate pair.
func checkText(line []byte) error {
	if !utf8.Valid(line) {
		return errors.New("invalid UTF-8")
	}

	for i := 0; i < len(line); i++ {
		if line[i] != '\\' {
			continue
		}
		if i+1 < len(line) && line[i+1] == 'u' {
			r, ok := escapedRune(line, i)
			if ok && utf16.IsSurrogate(r) {
				next, nextOK := escapedRune(line, i+6)
				if r >= 0xdc00 || !nextOK || next < 0xdc00 || next > 0xdfff {
					return errors.Errorf("unpaired surrogate at offset %d", i)
				}
				i += 6
			}
			i += 5
			continue
		}
		i++
	}
	return nil
}

// escapedRune reads the \uXXXX escape starting at line[i].
func escapedRune(line []byte, i int) (rune, bool) {
	if i+6 > len(line) || line[i] != '\\' || line[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(line[i+2:i+6]), 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// Encode renders msg as a single line of JSON, without the trailing newline.
// Absent ids are left out rather than written as null.
func Encode(msg Message) ([]byte, error) {
	wb := wireBody{
		MsgID:     msg.Body.MsgID,
		InReplyTo: msg.Body.InReplyTo,
	}

	switch p := msg.Body.Payload.(type) {
	case Echo:
		wb.Type = p.Type()
		wb.Echo = &p.Echo
	case EchoOk:
		wb.Type = p.Type()
		wb.Echo = &p.Echo
	case Init:
		nodeIDs := p.NodeIDs
		if nodeIDs == nil {
			nodeIDs = []string{}
		}
		wb.Type = p.Type()
		wb.NodeID = &p.NodeID
		wb.NodeIDs = &nodeIDs
	case InitOk:
		wb.Type = p.Type()
	default:
		return nil, errors.Errorf("cannot encode payload %T", msg.Body.Payload)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outboundMessage{Src: msg.Src, Dest: msg.Dest, Body: wb}); err != nil {
		return nil, errors.Wrap(err, "encode message")
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
