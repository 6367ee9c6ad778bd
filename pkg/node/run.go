package node

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Run reads one message per line from in and writes each reply to out,
// flushed before the next line is read. It returns nil once in is exhausted
// and stops at the first malformed record or failed write.
func (n *Node) Run(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	for lineNo := 1; ; lineNo++ {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return &stageError{phase: PhaseRead, err: errors.Wrapf(readErr, "read line %d", lineNo)}
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if err := n.step(line, lineNo, writer); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			n.logger.Debug("input closed")
			return nil
		}
	}
}

func (n *Node) step(line []byte, lineNo int, w *bufio.Writer) error {
	n.logger.WithField("line", string(line)).Debug("received")

	msg, err := Decode(line)
	if err != nil {
		var malformed *MalformedInputError
		if errors.As(err, &malformed) {
			malformed.Line = lineNo
		}
		return err
	}

	res, ok := n.Handle(msg)
	if !ok {
		return nil
	}

	data, err := Encode(res)
	if err != nil {
		return &stageError{phase: PhaseHandle, err: errors.Wrapf(err, "handle line %d", lineNo)}
	}

	if err := writeLine(w, data); err != nil {
		return &WriteFailureError{Err: err}
	}

	n.logger.WithFields(logrus.Fields{
		"type": res.Body.Payload.Type(),
		"dest": res.Dest,
	}).Debug("replied")

	return nil
}

func writeLine(w *bufio.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write reply")
	}
	if err := w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "write newline")
	}
	return errors.Wrap(w.Flush(), "flush reply")
}
