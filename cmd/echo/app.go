package main

import (
	"io"
	"os"
	"strings"

	"github.com/dostini/maelstrom-echo/pkg/node"
	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type config struct {
	logLevel string
	logFile  string

	stderr  io.Writer
	logSink io.Closer
}

// loggedError marks a failure that was already logged with its phase.
type loggedError struct {
	error
}

func (e loggedError) Unwrap() error { return e.error }

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	cfg := &config{logLevel: "info"}

	return &cli.App{
		Name:  "echo",
		Usage: "Maelstrom node answering init and echo",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Verbosity of log, valid values are: debug, info, warn, error",
				EnvVars:     []string{"ECHO_LOG_LEVEL"},
				Destination: &cfg.logLevel,
				Value:       cfg.logLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "Append logs to this file instead of stderr",
				EnvVars:     []string{"ECHO_LOG_FILE"},
				Destination: &cfg.logFile,
			},
		},
		// stdout carries the protocol, help and version go to stderr.
		Writer: os.Stderr,
		Before: func(ctx *cli.Context) error {
			return cfg.setupLogging(ctx.App.ErrWriter)
		},
		After: func(ctx *cli.Context) error {
			return cfg.closeLog()
		},
		Action: func(ctx *cli.Context) error {
			n := node.NewNode(node.WithLogger(log.NewEntry(log.StandardLogger())))
			if err := n.Run(stdin, stdout); err != nil {
				logFailure(err)
				return loggedError{err}
			}
			return nil
		},
	}
}

func (c *config) setupLogging(stderr io.Writer) error {
	c.stderr = stderr
	log.SetLevel(parseLevel(c.logLevel))

	if c.logFile == "" {
		log.SetOutput(stderr)
		return nil
	}

	f, err := os.OpenFile(c.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.SetOutput(stderr)
		return errors.Wrapf(err, "open log file %s", c.logFile)
	}
	log.SetOutput(f)
	c.logSink = f
	return nil
}

// closeLog closes the log file, if any, and points logging back at stderr.
func (c *config) closeLog() error {
	if c.logSink == nil {
		return nil
	}
	log.SetOutput(c.stderr)
	err := c.logSink.Close()
	c.logSink = nil
	return errors.Wrap(err, "close log file")
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// logFailure records the phase that failed and, where the failure has one,
// its Maelstrom error code and text.
func logFailure(err error) {
	fields := log.Fields{"phase": node.Phase(err)}

	var coded interface{ RPCError() *maelstrom.RPCError }
	if errors.As(err, &coded) {
		rpc := coded.RPCError()
		fields["code"] = rpc.Code
		fields["text"] = rpc.Text
	}

	var malformed *node.MalformedInputError
	if errors.As(err, &malformed) {
		fields["line"] = malformed.Line
	}

	log.WithFields(fields).WithError(err).Error("node failed")
}

// reportExit logs err unless Action already did and returns the exit status.
func reportExit(err error) int {
	if err == nil {
		return 0
	}

	var logged loggedError
	if !errors.As(err, &logged) {
		log.WithField("phase", "setup").WithError(err).Error("node failed")
	}
	return 1
}
