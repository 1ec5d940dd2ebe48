// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package r2d2 is a parser of the r2d2 toy protocol built on the tokenizer.
//
// The protocol supports 4 request-types:
// "READ <filename>\r\n"  - Read a file from the Droid
// "WRITE <filename>\r\n" - Write a file to the Droid
// "HALT\r\n" - Shutdown the Droid
// "RESET\r\n" - Reset the Droid to factory settings
//
// Replies include a status of either "OK\r\n", "ERROR\r\n" for "WRITE", "HALT", or "RESET".
// Replies for "READ" are either "OK <filedata>\r\n" or "ERROR\r\n".
package r2d2

import (
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/matcher"
	"github.com/cilium/streamtok/pkg/rule"
	"github.com/cilium/streamtok/pkg/tokenizer"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "r2d2")

// OpType is the verdict on a frame.
type OpType int

const (
	NOP OpType = iota
	PASS
	DROP
	ERROR
	MORE
)

func (op OpType) String() string {
	switch op {
	case PASS:
		return "PASS"
	case DROP:
		return "DROP"
	case ERROR:
		return "ERROR"
	case MORE:
		return "MORE"
	}
	return "NOP"
}

// Op is the verdict on the next Length bytes of the stream.
type Op struct {
	Type   OpType
	Length int
	// Request is the request of PASS and DROP request frames.
	Request Request
	// Inject is the data to send back on the reply direction.
	Inject []byte
}

const (
	delimiter = "\r\n"

	ruleSetCommand  = "command"
	ruleSetArgument = "argument"
	ruleSetReply    = "reply"
)

var errorReply = []byte("ERROR\r\n")

// Parser frames one direction of an r2d2 connection.
type Parser struct {
	engine *tokenizer.Engine
	policy Policy
	reply  bool

	req    Request
	length int
	ops    []Op
}

// NewParser returns a parser of requests, or of replies if reply is set.
// Requests are checked against policy.
func NewParser(policy Policy, reply bool) (*Parser, error) {
	p := &Parser{policy: policy, reply: reply}

	opts := rule.DefaultOptions()
	opts.Escape = 0
	p.engine = tokenizer.New(tokenizer.Config{Name: "r2d2", Options: &opts})

	// cmd, followed by its argument or the end of the request
	if err := p.engine.AddRule(rule.Handler(p.onCommand), matcher.Literal(""), matcher.FirstOf(" ", delimiter)); err != nil {
		return nil, err
	}
	if err := p.engine.SaveRuleSet(ruleSetCommand); err != nil {
		return nil, err
	}

	p.engine.ClearRule()
	if err := p.engine.AddRule(rule.Handler(p.onArgument), matcher.Literal(""), matcher.Literal(delimiter)); err != nil {
		return nil, err
	}
	if err := p.engine.SaveRuleSet(ruleSetArgument); err != nil {
		return nil, err
	}

	p.engine.ClearRule()
	if err := p.engine.AddRule(rule.Handler(p.onReply), matcher.Literal(""), matcher.Literal(delimiter)); err != nil {
		return nil, err
	}
	if err := p.engine.SaveRuleSet(ruleSetReply); err != nil {
		return nil, err
	}

	start := ruleSetCommand
	if reply {
		start = ruleSetReply
	}
	if err := p.engine.LoadRuleSet(start); err != nil {
		return nil, err
	}
	return p, nil
}

// OnData parses data and returns the verdicts on the frames it completes. A
// trailing MORE op asks for more data before the rest can be framed.
func (p *Parser) OnData(data []byte, endStream bool) ([]Op, error) {
	p.ops = p.ops[:0]
	var err error
	if endStream {
		err = p.engine.End(data)
	} else {
		_, err = p.engine.Write(data)
	}
	if err != nil {
		return nil, err
	}

	if pending := p.length + p.engine.Len(); pending > 0 {
		if endStream {
			log.WithField(logfields.Length, pending).Debug("Stream ended inside a frame")
			p.ops = append(p.ops, Op{Type: ERROR, Length: pending})
		} else {
			log.Debugf("No delimiter found, requesting more bytes")
			p.ops = append(p.ops, Op{Type: MORE, Length: 1})
		}
	}
	return append([]Op(nil), p.ops...), nil
}

func (p *Parser) onCommand(tok rule.Token) {
	p.req = Request{Cmd: tok.Value}
	if tok.Index == 0 {
		p.length = tok.Size + 1
		if err := p.engine.Next(ruleSetArgument, 0); err != nil {
			log.WithError(err).Error("Unable to parse argument")
		}
		return
	}
	p.length = tok.Size + len(delimiter)
	p.request()
}

func (p *Parser) onArgument(tok rule.Token) {
	p.req.File = tok.Value
	p.length += tok.Size + len(delimiter)
	if err := p.engine.Next(ruleSetCommand, 0); err != nil {
		log.WithError(err).Error("Unable to parse command")
	}
	p.request()
}

func (p *Parser) onReply(tok rule.Token) {
	n := tok.Size + len(delimiter)
	log.Debugf("reply, passing %d bytes", n)
	p.ops = append(p.ops, Op{Type: PASS, Length: n})
}

func (p *Parser) request() {
	op := Op{Type: PASS, Length: p.length, Request: p.req}
	if !p.policy.Matches(p.req) {
		op.Type = DROP
		op.Inject = errorReply
	}
	log.WithFields(logrus.Fields{
		logfields.Command: p.req.Cmd,
		logfields.File:    p.req.File,
		logfields.Verdict: op.Type,
		logfields.Length:  op.Length,
	}).Debug("Request")

	p.ops = append(p.ops, op)
	p.req, p.length = Request{}, 0
}
