// Package parser tokenizes ferry trace logs into events.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ferry-trace/verifier/internal/models"
)

// Line grammar: "<seq>: <label>[ <id>]: <action>[ <port>]"
const fieldSep = ": "

// maxLineSize bounds a single scanned line.
const maxLineSize = 1024 * 1024

// Result is the outcome of parsing one log.
type Result struct {
	Events   []models.Event
	Rejected []models.ParseError
	Lines    int
}

// TraceParser handles the simulation's event log.
type TraceParser struct{}

func NewTraceParser() *TraceParser {
	return &TraceParser{}
}

func (p *TraceParser) Name() string {
	return "ferry_trace"
}

// CanParse sniffs the first non-blank lines of a file.
func (p *TraceParser) CanParse(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	checked := 0
	matched := 0
	for scanner.Scan() && checked < 10 {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		checked++
		if _, perr := p.ParseLine(line, checked); perr == nil {
			matched++
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}

	return checked > 0 && float64(matched)/float64(checked) >= 0.6, nil
}

// ParseFile opens filePath and parses it. A missing or unreadable file is an error.
func (p *TraceParser) ParseFile(filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening trace log: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads every line of r. Lines that do not tokenize are collected in
// Result.Rejected and never abort the parse; only read errors do.
func (p *TraceParser) Parse(r io.Reader) (*Result, error) {
	res := &Result{
		Events:   make([]models.Event, 0),
		Rejected: make([]models.ParseError, 0),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		event, perr := p.ParseLine(line, lineNum)
		if perr != nil {
			res.Rejected = append(res.Rejected, *perr)
			continue
		}
		res.Events = append(res.Events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace log: %w", err)
	}

	res.Lines = lineNum
	return res, nil
}

// ParseLine tokenizes a single line.
func (p *TraceParser) ParseLine(line string, lineNum int) (models.Event, *models.ParseError) {
	reject := func(reason string) (models.Event, *models.ParseError) {
		return models.Event{}, &models.ParseError{Line: lineNum, Content: line, Reason: reason}
	}

	s := strings.TrimSpace(line)

	// Sequence number.
	n := leadingDigits(s)
	if n == 0 {
		return reject("missing sequence number")
	}
	seq, err := strconv.ParseUint(s[:n], 10, 64)
	if err != nil {
		return reject("sequence number out of range")
	}
	s = s[n:]
	if !strings.HasPrefix(s, fieldSep) {
		return reject("expected \": \" after sequence number")
	}
	s = s[len(fieldSep):]

	// Entity header, up to the next separator.
	sep := strings.Index(s, fieldSep)
	if sep < 0 {
		return reject("missing \": \" after entity")
	}
	header, body := s[:sep], s[sep+len(fieldSep):]
	if body == "" {
		return reject("missing action")
	}

	label, idText, hasID := splitTrailingNumber(header)
	id := 0
	if hasID {
		if id, err = strconv.Atoi(idText); err != nil {
			return reject("entity id out of range")
		}
	}

	// Action body with an optional trailing port. The action keeps at least
	// one character, so a bare number is an action, not a port.
	action, portText, hasPort := splitTrailingNumber(body)
	if hasPort && strings.TrimSpace(action) == "" {
		action, hasPort = body, false
	}
	var port *int
	if hasPort {
		v, err := strconv.Atoi(portText)
		if err != nil {
			return reject("port out of range")
		}
		port = &v
	}

	return models.Event{
		Seq:    seq,
		Type:   models.EntityTypeFromLabel(label),
		Label:  label,
		ID:     id,
		Action: models.Action(strings.TrimSpace(action)),
		Port:   port,
		Line:   lineNum,
	}, nil
}

// leadingDigits returns the length of the ASCII digit prefix of s.
func leadingDigits(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

// splitTrailingNumber splits "text 123" into ("text", "123", true).
// Anything else comes back unchanged with ok=false.
func splitTrailingNumber(s string) (head, digits string, ok bool) {
	sp := strings.LastIndexByte(s, ' ')
	if sp < 0 || sp == len(s)-1 {
		return s, "", false
	}
	tail := s[sp+1:]
	if leadingDigits(tail) != len(tail) {
		return s, "", false
	}
	return s[:sp], tail, true
}
