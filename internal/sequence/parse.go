package sequence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/san-kum/auvctl/internal/hardware"
)

type Grammar string

const (
	Plain    Grammar = "plain"
	Labelled Grammar = "labelled"
)

func ParseGrammar(s string) (Grammar, error) {
	switch g := Grammar(strings.ToLower(strings.TrimSpace(s))); g {
	case Plain, Labelled:
		return g, nil
	case "":
		return Plain, nil
	}
	return "", fmt.Errorf("unknown grammar %q", s)
}

const (
	labelDirection = "д"
	labelDuration  = "в"
	labelPower     = "м"
)

// maxSeconds is the longest duration a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// MaxLineLength bounds a single instruction line. Longer lines are skipped
// as malformed.
const MaxLineLength = 4096

// Normalize strips all whitespace, lowercases and folds ё to е.
func Normalize(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			continue
		}
		r = unicode.ToLower(r)
		if r == 'ё' {
			r = 'е'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parser turns lines of one grammar into instructions.
type Parser struct {
	Grammar   Grammar
	Delimiter string
}

func (p Parser) delimiter() string {
	if p.Delimiter == "" {
		return ","
	}
	return p.Delimiter
}

// ParseLine parses a single raw line. The returned instruction has no line
// number set.
func (p Parser) ParseLine(raw string) (Instruction, error) {
	line := Normalize(raw)
	if line == "" {
		return Instruction{}, ErrBlank
	}
	fields := strings.Split(line, p.delimiter())

	switch p.Grammar {
	case Labelled:
		return parseLabelled(fields)
	case Plain, "":
		return parsePlain(fields)
	}
	return Instruction{}, fmt.Errorf("unknown grammar %q", p.Grammar)
}

func parsePlain(fields []string) (Instruction, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return Instruction{}, fmt.Errorf("%w: want direction, duration and optional power, got %d fields", ErrMalformed, len(fields))
	}
	power := ""
	if len(fields) == 3 {
		power = fields[2]
	}
	return build(fields[0], fields[1], power, len(fields) == 3)
}

func parseLabelled(fields []string) (Instruction, error) {
	values := make(map[string]string, 3)
	for _, f := range fields {
		label, value, ok := strings.Cut(f, ":")
		if !ok {
			return Instruction{}, fmt.Errorf("%w: field %q has no label", ErrMalformed, f)
		}
		switch label {
		case labelDirection, labelDuration, labelPower:
		default:
			return Instruction{}, fmt.Errorf("%w: unknown label %q", ErrMalformed, label)
		}
		if _, dup := values[label]; dup {
			return Instruction{}, fmt.Errorf("%w: label %q repeated", ErrMalformed, label)
		}
		values[label] = value
	}

	dir, okDir := values[labelDirection]
	dur, okDur := values[labelDuration]
	if !okDir || !okDur {
		return Instruction{}, fmt.Errorf("%w: direction and duration are required", ErrMalformed)
	}
	power, hasPower := values[labelPower]
	return build(dir, dur, power, hasPower)
}

func build(dirTok, durTok, powTok string, hasPower bool) (Instruction, error) {
	dir, err := ParseDirection(dirTok)
	if err != nil {
		return Instruction{}, err
	}

	secs, err := strconv.Atoi(durTok)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: duration %q", ErrMalformed, durTok)
	}
	if secs <= 0 || int64(secs) > maxSeconds {
		return Instruction{}, fmt.Errorf("%w: %d", ErrInvalidDuration, secs)
	}

	in := Instruction{Direction: dir, Duration: time.Duration(secs) * time.Second}
	if !hasPower {
		return in, nil
	}

	pw, err := strconv.Atoi(powTok)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: power %q", ErrMalformed, powTok)
	}
	if pw < -hardware.MaxPower || pw > hardware.MaxPower {
		return Instruction{}, fmt.Errorf("%w: %d", ErrInvalidPower, pw)
	}
	in.Power = &pw
	return in, nil
}

// Parse reads every line of r. Lines that do not parse are returned as
// skipped; blank lines are dropped silently. The error is non-nil only when
// reading fails.
func (p Parser) Parse(r io.Reader) ([]Instruction, []LineError, error) {
	var (
		prog    []Instruction
		skipped []LineError
	)

	br := bufio.NewReader(r)
	n := 0
	for {
		line, rerr := br.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return nil, nil, fmt.Errorf("read instructions: %w", rerr)
		}
		if line == "" && rerr == io.EOF {
			break
		}
		n++
		text := strings.TrimRight(line, "\r\n")

		if len(text) > MaxLineLength {
			skipped = append(skipped, LineError{
				Line: n,
				Text: text[:32] + "...",
				Err:  fmt.Errorf("%w: line longer than %d bytes", ErrMalformed, MaxLineLength),
			})
		} else if in, err := p.ParseLine(text); err == nil {
			in.Line = n
			prog = append(prog, in)
		} else if !errors.Is(err, ErrBlank) {
			skipped = append(skipped, LineError{Line: n, Text: text, Err: err})
		}

		if rerr == io.EOF {
			break
		}
	}
	return prog, skipped, nil
}
