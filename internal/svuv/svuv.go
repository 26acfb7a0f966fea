// Package svuv parses the .svuv tabulated text format used to publish
// thermodynamic property datasets. A document opens with three header
// lines (column names, symbols, units), followed by numeric data rows.
// Lines starting with "!" are commands; "#" starts a comment; "~" names
// a column to discard. All magnitudes are converted to SI on load.
package svuv

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	ignoreColumn  = "~"
	commandPrefix = "!"
	commentPrefix = "#"

	// uncitedKey marks data rows that appear before any !cite command.
	uncitedKey = "UNKNOWN"
)

var (
	// numberPattern accepts optional sign, optional thousands commas in
	// the integer part, optional fraction and exponent. "1,234.5e-2" is
	// valid; "12,34" is not.
	numberPattern = regexp.MustCompile(`^[+-]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d*)?(?:[eE][+-]?\d+)?$`)

	// headerPattern constrains column names to lowercase snake case.
	headerPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ParseError reports a malformed line in a .svuv document.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// CommandError reports a malformed or misplaced "!" command.
type CommandError struct {
	File    string
	Line    int
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Command, e.Message)
}

// Document is a fully parsed .svuv file with all magnitudes in SI units.
// Rows are row-major and column-aligned with Columns; discarded "~"
// columns are absent.
type Document struct {
	Name          string
	Columns       []string
	Symbols       map[string]string
	Units         map[string]string
	Uncertainties map[string]float64
	Rows          [][]float64

	// Citations holds the citation key in effect for each row, parallel
	// to Rows. Rows preceding any !cite carry "UNKNOWN".
	Citations []string
}

// Parser reads .svuv documents. The zero value is not usable; construct
// with NewParser.
type Parser struct {
	logger *slog.Logger
}

// ParserOption adjusts a Parser.
type ParserOption func(*Parser)

// WithLogger routes parser warnings to the given logger.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) { p.logger = logger }
}

// NewParser returns a Parser with warnings discarded unless WithLogger
// is supplied.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile parses the .svuv document at path.
func (p *Parser) ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// Parse parses a .svuv document from r. name labels the source in errors.
func (p *Parser) Parse(r io.Reader, name string) (*Document, error) {
	st := &parseState{
		parser: p,
		name:   name,
		separators: map[rune]bool{
			' ':  true,
			'\t': true,
			'\r': true,
			'\v': true,
			'\f': true,
			' ':  true, // NBSP, common in copied table text
		},
		citation: uncitedKey,
		doc:      &Document{Name: name},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		st.line++
		if err := st.consume(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", name, err)
	}
	if err := st.finish(); err != nil {
		return nil, err
	}
	return st.doc, nil
}

// parsePhase tracks the three mandatory header lines and any line a
// command has claimed in advance.
type parsePhase int

const (
	phaseHeadings parsePhase = iota
	phaseSymbols
	phaseUnits
	phaseData
)

type parseState struct {
	parser     *Parser
	name       string
	line       int
	phase      parsePhase
	pending    string // command awaiting its argument line, "" if none
	separators map[rune]bool

	headings  []string          // raw header row, "~" entries preserved
	unitNames map[string]string // source unit per column, as last declared
	citation  string
	warned    bool // one uncited warning per document

	doc *Document
}

func (st *parseState) errorf(format string, args ...any) error {
	return &ParseError{File: st.name, Line: st.line, Message: fmt.Sprintf(format, args...)}
}

func (st *parseState) consume(raw string) error {
	line := norm.NFC.String(raw)
	if i := strings.Index(line, commentPrefix); i >= 0 {
		line = line[:i]
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}

	if st.pending != "" {
		cmd := st.pending
		st.pending = ""
		return st.consumeCommandLine(cmd, line)
	}
	if strings.HasPrefix(strings.TrimSpace(line), commandPrefix) {
		return st.consumeCommand(strings.Fields(line))
	}

	switch st.phase {
	case phaseHeadings:
		return st.setHeadings(st.split(line), true)
	case phaseSymbols:
		return st.setSymbols(st.split(line))
	case phaseUnits:
		return st.setUnits(st.split(line))
	default:
		return st.consumeRow(st.split(line))
	}
}

// split breaks a line on the active separator set, dropping empty fields.
func (st *parseState) split(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return st.separators[r] })
}

func (st *parseState) setHeadings(fields []string, initial bool) error {
	named := make(map[string]bool, len(fields))
	for _, h := range fields {
		if h == ignoreColumn {
			continue
		}
		if !headerPattern.MatchString(h) {
			return st.errorf("invalid column name %q", h)
		}
		if named[h] {
			return st.errorf("duplicate column %q", h)
		}
		named[h] = true
	}
	if !initial {
		// !set-heading may reorder or re-mark "~" columns but must name
		// the same set the document opened with.
		for _, h := range st.doc.Columns {
			if !named[h] {
				return st.errorf("!set-heading drops column %q", h)
			}
		}
		if len(named) != len(st.doc.Columns) {
			return st.errorf("!set-heading introduces new columns")
		}
		st.headings = fields
		return nil
	}

	st.headings = fields
	for _, h := range fields {
		if h != ignoreColumn {
			st.doc.Columns = append(st.doc.Columns, h)
		}
	}
	if len(st.doc.Columns) == 0 {
		return st.errorf("heading row names no columns")
	}
	st.phase = phaseSymbols
	return nil
}

func (st *parseState) setSymbols(fields []string) error {
	if len(fields) != len(st.headings) {
		return st.errorf("symbol row has %d fields, heading has %d", len(fields), len(st.headings))
	}
	st.doc.Symbols = make(map[string]string, len(st.doc.Columns))
	for i, h := range st.headings {
		if h == ignoreColumn {
			continue
		}
		st.doc.Symbols[h] = fields[i]
	}
	st.phase = phaseUnits
	return nil
}

func (st *parseState) setUnits(fields []string) error {
	if len(fields) != len(st.headings) {
		return st.errorf("unit row has %d fields, heading has %d", len(fields), len(st.headings))
	}
	units := make(map[string]string, len(st.doc.Columns))
	for i, h := range st.headings {
		if h == ignoreColumn {
			continue
		}
		u, ok := registry[fields[i]]
		if !ok {
			return &UnknownUnitError{File: st.name, Line: st.line, Unit: fields[i]}
		}
		units[h] = u.canonical
	}
	st.unitNames = unitFields(st.headings, fields)
	if st.doc.Units == nil {
		st.doc.Units = units
	} else {
		// !set-units may change source units mid-document but the SI
		// dimension of every column is fixed by the opening unit row.
		for h, canonical := range units {
			if st.doc.Units[h] != canonical {
				return st.errorf("column %q changes dimension from %s to %s", h, st.doc.Units[h], canonical)
			}
		}
	}
	if st.phase == phaseUnits {
		st.phase = phaseData
	}
	return nil
}

func (st *parseState) consumeCommand(fields []string) error {
	cmd := fields[0]
	cmdErr := func(format string, args ...any) error {
		return &CommandError{File: st.name, Line: st.line, Command: cmd, Message: fmt.Sprintf(format, args...)}
	}
	switch cmd {
	case "!cite":
		if len(fields) != 2 {
			return cmdErr("expected exactly one citation key")
		}
		st.citation = fields[1]
	case "!set-heading", "!set-units", "!set-uncertainty":
		if len(fields) != 1 {
			return cmdErr("takes no arguments; the next line is the argument")
		}
		if st.phase != phaseData {
			return cmdErr("not allowed before the three header rows")
		}
		st.pending = cmd
	case "!add-separator", "!ignore-separator":
		if len(fields) != 2 || utf8.RuneCountInString(fields[1]) != 1 {
			return cmdErr("expected a single separator character")
		}
		r, _ := utf8.DecodeRuneInString(fields[1])
		active := st.separators[r]
		if cmd == "!add-separator" {
			if active {
				st.parser.logger.Warn("separator already active",
					slog.String("file", st.name),
					slog.Int("line", st.line),
					slog.String("separator", fields[1]))
			}
			st.separators[r] = true
		} else {
			if !active {
				st.parser.logger.Warn("separator already inactive",
					slog.String("file", st.name),
					slog.Int("line", st.line),
					slog.String("separator", fields[1]))
			}
			delete(st.separators, r)
		}
	default:
		return cmdErr("unknown command")
	}
	return nil
}

func (st *parseState) consumeCommandLine(cmd, line string) error {
	fields := st.split(line)
	switch cmd {
	case "!set-heading":
		return st.setHeadings(fields, false)
	case "!set-units":
		return st.setUnits(fields)
	case "!set-uncertainty":
		return st.setUncertainty(fields)
	}
	return st.errorf("unreachable pending command %q", cmd)
}

func (st *parseState) setUncertainty(fields []string) error {
	if len(fields) != len(st.headings) {
		return st.errorf("uncertainty row has %d fields, heading has %d", len(fields), len(st.headings))
	}
	if st.doc.Uncertainties == nil {
		st.doc.Uncertainties = make(map[string]float64, len(st.doc.Columns))
	}
	for i, h := range st.headings {
		if h == ignoreColumn || fields[i] == ignoreColumn {
			continue
		}
		v, err := st.parseNumber(fields[i])
		if err != nil {
			return err
		}
		si, err := deltaToSI(v, st.unitNames[h], st.name, st.line)
		if err != nil {
			return err
		}
		st.doc.Uncertainties[h] = si
	}
	return nil
}

func (st *parseState) consumeRow(fields []string) error {
	if len(fields) != len(st.headings) {
		return st.errorf("row has %d fields, heading has %d", len(fields), len(st.headings))
	}
	values := make(map[string]float64, len(st.doc.Columns))
	for i, h := range st.headings {
		if h == ignoreColumn {
			continue
		}
		v, err := st.parseNumber(fields[i])
		if err != nil {
			return err
		}
		si, _, err := toSI(v, st.unitNames[h], st.name, st.line)
		if err != nil {
			return err
		}
		values[h] = si
	}
	// Rows stay aligned with the opening column order even after a
	// !set-heading reorder.
	row := make([]float64, len(st.doc.Columns))
	for i, h := range st.doc.Columns {
		row[i] = values[h]
	}
	if st.citation == uncitedKey && !st.warned {
		st.warned = true
		st.parser.logger.Warn("data rows precede any !cite command",
			slog.String("file", st.name),
			slog.Int("line", st.line))
	}
	st.doc.Rows = append(st.doc.Rows, row)
	st.doc.Citations = append(st.doc.Citations, st.citation)
	return nil
}

func (st *parseState) parseNumber(field string) (float64, error) {
	if !numberPattern.MatchString(field) {
		return 0, st.errorf("invalid number %q", field)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(field, ",", ""), 64)
	if err != nil {
		return 0, st.errorf("invalid number %q: %v", field, err)
	}
	return v, nil
}

func (st *parseState) finish() error {
	if st.pending != "" {
		return st.errorf("%s reached end of file without its argument line", st.pending)
	}
	if st.phase != phaseData {
		return st.errorf("document ends before the three header rows")
	}
	if len(st.doc.Rows) == 0 {
		return st.errorf("document has no data rows")
	}
	return nil
}

// unitFields maps each named column to the source unit string currently
// in effect, keyed off the heading row positions.
func unitFields(headings, fields []string) map[string]string {
	m := make(map[string]string, len(headings))
	for i, h := range headings {
		if h != ignoreColumn {
			m[h] = fields[i]
		}
	}
	return m
}
