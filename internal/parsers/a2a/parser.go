// Package a2a parses A2A genealogical metadata into domain records.
//
// A2A payloads arrive with bare element names or with a namespace prefix
// (usually "a2a:"). Every field lookup tries the bare name first and the
// prefixed name second.
package a2a

import (
	"fmt"
	"strings"

	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// DefaultNamespace is the element prefix used when a source configures none.
const DefaultNamespace = "a2a"

// placeholderNames are literal tokens archives use for an unknown name.
var placeholderNames = map[string]bool{"-": true, "?": true, "N.N.": true}

// Ensure Parser implements the interface.
var _ driven.RecordParser = (*Parser)(nil)

// Parser is the A2A RecordParser.
type Parser struct {
	typ string
	ns  string
	cfg domain.ParserConfig
}

// New creates a parser of the given type identifier.
// Overrides that map to unknown record types or roles are rejected.
func New(typ string, config map[string]any) (*Parser, error) {
	cfg := domain.DecodeParserConfig(config)
	for k, v := range cfg.RecordTypeMapping {
		if !domain.RecordType(strings.ToUpper(v)).IsValid() {
			return nil, fmt.Errorf("%w: recordTypeMapping %q -> %q", domain.ErrInvalidInput, k, v)
		}
	}
	for k, v := range cfg.PersonRoleMapping {
		if !domain.PersonRole(strings.ToUpper(v)).IsValid() {
			return nil, fmt.Errorf("%w: personRoleMapping %q -> %q", domain.ErrInvalidInput, k, v)
		}
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Parser{typ: typ, ns: ns, cfg: cfg}, nil
}

// Type returns the parser type identifier.
func (p *Parser) Type() string {
	return p.typ
}

// Parse converts one metadata payload into a ParsedRecord.
// The event year is left at zero when no date is found.
func (p *Parser) Parse(payload []byte, pc driven.ParseContext) (*domain.ParsedRecord, error) {
	root, err := ParseNode(payload)
	if err != nil {
		return nil, err
	}

	a2a := root.Find(p.names("A2A")...)
	if a2a == nil {
		a2a = root
	}
	source := a2a.Child(p.names("Source")...)
	if source == nil {
		return nil, nil
	}

	rec := &domain.ParsedRecord{
		ExternalID: pc.ExternalID,
		SourceCode: pc.SourceCode,
		SetSpec:    pc.SetSpec,
		EventDate:  p.eventDate(a2a),
		EventPlace: p.eventPlace(a2a),
		RawData:    append([]byte(nil), payload...),
	}
	if rec.ExternalID == "" {
		rec.ExternalID = p.text(source, "RecordGUID")
	}
	rec.RecordType = p.recordType(a2a, pc.SetSpec)
	rec.Persons = p.persons(a2a, rec.RecordType)
	return rec, nil
}

// names returns the alias list for one element, bare name first.
func (p *Parser) names(local string) []string {
	return []string{local, p.ns + ":" + local}
}

// lookup walks path from n, trying every alias combination in priority
// order, and returns the first node with content.
func (p *Parser) lookup(n *Node, path ...string) *Node {
	if n == nil {
		return nil
	}
	if len(path) == 0 {
		return n
	}
	var first *Node
	for _, alias := range p.names(path[0]) {
		for _, c := range n.Children {
			if c.Name != alias {
				continue
			}
			found := p.lookup(c, path[1:]...)
			if found == nil {
				continue
			}
			if found.Text() != "" || len(found.Children) > 0 {
				return found
			}
			if first == nil {
				first = found
			}
		}
	}
	return first
}

// text returns the trimmed text at path, or "".
func (p *Parser) text(n *Node, path ...string) string {
	return p.lookup(n, path...).Text()
}

func (p *Parser) recordType(a2a *Node, setSpec string) domain.RecordType {
	sourceType := p.text(a2a, "Source", "SourceType")
	if sourceType == "" {
		sourceType = p.text(a2a, "Event", "EventType")
	}
	if t, ok := overrideRecordType(sourceType, p.cfg.RecordTypeMapping); ok {
		return t
	}
	if t := ClassifyRecordType(sourceType, nil); t != domain.RecordOther {
		return t
	}
	if t, ok := ClassifyFromSetSpec(setSpec); ok {
		return t
	}
	return domain.RecordOther
}

// eventDate tries the source date, then the event date, then the start
// of the source index date range.
func (p *Parser) eventDate(a2a *Node) domain.ParsedDate {
	var fallback domain.ParsedDate
	candidates := []domain.ParsedDate{
		p.dateField(p.lookup(a2a, "Source", "SourceDate")),
		p.dateField(p.lookup(a2a, "Event", "EventDate")),
		NormalizeDate(p.text(a2a, "Source", "SourceIndexDate", "From")),
	}
	for _, d := range candidates {
		if d.Known() {
			return d
		}
		if fallback.Original == "" {
			fallback.Original = d.Original
		}
	}
	fallback.Precision = domain.PrecisionUnknown
	return fallback
}

// dateField reads a date element holding either a Date child, separate
// Year/Month/Day children, or free text.
func (p *Parser) dateField(n *Node) domain.ParsedDate {
	if n == nil {
		return domain.ParsedDate{Precision: domain.PrecisionUnknown}
	}
	if s := p.text(n, "Date"); s != "" {
		if d := NormalizeDate(s); d.Known() {
			return d
		}
	}
	if y := p.text(n, "Year"); y != "" {
		return NormalizeDateParts(y, p.text(n, "Month"), p.text(n, "Day"))
	}
	return NormalizeDate(n.Text())
}

func (p *Parser) eventPlace(a2a *Node) string {
	paths := [][]string{
		{"Source", "SourcePlace", "Place"},
		{"Event", "EventPlace", "Place"},
		{"Event", "EventPlace"},
		{"Source", "SourceReference", "Place"},
	}
	for _, path := range paths {
		if s := cleanText(p.text(a2a, path...)); s != "" {
			return s
		}
	}
	return ""
}

// persons extracts persons in document order.
//
// With keyed relations (RelationEP) every relation whose PersonKeyRef
// resolves to a Person pid yields one person with the relation's role, so
// a person referenced twice appears twice. Persons no relation references
// are dropped, and so are references to unknown pids. Without keyed
// relations, direct Persons take the main role and inline Relation/Person
// pairs follow.
func (p *Parser) persons(a2a *Node, recordType domain.RecordType) []domain.ParsedPerson {
	direct := a2a.All(p.names("Person")...)
	if keyed := a2a.All(p.names("RelationEP")...); len(keyed) > 0 {
		return p.keyedPersons(direct, keyed)
	}

	var out []domain.ParsedPerson
	mainRole := MainRole(recordType)
	for _, n := range direct {
		if person, ok := p.person(n); ok {
			person.Role = mainRole
			out = append(out, person)
		}
	}
	for _, rel := range a2a.All(p.names("Relation")...) {
		person, ok := p.person(rel.Child(p.names("Person")...))
		if !ok {
			continue
		}
		person.Role = MapPersonRole(p.text(rel, "RelationType"), p.cfg.PersonRoleMapping)
		out = append(out, person)
	}
	return out
}

// keyedPersons resolves RelationEP entries against Person pids in
// relation order.
func (p *Parser) keyedPersons(direct, keyed []*Node) []domain.ParsedPerson {
	byKey := make(map[string]*Node, len(direct))
	for _, n := range direct {
		key := n.Attr("pid", p.ns+":pid")
		if _, dup := byKey[key]; key != "" && !dup {
			byKey[key] = n
		}
	}

	var out []domain.ParsedPerson
	for _, rel := range keyed {
		n, ok := byKey[p.text(rel, "PersonKeyRef")]
		if !ok {
			continue
		}
		person, ok := p.person(n)
		if !ok {
			continue
		}
		person.Role = MapPersonRole(p.text(rel, "RelationType"), p.cfg.PersonRoleMapping)
		out = append(out, person)
	}
	return out
}

// person reads one Person element. Persons without any usable name are
// dropped.
func (p *Parser) person(n *Node) (domain.ParsedPerson, bool) {
	if n == nil {
		return domain.ParsedPerson{}, false
	}
	name := p.lookup(n, "PersonName")
	person := domain.ParsedPerson{
		Role:       domain.RoleOther,
		GivenName:  cleanName(p.text(name, "PersonNameFirstName")),
		Surname:    cleanName(p.text(name, "PersonNameLastName")),
		Patronym:   cleanName(p.text(name, "PersonNamePatronym")),
		Prefix:     cleanName(p.text(name, "PersonNamePrefixLastName")),
		Occupation: cleanText(firstNonEmpty(p.text(n, "Occupation"), p.text(n, "Profession"))),
		Residence:  cleanText(firstNonEmpty(p.text(n, "Residence", "Place"), p.text(n, "Residence"))),
	}

	if person.GivenName == "" && person.Surname == "" && person.Patronym == "" {
		literal := cleanName(p.text(name, "PersonNameLiteral"))
		if literal == "" {
			return domain.ParsedPerson{}, false
		}
		person.GivenName, person.Surname = splitLiteral(literal)
	}

	age := firstNonEmpty(p.text(n, "Age", "PersonAgeLiteral"), p.text(n, "Age", "PersonAgeYears"), p.text(n, "Age"))
	person.Age = parseAge(age)
	return person, true
}

// splitLiteral splits "Jan de Vries" into "Jan" and "de Vries".
func splitLiteral(literal string) (given, surname string) {
	given, surname, _ = strings.Cut(literal, " ")
	return given, surname
}

// cleanName collapses whitespace and drops placeholder tokens.
func cleanName(s string) string {
	s = cleanText(s)
	if placeholderNames[s] {
		return ""
	}
	return s
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
