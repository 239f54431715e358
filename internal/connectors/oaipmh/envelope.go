package oaipmh

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/activemonkeys/geneax/internal/core/ports/driven"
)

// envelope is the OAI-PMH root element. Element names match on local
// name only, so the OAI namespace need not be declared.
type envelope struct {
	XMLName      xml.Name          `xml:"OAI-PMH"`
	ResponseDate string            `xml:"responseDate"`
	Errors       []oaiError        `xml:"error"`
	Identify     *identifyPayload  `xml:"Identify"`
	ListSets     *listSetsPayload  `xml:"ListSets"`
	ListRecords  *listRecordsBody  `xml:"ListRecords"`
	GetRecord    *getRecordPayload `xml:"GetRecord"`
}

type oaiError struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type identifyPayload struct {
	RepositoryName    string `xml:"repositoryName"`
	BaseURL           string `xml:"baseURL"`
	ProtocolVersion   string `xml:"protocolVersion"`
	AdminEmail        string `xml:"adminEmail"`
	EarliestDatestamp string `xml:"earliestDatestamp"`
	DeletedRecord     string `xml:"deletedRecord"`
	Granularity       string `xml:"granularity"`
}

type listSetsPayload struct {
	Sets            []setXML  `xml:"set"`
	ResumptionToken *tokenXML `xml:"resumptionToken"`
}

type setXML struct {
	Spec string `xml:"setSpec"`
	Name string `xml:"setName"`
}

type listRecordsBody struct {
	Records         []recordXML `xml:"record"`
	ResumptionToken *tokenXML   `xml:"resumptionToken"`
}

type getRecordPayload struct {
	Record recordXML `xml:"record"`
}

type recordXML struct {
	Header   headerXML   `xml:"header"`
	Metadata metadataXML `xml:"metadata"`
}

type headerXML struct {
	Status     string   `xml:"status,attr"`
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpecs   []string `xml:"setSpec"`
}

type metadataXML struct {
	Inner []byte `xml:",innerxml"`
}

type tokenXML struct {
	Value            string `xml:",chardata"`
	CompleteListSize string `xml:"completeListSize,attr"`
	Cursor           string `xml:"cursor,attr"`
}

// Decoder parses stored ListRecords pages.
type Decoder struct{}

// Ensure Decoder implements the interface.
var _ driven.BatchDecoder = Decoder{}

// DecodeBatch parses a ListRecords response body.
func (Decoder) DecodeBatch(raw []byte) (*driven.ListRecordsResult, error) {
	return DecodeListRecords(raw)
}

// DecodeListRecords parses a ListRecords response body.
// A noRecordsMatch error yields an empty result and no error.
func DecodeListRecords(raw []byte) (*driven.ListRecordsResult, error) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	result := &driven.ListRecordsResult{CompleteListSize: -1, Cursor: -1, Raw: raw}
	if len(env.Errors) > 0 {
		if env.hasError(CodeNoRecordsMatch) {
			return result, nil
		}
		return nil, env.firstError()
	}
	if env.ListRecords == nil {
		return nil, &ProtocolError{Code: CodeBadResponseBody, Message: "no ListRecords in response"}
	}

	result.Records = make([]driven.OAIRecord, 0, len(env.ListRecords.Records))
	for _, r := range env.ListRecords.Records {
		result.Records = append(result.Records, r.toRecord())
	}
	if tok := env.ListRecords.ResumptionToken; tok != nil {
		result.ResumptionToken = strings.TrimSpace(tok.Value)
		result.CompleteListSize = atoiOr(tok.CompleteListSize, -1)
		result.Cursor = atoiOr(tok.Cursor, -1)
	}
	return result, nil
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, &ProtocolError{Code: CodeBadResponseBody, Message: "invalid OAI-PMH response: " + err.Error()}
	}
	return &env, nil
}

func (e *envelope) hasError(code string) bool {
	for _, oe := range e.Errors {
		if oe.Code == code {
			return true
		}
	}
	return false
}

func (e *envelope) firstError() error {
	oe := e.Errors[0]
	code := oe.Code
	if code == "" {
		code = "unknown"
	}
	msg := strings.TrimSpace(oe.Message)
	if msg == "" {
		msg = "Unknown error"
	}
	return &ProtocolError{Code: code, Message: msg}
}

func (e *envelope) responseDate() time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.ResponseDate))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r recordXML) toRecord() driven.OAIRecord {
	rec := driven.OAIRecord{
		Identifier: strings.TrimSpace(r.Header.Identifier),
		Datestamp:  strings.TrimSpace(r.Header.Datestamp),
		Deleted:    strings.EqualFold(strings.TrimSpace(r.Header.Status), "deleted"),
	}
	for _, s := range r.Header.SetSpecs {
		if s = strings.TrimSpace(s); s != "" {
			rec.SetSpecs = append(rec.SetSpecs, s)
		}
	}
	if inner := bytes.TrimSpace(r.Metadata.Inner); len(inner) > 0 {
		rec.Metadata = append([]byte(nil), inner...)
	}
	return rec
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
