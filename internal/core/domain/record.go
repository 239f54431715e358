package domain

import "time"

// FallbackYear is used as the event year when no date can be recovered.
// Records stored under it carry PrecisionUnknown.
const FallbackYear = 1800

// RecordType is the canonical classification of a source record.
type RecordType string

// Record types. BS is the civil registry, DTB the church registers.
const (
	RecordBirth              RecordType = "BS_BIRTH"
	RecordMarriage           RecordType = "BS_MARRIAGE"
	RecordDeath              RecordType = "BS_DEATH"
	RecordDivorce            RecordType = "BS_DIVORCE"
	RecordBaptism            RecordType = "DTB_BAPTISM"
	RecordChurchMarriage     RecordType = "DTB_MARRIAGE"
	RecordBurial             RecordType = "DTB_BURIAL"
	RecordPopulationRegister RecordType = "POPULATION_REGISTER"
	RecordOther              RecordType = "OTHER"
)

// IsValid returns true if the record type is recognised.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordBirth, RecordMarriage, RecordDeath, RecordDivorce,
		RecordBaptism, RecordChurchMarriage, RecordBurial,
		RecordPopulationRegister, RecordOther:
		return true
	default:
		return false
	}
}

// PersonRole is the canonical role of a person within a record.
type PersonRole string

// Person roles.
const (
	RoleFather      PersonRole = "FATHER"
	RoleMother      PersonRole = "MOTHER"
	RoleChild       PersonRole = "CHILD"
	RoleGroom       PersonRole = "GROOM"
	RoleBride       PersonRole = "BRIDE"
	RoleWitness     PersonRole = "WITNESS"
	RoleDeceased    PersonRole = "DECEASED"
	RoleRegistrant  PersonRole = "REGISTRANT"
	RoleDeclarant   PersonRole = "DECLARANT"
	RolePartner     PersonRole = "PARTNER"
	RoleBaptized    PersonRole = "BAPTIZED"
	RoleGodfather   PersonRole = "GODFATHER"
	RoleGodmother   PersonRole = "GODMOTHER"
	RoleGroomFather PersonRole = "GROOM_FATHER"
	RoleGroomMother PersonRole = "GROOM_MOTHER"
	RoleBrideFather PersonRole = "BRIDE_FATHER"
	RoleBrideMother PersonRole = "BRIDE_MOTHER"
	RoleOther       PersonRole = "OTHER"
)

// IsValid returns true if the role is recognised.
func (r PersonRole) IsValid() bool {
	switch r {
	case RoleFather, RoleMother, RoleChild, RoleGroom, RoleBride, RoleWitness,
		RoleDeceased, RoleRegistrant, RoleDeclarant, RolePartner, RoleBaptized,
		RoleGodfather, RoleGodmother, RoleGroomFather, RoleGroomMother,
		RoleBrideFather, RoleBrideMother, RoleOther:
		return true
	default:
		return false
	}
}

// RecordKey identifies a stored record.
// The same external ID under a different year is a different record.
// TODO: add a dedup pass for external IDs stored under more than one year
// once re-parsing can change the extracted event year.
type RecordKey struct {
	ExternalID string
	EventYear  int
}

// ParsedRecord is the normalised output of one metadata payload.
type ParsedRecord struct {
	// ExternalID is the OAI identifier from the record header.
	ExternalID string

	// SourceCode is the owning source.
	SourceCode string

	// SetSpec is the set the record was harvested from.
	SetSpec string

	// RecordType is the canonical classification.
	RecordType RecordType

	// EventDate is the event date; Year is always set once the record is
	// ready for storage (see ApplyFallbackYear).
	EventDate ParsedDate

	// EventPlace is the place of the event, if known.
	EventPlace string

	// Persons is the ordered list of persons mentioned.
	Persons []ParsedPerson

	// RawData is the original metadata payload.
	RawData []byte
}

// Key returns the storage key of the record.
func (r *ParsedRecord) Key() RecordKey {
	return RecordKey{ExternalID: r.ExternalID, EventYear: r.EventDate.Year}
}

// ApplyFallbackYear sets the event year to FallbackYear when it is missing.
func (r *ParsedRecord) ApplyFallbackYear() {
	if r.EventDate.Year != 0 {
		return
	}
	r.EventDate.Year = FallbackYear
	r.EventDate.Month = 0
	r.EventDate.Day = 0
	r.EventDate.Precision = PrecisionUnknown
}

// ParsedPerson is one person extracted from a record.
// Persons are never stored without their owning record.
type ParsedPerson struct {
	Role       PersonRole
	GivenName  string
	Surname    string
	Patronym   string
	Prefix     string
	Age        *int
	Occupation string
	Residence  string
}

// BirthYear estimates the birth year from the age at the event.
// Returns 0 when the age is unknown.
func (p *ParsedPerson) BirthYear(eventYear int) int {
	if p.Age == nil || eventYear == 0 {
		return 0
	}
	return eventYear - *p.Age
}

// StoredRecord is the persisted projection of a ParsedRecord.
type StoredRecord struct {
	Key        RecordKey
	SourceCode string
	SetSpec    string
	RecordType RecordType
	EventDate  ParsedDate
	EventPlace string
	RawData    []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StoredPerson is the persisted projection of a ParsedPerson.
type StoredPerson struct {
	ID        int64
	RecordKey RecordKey
	Position  int
	BirthYear int
	ParsedPerson
}

// SourceStats summarises stored data for one source.
type SourceStats struct {
	SourceCode string
	Records    int
	Persons    int
}
