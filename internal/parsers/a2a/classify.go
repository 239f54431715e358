package a2a

import (
	"regexp"
	"strings"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

type keyword[T any] struct {
	needle string
	value  T
}

// recordTypeKeywords is matched in order against the lower-cased source type.
var recordTypeKeywords = []keyword[domain.RecordType]{
	{"geboorte", domain.RecordBirth},
	{"birth", domain.RecordBirth},
	{"huwelijk", domain.RecordMarriage},
	{"marriage", domain.RecordMarriage},
	{"wedding", domain.RecordMarriage},
	{"overlij", domain.RecordDeath},
	{"death", domain.RecordDeath},
	{"echtscheiding", domain.RecordDivorce},
	{"divorce", domain.RecordDivorce},
	{"doop", domain.RecordBaptism},
	{"dopen", domain.RecordBaptism},
	{"baptism", domain.RecordBaptism},
	{"trouw", domain.RecordChurchMarriage},
	{"begra", domain.RecordBurial},
	{"burial", domain.RecordBurial},
	{"bevolking", domain.RecordPopulationRegister},
	{"population", domain.RecordPopulationRegister},
}

// setSpecTypes maps well-known OAI set names to record types.
var setSpecTypes = map[string]domain.RecordType{
	"bs_geboorte":      domain.RecordBirth,
	"bs_huwelijk":      domain.RecordMarriage,
	"bs_overlijden":    domain.RecordDeath,
	"bs_echtscheiding": domain.RecordDivorce,
	"dtb_dopen":        domain.RecordBaptism,
	"dtb_doop":         domain.RecordBaptism,
	"dtb_trouwen":      domain.RecordChurchMarriage,
	"dtb_trouw":        domain.RecordChurchMarriage,
	"dtb_begraven":     domain.RecordBurial,
	"dtb_begraaf":      domain.RecordBurial,
	"genealogie":       domain.RecordOther,
	"civil":            domain.RecordOther,
}

var setSpecCleanRe = regexp.MustCompile(`[^a-z_]`)

// relationRoles holds exact relation phrases, Dutch and English.
var relationRoles = map[string]domain.PersonRole{
	"vader":                   domain.RoleFather,
	"moeder":                  domain.RoleMother,
	"kind":                    domain.RoleChild,
	"bruidegom":               domain.RoleGroom,
	"bruid":                   domain.RoleBride,
	"overledene":              domain.RoleDeceased,
	"aangever":                domain.RoleDeclarant,
	"getuige":                 domain.RoleWitness,
	"geregistreerde":          domain.RoleRegistrant,
	"partner":                 domain.RolePartner,
	"echtgenoot":              domain.RolePartner,
	"echtgenote":              domain.RolePartner,
	"weduwe":                  domain.RolePartner,
	"weduwnaar":               domain.RolePartner,
	"vader van de bruidegom":  domain.RoleGroomFather,
	"moeder van de bruidegom": domain.RoleGroomMother,
	"vader bruidegom":         domain.RoleGroomFather,
	"moeder bruidegom":        domain.RoleGroomMother,
	"vader van de bruid":      domain.RoleBrideFather,
	"moeder van de bruid":     domain.RoleBrideMother,
	"vader bruid":             domain.RoleBrideFather,
	"moeder bruid":            domain.RoleBrideMother,
	"dopeling":                domain.RoleBaptized,
	"gedoopte":                domain.RoleBaptized,
	"peter":                   domain.RoleGodfather,
	"peetvader":               domain.RoleGodfather,
	"meter":                   domain.RoleGodmother,
	"peetmoeder":              domain.RoleGodmother,
	"doopgetuige":             domain.RoleWitness,
	"father":                  domain.RoleFather,
	"mother":                  domain.RoleMother,
	"child":                   domain.RoleChild,
	"groom":                   domain.RoleGroom,
	"bride":                   domain.RoleBride,
	"deceased":                domain.RoleDeceased,
	"witness":                 domain.RoleWitness,
	"registrant":              domain.RoleRegistrant,
}

// roleKeywords is matched in order after parent/spouse combinations.
var roleKeywords = []keyword[domain.PersonRole]{
	{"getuige", domain.RoleWitness},
	{"witness", domain.RoleWitness},
	{"echtgeno", domain.RolePartner},
	{"weduw", domain.RolePartner},
	{"partner", domain.RolePartner},
	{"spouse", domain.RolePartner},
	{"kind", domain.RoleChild},
	{"child", domain.RoleChild},
	{"overledene", domain.RoleDeceased},
	{"deceased", domain.RoleDeceased},
	{"geregistreerde", domain.RoleRegistrant},
	{"registrant", domain.RoleRegistrant},
	{"aangever", domain.RoleDeclarant},
	{"declarant", domain.RoleDeclarant},
	{"informant", domain.RoleDeclarant},
	{"dopeling", domain.RoleBaptized},
	{"gedoopte", domain.RoleBaptized},
}

// ClassifyRecordType maps a free-text source type to a record type.
// An exact match in overrides wins when it names a valid record type;
// otherwise the lower-cased input is matched against a keyword table.
func ClassifyRecordType(sourceType string, overrides map[string]string) domain.RecordType {
	if t, ok := overrideRecordType(sourceType, overrides); ok {
		return t
	}
	lower := strings.ToLower(strings.TrimSpace(sourceType))
	if lower == "" {
		return domain.RecordOther
	}
	for _, kw := range recordTypeKeywords {
		if strings.Contains(lower, kw.needle) {
			return kw.value
		}
	}
	return domain.RecordOther
}

// ClassifyFromSetSpec maps a conventional set name (e.g. "bs_geboorte")
// to a record type.
func ClassifyFromSetSpec(setSpec string) (domain.RecordType, bool) {
	key := setSpecCleanRe.ReplaceAllString(strings.ToLower(setSpec), "")
	t, ok := setSpecTypes[key]
	return t, ok
}

// MapPersonRole maps a free-text relation type to a person role.
// Overrides win, then exact phrases, then keywords. Parent keywords
// combined with groom or bride yield the in-law roles.
func MapPersonRole(relationType string, overrides map[string]string) domain.PersonRole {
	if r, ok := overrideRole(relationType, overrides); ok {
		return r
	}
	lower := strings.Join(strings.Fields(strings.ToLower(relationType)), " ")
	if lower == "" {
		return domain.RoleOther
	}
	if r, ok := relationRoles[lower]; ok {
		return r
	}

	father := strings.Contains(lower, "vader") || strings.Contains(lower, "father")
	mother := strings.Contains(lower, "moeder") || strings.Contains(lower, "mother")
	groom := strings.Contains(lower, "bruidegom") || strings.Contains(lower, "groom")
	bride := !groom && (strings.Contains(lower, "bruid") || strings.Contains(lower, "bride"))

	switch {
	case father && groom:
		return domain.RoleGroomFather
	case mother && groom:
		return domain.RoleGroomMother
	case father && bride:
		return domain.RoleBrideFather
	case mother && bride:
		return domain.RoleBrideMother
	case father:
		return domain.RoleFather
	case mother:
		return domain.RoleMother
	case groom:
		return domain.RoleGroom
	case bride:
		return domain.RoleBride
	}

	for _, kw := range roleKeywords {
		if strings.Contains(lower, kw.needle) {
			return kw.value
		}
	}
	return domain.RoleOther
}

// MainRole returns the role of a record's primary subject.
func MainRole(t domain.RecordType) domain.PersonRole {
	switch t {
	case domain.RecordBirth, domain.RecordBaptism:
		return domain.RoleChild
	case domain.RecordDeath, domain.RecordBurial:
		return domain.RoleDeceased
	case domain.RecordMarriage, domain.RecordChurchMarriage:
		return domain.RoleGroom
	case domain.RecordPopulationRegister:
		return domain.RoleRegistrant
	default:
		return domain.RoleOther
	}
}

func overrideRecordType(key string, overrides map[string]string) (domain.RecordType, bool) {
	v, ok := lookupOverride(key, overrides)
	if !ok {
		return "", false
	}
	t := domain.RecordType(strings.ToUpper(v))
	return t, t.IsValid()
}

func overrideRole(key string, overrides map[string]string) (domain.PersonRole, bool) {
	v, ok := lookupOverride(key, overrides)
	if !ok {
		return "", false
	}
	r := domain.PersonRole(strings.ToUpper(v))
	return r, r.IsValid()
}

func lookupOverride(key string, overrides map[string]string) (string, bool) {
	if len(overrides) == 0 || key == "" {
		return "", false
	}
	if v, ok := overrides[key]; ok {
		return v, true
	}
	v, ok := overrides[strings.TrimSpace(key)]
	return v, ok
}
