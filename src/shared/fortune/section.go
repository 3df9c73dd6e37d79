package fortune

import "fmt"

// SectionKind names one aspect of fortune a slip can speak to.
type SectionKind uint8

const (
	FortuneDirection SectionKind = iota
	Desire
	PersonWaitedFor
	LostArticle
	Travel
	Business
	Study
	Dispute
	Love
	Illness
	// SectionOther is the catch-all for topics outside the named kinds.
	SectionOther
)

var sectionNames = map[SectionKind]string{
	FortuneDirection: "FortuneDirection",
	Desire:           "Desire",
	PersonWaitedFor:  "PersonWaitedFor",
	LostArticle:      "LostArticle",
	Travel:           "Travel",
	Business:         "Business",
	Study:            "Study",
	Dispute:          "Dispute",
	Love:             "Love",
	Illness:          "Illness",
	SectionOther:     "Other",
}

var sectionByName = make(map[string]SectionKind, len(sectionNames))

func init() {
	for k, name := range sectionNames {
		sectionByName[name] = k
	}
}

// SectionKinds returns every kind in display order.
func SectionKinds() []SectionKind {
	return []SectionKind{
		FortuneDirection, Desire, PersonWaitedFor, LostArticle, Travel,
		Business, Study, Dispute, Love, Illness, SectionOther,
	}
}

func (k SectionKind) String() string {
	if name, ok := sectionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SectionKind(%d)", uint8(k))
}

// ParseSectionKind maps a wire token back to its SectionKind. Unknown
// tokens are rejected rather than coerced to a default.
func ParseSectionKind(token string) (SectionKind, error) {
	if k, ok := sectionByName[token]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown omikuji section %q", token)
}

// MarshalText encodes the kind as its stable wire token.
func (k SectionKind) MarshalText() ([]byte, error) {
	name, ok := sectionNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot encode omikuji section %d", uint8(k))
	}
	return []byte(name), nil
}

func (k *SectionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSectionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
