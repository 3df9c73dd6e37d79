package fortune

import "fmt"

// Class is the overall grade of an omikuji slip, from best to worst.
type Class uint8

const (
	// ClassUnset marks a draft whose author has not picked a grade yet.
	// It never appears in a committed slip.
	ClassUnset Class = iota
	GreatBlessing
	MiddleBlessing
	SmallBlessing
	Blessing
	HalfBlessing
	FutureBlessing
	FutureSmallBlessing
	Curse
	SmallCurse
	HalfCurse
	FutureCurse
	GreatCurse
)

var classNames = map[Class]string{
	GreatBlessing:       "GreatBlessing",
	MiddleBlessing:      "MiddleBlessing",
	SmallBlessing:       "SmallBlessing",
	Blessing:            "Blessing",
	HalfBlessing:        "HalfBlessing",
	FutureBlessing:      "FutureBlessing",
	FutureSmallBlessing: "FutureSmallBlessing",
	Curse:               "Curse",
	SmallCurse:          "SmallCurse",
	HalfCurse:           "HalfCurse",
	FutureCurse:         "FutureCurse",
	GreatCurse:          "GreatCurse",
}

var classByName = make(map[string]Class, len(classNames))

func init() {
	for c, name := range classNames {
		classByName[name] = c
	}
}

// Classes returns every grade in display order, best first.
func Classes() []Class {
	return []Class{
		GreatBlessing, MiddleBlessing, SmallBlessing, Blessing,
		HalfBlessing, FutureBlessing, FutureSmallBlessing,
		Curse, SmallCurse, HalfCurse, FutureCurse, GreatCurse,
	}
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// ParseClass maps a wire token back to its Class. Unknown tokens are
// rejected rather than coerced to a default.
func ParseClass(token string) (Class, error) {
	if c, ok := classByName[token]; ok {
		return c, nil
	}
	return ClassUnset, fmt.Errorf("unknown omikuji class %q", token)
}

// MarshalText encodes the class as its stable wire token.
func (c Class) MarshalText() ([]byte, error) {
	name, ok := classNames[c]
	if !ok {
		return nil, fmt.Errorf("cannot encode omikuji class %d", uint8(c))
	}
	return []byte(name), nil
}

func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
