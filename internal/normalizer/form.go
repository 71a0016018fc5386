package normalizer

import (
	"fmt"
	"strings"
)

// Form is a target normal form.
type Form int

const (
	FirstNF Form = iota + 1
	SecondNF
	ThirdNF
	BCNF
	FourthNF
	FifthNF
)

var formNames = map[Form]string{
	FirstNF:  "1NF",
	SecondNF: "2NF",
	ThirdNF:  "3NF",
	BCNF:     "BCNF",
	FourthNF: "4NF",
	FifthNF:  "5NF",
}

var formAliases = map[string]Form{
	"1": FirstNF, "1NF": FirstNF, "ONE": FirstNF,
	"2": SecondNF, "2NF": SecondNF, "TWO": SecondNF,
	"3": ThirdNF, "3NF": ThirdNF, "THREE": ThirdNF,
	"B": BCNF, "BC": BCNF, "BCNF": BCNF,
	"4": FourthNF, "4NF": FourthNF, "FOUR": FourthNF,
	"5": FifthNF, "5NF": FifthNF, "FIVE": FifthNF,
}

// Forms lists every supported form from weakest to strongest.
func Forms() []Form {
	return []Form{FirstNF, SecondNF, ThirdNF, BCNF, FourthNF, FifthNF}
}

// ParseForm accepts "1", "1nf", "one", ..., "b", "bcnf", ... case-insensitively.
func ParseForm(s string) (Form, error) {
	if f, ok := formAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown normal form %q (want one of 1, 2, 3, BCNF, 4, 5)", s)
}

func (f Form) String() string {
	if name, ok := formNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// Valid reports whether f is one of the supported forms.
func (f Form) Valid() bool {
	_, ok := formNames[f]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (f Form) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid normal form %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so forms decode from
// YAML and command line flags.
func (f *Form) UnmarshalText(text []byte) error {
	parsed, err := ParseForm(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
