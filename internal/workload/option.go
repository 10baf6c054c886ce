package workload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

var (
	// ErrMalformedOptionKey reports a key without subject, division and kind parts.
	ErrMalformedOptionKey = errors.New("malformed option key")
	// ErrDuplicateOption reports a key chosen twice in one faculty member's lists.
	ErrDuplicateOption = errors.New("option already chosen by this faculty member")
	// ErrSlotIndex reports a priority slot outside the list capacity.
	ErrSlotIndex = errors.New("priority slot out of range")
	// ErrKindMismatch reports a theory key placed in a lab list or the reverse.
	ErrKindMismatch = errors.New("option kind does not match list")
)

const keySeparator = "::"

// Kind is the workload pool an option belongs to.
type Kind string

const (
	KindTheory Kind = "THEORY"
	KindLab    Kind = "LAB"
)

// Capacity is the number of priority slots each faculty member has per pool.
func (k Kind) Capacity() int {
	if k == KindLab {
		return 3
	}
	return 5
}

// ParseKind accepts any casing of a pool name.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(raw))); k {
	case KindTheory, KindLab:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedOptionKey, raw)
	}
}

// OptionKey identifies one assignable (subject, division, pool) triple.
// The zero key is an empty priority slot.
type OptionKey struct {
	Subject  string
	Division string
	Kind     Kind
}

// IsZero reports whether the key is an empty slot.
func (k OptionKey) IsZero() bool {
	return k == OptionKey{}
}

// String encodes the key as "Subject::Division::KIND".
func (k OptionKey) String() string {
	if k.IsZero() {
		return ""
	}
	return k.Subject + keySeparator + k.Division + keySeparator + string(k.Kind)
}

// ParseOptionKey decodes "Subject::Division::KIND". The subject may itself
// contain "::"; the last two parts are always division and kind.
func ParseOptionKey(raw string) (OptionKey, error) {
	parts := strings.Split(raw, keySeparator)
	if len(parts) < 3 {
		return OptionKey{}, fmt.Errorf("%w: %q", ErrMalformedOptionKey, raw)
	}
	kind, err := ParseKind(parts[len(parts)-1])
	if err != nil {
		return OptionKey{}, err
	}
	key := OptionKey{
		Subject:  strings.Join(parts[:len(parts)-2], keySeparator),
		Division: parts[len(parts)-2],
		Kind:     kind,
	}
	if key.Subject == "" || key.Division == "" {
		return OptionKey{}, fmt.Errorf("%w: %q", ErrMalformedOptionKey, raw)
	}
	return key, nil
}

// MarshalText implements encoding.TextMarshaler.
func (k OptionKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text and the UI's
// "unassigned_placeholder" decode to the zero key.
func (k *OptionKey) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" || raw == unassignedPlaceholder {
		*k = OptionKey{}
		return nil
	}
	parsed, err := ParseOptionKey(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

const unassignedPlaceholder = "unassigned_placeholder"

// Option is one assignable unit offered to faculty.
type Option struct {
	Key   OptionKey `json:"value"`
	Label string    `json:"label"`
	Load  int       `json:"load"`
}

const defaultBatchCount = 3

// BuildOptions expands the selected classes into per-division theory options
// and per-batch lab options.
func BuildOptions(classes []models.ClassConfig, curriculum models.Curriculum) (theory, lab []Option) {
	for _, cls := range classes {
		if !cls.Selected {
			continue
		}
		for _, div := range Divisions(cls) {
			for _, sub := range curriculum.TheorySubjects {
				if sub.Year != cls.Name {
					continue
				}
				theory = append(theory, Option{
					Key:   OptionKey{Subject: sub.Name, Division: div, Kind: KindTheory},
					Label: fmt.Sprintf("%s (%s)", sub.Name, div),
					Load:  sub.WeeklyLoad,
				})
			}
			for _, sub := range curriculum.LabSubjects {
				if sub.Year != cls.Name {
					continue
				}
				batches := sub.BatchCount
				if batches <= 0 {
					batches = defaultBatchCount
				}
				for b := 1; b <= batches; b++ {
					batchDiv := fmt.Sprintf("%s%d", div, b)
					lab = append(lab, Option{
						Key:   OptionKey{Subject: sub.Name, Division: batchDiv, Kind: KindLab},
						Label: fmt.Sprintf("%s (%s)", sub.Name, batchDiv),
						Load:  sub.LabsPerWeek * 2,
					})
				}
			}
		}
	}
	return theory, lab
}

// Divisions names the divisions of a class: "SE-A", "SE-B", ...
func Divisions(cls models.ClassConfig) []string {
	divs := make([]string, 0, cls.Divisions)
	for i := 0; i < cls.Divisions; i++ {
		divs = append(divs, fmt.Sprintf("%s-%c", cls.Name, 'A'+i))
	}
	return divs
}
