package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/kheap/internal/format"
)

// Size is a byte count or address. In YAML it may be written as a decimal or
// 0x-prefixed integer, optionally followed by a KiB, MiB or GiB suffix.
type Size uint64

var suffixes = []struct {
	name string
	mult uint64
}{
	{"GiB", format.GiB},
	{"MiB", format.MiB},
	{"KiB", format.KiB},
}

// ParseSize parses s as a Size.
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	mult := uint64(1)
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.name) {
			s = strings.TrimSpace(strings.TrimSuffix(s, sfx.name))
			mult = sfx.mult
			break
		}
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "config: size %q", s)
	}
	if n > math.MaxUint64/mult {
		return 0, errors.Errorf("config: size %q overflows", s)
	}
	return Size(n * mult), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("config: line %d: size must be a scalar", node.Line)
	}
	v, err := ParseSize(node.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	*s = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Size) MarshalYAML() (any, error) {
	return s.String(), nil
}

// String formats s with the largest suffix that divides it exactly.
func (s Size) String() string {
	if s == 0 {
		return "0"
	}
	for _, sfx := range suffixes {
		if uint64(s)%sfx.mult == 0 {
			return fmt.Sprintf("%d%s", uint64(s)/sfx.mult, sfx.name)
		}
	}
	return strconv.FormatUint(uint64(s), 10)
}
