// Package model implements the randomization of model descriptions.
// A DescriptionRandomizer holds a model description and a list of
// Randomizations, each of which perturbs the numeric fields matched by
// a selector. Sampling applies all randomizations to the original
// values of the fields and returns the randomized description.
//
// Selectors have the form
//
//	links/<name>/mass
//	links/<name>/size/<0|1>
//	links/<name>/offset/<0|1>
//
// where <name> is the name of a link or * to match all links.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samuelfneumann/simgym/scenario"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoMatch is returned when a selector matches no field of a model
// description
var ErrNoMatch = errors.New("selector matches no field")

// MinPositive is the smallest value a randomization that forces
// positive values produces. Descriptions require strictly positive
// masses and sizes.
const MinPositive = 1e-3

// Method determines how a sampled value is combined with the original
// value of a field
type Method int

const (
	// Absolute replaces the original value with the sample
	Absolute Method = iota

	// Additive adds the sample to the original value
	Additive

	// Coefficient multiplies the original value by the sample
	Coefficient
)

func (m Method) String() string {
	switch m {
	case Absolute:
		return "Absolute"
	case Additive:
		return "Additive"
	case Coefficient:
		return "Coefficient"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (m *Method) UnmarshalText(text []byte) error {
	for _, method := range []Method{Absolute, Additive, Coefficient} {
		if strings.EqualFold(string(text), method.String()) {
			*m = method
			return nil
		}
	}
	return fmt.Errorf("unmarshalText: unknown method %q", text)
}

// apply combines sample with the original value
func (m Method) apply(original, sample float64) (float64, error) {
	switch m {
	case Absolute:
		return sample, nil
	case Additive:
		return original + sample, nil
	case Coefficient:
		return original * sample, nil
	}
	return 0, fmt.Errorf("apply: unknown method %v", m)
}

// Distribution is a distribution of scalar samples
type Distribution interface {
	Sample(src rand.Source) float64
	Validate() error
}

// Uniform is the uniform distribution over [Low, High)
type Uniform struct {
	Low, High float64
}

// Sample draws a sample from the distribution
func (u Uniform) Sample(src rand.Source) float64 {
	if u.Low == u.High {
		return u.Low
	}
	return distuv.Uniform{Min: u.Low, Max: u.High, Src: src}.Rand()
}

// Validate returns an error if the distribution is malformed
func (u Uniform) Validate() error {
	if u.Low > u.High || math.IsNaN(u.Low) || math.IsNaN(u.High) {
		return fmt.Errorf("validate: uniform bounds must satisfy low <= high, "+
			"got [%v, %v]", u.Low, u.High)
	}
	return nil
}

// Gaussian is the normal distribution N(Mean, StdDev²)
type Gaussian struct {
	Mean, StdDev float64
}

// Sample draws a sample from the distribution
func (g Gaussian) Sample(src rand.Source) float64 {
	if g.StdDev == 0 {
		return g.Mean
	}
	return distuv.Normal{Mu: g.Mean, Sigma: g.StdDev, Src: src}.Rand()
}

// Validate returns an error if the distribution is malformed
func (g Gaussian) Validate() error {
	if g.StdDev < 0 || math.IsNaN(g.StdDev) || math.IsNaN(g.Mean) {
		return fmt.Errorf("validate: gaussian standard deviation must be "+
			"non-negative, got %v", g.StdDev)
	}
	return nil
}

// Randomization perturbs the fields of a model description matched by
// Selector
type Randomization struct {
	Selector     string
	Distribution Distribution
	Method       Method

	// IgnoreZeros skips matched fields whose original value is zero
	IgnoreZeros bool

	// ForcePositive keeps randomized values at or above MinPositive
	ForcePositive bool
}

// field identifies a numeric field of a link description
type field struct {
	link  int
	kind  string
	index int
}

func (f field) get(desc *scenario.ModelDescription) float64 {
	link := &desc.Links[f.link]
	switch f.kind {
	case "mass":
		return link.Mass
	case "size":
		return link.Size[f.index]
	default:
		return link.Offset[f.index]
	}
}

func (f field) set(desc *scenario.ModelDescription, value float64) {
	link := &desc.Links[f.link]
	switch f.kind {
	case "mass":
		link.Mass = value
	case "size":
		link.Size[f.index] = value
	default:
		link.Offset[f.index] = value
	}
}

// activeRandomization is a Randomization expanded to a single field
type activeRandomization struct {
	Randomization
	field    field
	original float64
}

// DescriptionRandomizer samples randomized model descriptions
type DescriptionRandomizer struct {
	original scenario.ModelDescription
	pending  []Randomization
	active   []activeRandomization
	src      rand.Source
}

// NewDescriptionRandomizer returns a new DescriptionRandomizer for desc
// with no randomizations. The randomizer is seeded with seed.
func NewDescriptionRandomizer(desc scenario.ModelDescription,
	seed uint64) *DescriptionRandomizer {
	return &DescriptionRandomizer{
		original: desc.Clone(),
		src:      rand.NewSource(seed),
	}
}

// Seed seeds the randomizer
func (d *DescriptionRandomizer) Seed(seed uint64) {
	d.src = rand.NewSource(seed)
}

// SetRandomState sets the source of randomness used for sampling. The
// source is shared, not copied.
func (d *DescriptionRandomizer) SetRandomState(src rand.Source) {
	d.src = src
}

// Find returns the number of fields matched by selector
func (d *DescriptionRandomizer) Find(selector string) (int, error) {
	fields, err := d.resolve(selector)
	if err != nil {
		return 0, fmt.Errorf("find: %w", err)
	}
	return len(fields), nil
}

// Add adds a randomization. An error is returned if the randomization
// is malformed or if its selector matches no field.
func (d *DescriptionRandomizer) Add(r Randomization) error {
	if r.Distribution == nil {
		return fmt.Errorf("add: randomization of %q has no distribution",
			r.Selector)
	}
	if err := r.Distribution.Validate(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := r.Method.apply(0, 0); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := d.resolve(r.Selector); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	d.pending = append(d.pending, r)
	return nil
}

// Process expands all added randomizations into one randomization per
// matched field and records the original values of the fields
func (d *DescriptionRandomizer) Process() error {
	for _, r := range d.pending {
		fields, err := d.resolve(r.Selector)
		if err != nil {
			return fmt.Errorf("process: %w", err)
		}

		for _, f := range fields {
			original := f.get(&d.original)
			if r.IgnoreZeros && original == 0 {
				continue
			}
			d.active = append(d.active, activeRandomization{
				Randomization: r,
				field:         f,
				original:      original,
			})
		}
	}
	d.pending = nil
	return nil
}

// Active returns the number of fields randomized by each sample
func (d *DescriptionRandomizer) Active() int {
	return len(d.active)
}

// Sample returns a new randomized description. Randomizations added
// since the last call to Process are processed first.
func (d *DescriptionRandomizer) Sample() (scenario.ModelDescription, error) {
	if len(d.pending) > 0 {
		if err := d.Process(); err != nil {
			return scenario.ModelDescription{}, fmt.Errorf("sample: %w", err)
		}
	}

	desc := d.original.Clone()
	for _, r := range d.active {
		value, err := r.Method.apply(r.original, r.Distribution.Sample(d.src))
		if err != nil {
			return scenario.ModelDescription{}, fmt.Errorf("sample: %w", err)
		}
		if r.ForcePositive {
			value = math.Max(value, MinPositive)
		}
		r.field.set(&desc, value)
	}

	if err := desc.Validate(); err != nil {
		return scenario.ModelDescription{}, fmt.Errorf("sample: %w", err)
	}
	return desc, nil
}

// Clean removes all randomizations
func (d *DescriptionRandomizer) Clean() {
	d.pending = nil
	d.active = nil
}

// resolve returns the fields of the original description matched by
// selector
func (d *DescriptionRandomizer) resolve(selector string) ([]field, error) {
	parts := strings.Split(selector, "/")
	if len(parts) < 3 || parts[0] != "links" {
		return nil, fmt.Errorf("resolve: malformed selector %q", selector)
	}

	kind := parts[2]
	index := 0
	switch {
	case kind == "mass" && len(parts) == 3:
	case (kind == "size" || kind == "offset") && len(parts) == 4:
		var err error
		index, err = strconv.Atoi(parts[3])
		if err != nil || index < 0 || index > 1 {
			return nil, fmt.Errorf("resolve: index of selector %q must be "+
				"0 or 1", selector)
		}
	default:
		return nil, fmt.Errorf("resolve: malformed selector %q", selector)
	}

	var fields []field
	for i, link := range d.original.Links {
		if parts[1] == "*" || parts[1] == link.Name {
			fields = append(fields, field{link: i, kind: kind, index: index})
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("resolve: %w: %q", ErrNoMatch, selector)
	}
	return fields, nil
}
