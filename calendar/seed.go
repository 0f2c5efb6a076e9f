package calendar

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed holidays.yaml
var defaultRulesYAML []byte

// Rule describes a holiday that recurs every year or occurs once.
// Exactly one of Date, Fixed or EasterOffset must be set.
type Rule struct {
	Name         string `yaml:"name"`
	Date         string `yaml:"date,omitempty"`          // YYYY-MM-DD, one-off
	Fixed        string `yaml:"fixed,omitempty"`         // MM-DD, every year
	EasterOffset *int   `yaml:"easter_offset,omitempty"` // days relative to Easter Sunday
	Region       string `yaml:"region,omitempty"`
}

type ruleFile struct {
	Holidays []Rule `yaml:"holidays"`
}

// Rules is a parsed holiday seed file.
type Rules []Rule

// LoadRules parses a YAML holiday seed file.
func LoadRules(r io.Reader) (Rules, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode holiday rules: %w", err)
	}
	for i, rule := range f.Holidays {
		if err := rule.validate(); err != nil {
			return nil, fmt.Errorf("holiday rule %d: %w", i, err)
		}
	}
	return Rules(f.Holidays), nil
}

// DefaultRules returns the embedded holiday seed.
func DefaultRules() Rules {
	rules, err := LoadRules(bytes.NewReader(defaultRulesYAML))
	if err != nil {
		panic(err)
	}
	return rules
}

func (r Rule) validate() error {
	if len(r.Name) < 3 {
		return fmt.Errorf("name %q too short", r.Name)
	}
	set := 0
	if r.Date != "" {
		set++
		if _, err := ParseDate(r.Date); err != nil {
			return err
		}
	}
	if r.Fixed != "" {
		set++
		if _, err := time.Parse("01-02", r.Fixed); err != nil {
			return fmt.Errorf("fixed %q: %w", r.Fixed, err)
		}
	}
	if r.EasterOffset != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%s: exactly one of date, fixed, easter_offset required", r.Name)
	}
	return nil
}

// For expands the rules into active holidays of the given year, sorted by date.
func (rs Rules) For(year int) []Holiday {
	var out []Holiday
	for _, r := range rs {
		var d time.Time
		switch {
		case r.Date != "":
			d, _ = ParseDate(r.Date)
			if d.Year() != year {
				continue
			}
		case r.Fixed != "":
			md, _ := time.Parse("01-02", r.Fixed)
			d = Date(year, md.Month(), md.Day())
		default:
			d = Easter(year).AddDate(0, 0, *r.EasterOffset)
		}
		out = append(out, Holiday{Date: d, Name: r.Name, Region: r.Region, Active: true})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Easter returns Easter Sunday of the Gregorian year (anonymous Gregorian algorithm).
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date(year, time.Month(month), day)
}
