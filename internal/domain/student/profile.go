// Package student defines the persisted per-student profile: the skill map
// and spaced-repetition data, plus the diagnostic facets the platform keeps
// alongside them. The profile is one JSON document per student; components
// coordinate through it and the event bus only, never through shared
// in-memory references.
package student

import (
	"github.com/aprende-hub/mastery-engine/internal/domain/skill"
	"github.com/aprende-hub/mastery-engine/internal/domain/srs"
)

// Profile is the persisted record under profile:{studentId}.
type Profile struct {
	StudentID string `json:"studentId"`

	// Skills maps subject -> subtopic -> skill record.
	Skills map[string]map[string]skill.Record `json:"skills,omitempty"`

	// SrsData maps subject -> topic -> spaced-repetition entry.
	SrsData map[string]map[string]srs.Entry `json:"srsData,omitempty"`

	// Diagnostic facets, written by the diagnostics flow and read-only here.
	LearningStyle   string             `json:"learningStyle,omitempty"`
	Cognitive       map[string]float64 `json:"cognitive,omitempty"`
	PsychoEmotional map[string]float64 `json:"psychoEmotional,omitempty"`
}

// NewProfile returns an empty profile for a student.
func NewProfile(studentID string) *Profile {
	return &Profile{StudentID: studentID}
}

// Skill returns the record for a subtopic, falling back to the documented
// default when the subtopic was never seen. Records are created lazily: the
// default is not persisted until the first mutation.
func (p *Profile) Skill(subject, subtopic string) skill.Record {
	if recs, ok := p.Skills[subject]; ok {
		if rec, ok := recs[subtopic]; ok {
			return rec.Normalize()
		}
	}
	return skill.Default()
}

// SetSkill stores a skill record, creating the nested maps as needed.
func (p *Profile) SetSkill(subject, subtopic string, rec skill.Record) {
	if p.Skills == nil {
		p.Skills = make(map[string]map[string]skill.Record)
	}
	if p.Skills[subject] == nil {
		p.Skills[subject] = make(map[string]skill.Record)
	}
	p.Skills[subject][subtopic] = rec
}

// SrsEntry returns the spaced-repetition entry for a topic. The second
// return is false when the topic has no entry yet; the zero entry it returns
// is a valid starting point for the first graded exam.
func (p *Profile) SrsEntry(subject, topic string) (srs.Entry, bool) {
	if entries, ok := p.SrsData[subject]; ok {
		if entry, ok := entries[topic]; ok {
			return entry.Normalize(), true
		}
	}
	return srs.Entry{}, false
}

// SetSrsEntry stores a spaced-repetition entry, creating maps as needed.
func (p *Profile) SetSrsEntry(subject, topic string, entry srs.Entry) {
	if p.SrsData == nil {
		p.SrsData = make(map[string]map[string]srs.Entry)
	}
	if p.SrsData[subject] == nil {
		p.SrsData[subject] = make(map[string]srs.Entry)
	}
	p.SrsData[subject][topic] = entry
}

// EachSrsEntry calls fn for every (subject, topic, entry) in the profile.
func (p *Profile) EachSrsEntry(fn func(subject, topic string, entry srs.Entry)) {
	for subject, entries := range p.SrsData {
		for topic, entry := range entries {
			fn(subject, topic, entry.Normalize())
		}
	}
}
