package types

import (
	"fmt"
	"strings"
)

// Profile carries the user's dietary constraints and kitchen context.
// Workflows read it but never change it.
type Profile struct {
	Allergies  []string `json:"allergies"`
	Diets      []string `json:"diets"`
	SkillLevel string   `json:"skill_level"`
	Cuisines   []string `json:"cuisines"`
	Equipment  []string `json:"equipment"`
}

// IsEmpty reports whether no constraint is set
func (p Profile) IsEmpty() bool {
	return len(p.Allergies) == 0 && len(p.Diets) == 0 && p.SkillLevel == "" &&
		len(p.Cuisines) == 0 && len(p.Equipment) == 0
}

// String renders the profile for prompts
func (p Profile) String() string {
	if p.IsEmpty() {
		return "no stated preferences"
	}
	var parts []string
	add := func(label string, values []string) {
		if len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(values, ", ")))
		}
	}
	add("allergies", p.Allergies)
	add("diets", p.Diets)
	if p.SkillLevel != "" {
		parts = append(parts, "skill level: "+p.SkillLevel)
	}
	add("favorite cuisines", p.Cuisines)
	add("equipment", p.Equipment)
	return strings.Join(parts, "; ")
}
