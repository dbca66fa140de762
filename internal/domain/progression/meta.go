package progression

// AntiGrindCapPerCategory limits how many same-category achievements count
// toward any meta-achievement requirement. Without it a student could unlock
// every meta-achievement by repeatedly earning low-effort achievements in a
// single category; the cap forces breadth across categories as a proxy for
// genuinely varied engagement. The cap is global across all meta-achievements.
const AntiGrindCapPerCategory = 2

// MetaDefinition describes one meta-achievement: a composite unlock over the
// anti-grind achievement count plus optional streak and mock-exam
// requirements. A zero requirement value means "not required".
type MetaDefinition struct {
	ID          string
	Name        string
	Description string

	// BaseAchievements is the required anti-grind achievement count.
	BaseAchievements int

	// MinStreak is the required current streak, 0 when not required.
	MinStreak int

	// MinMockAccuracy is the required last mock-exam score, 0 when not
	// required. A student with no mock result never satisfies it.
	MinMockAccuracy float64

	// XPBonus is granted on unlock. The grant itself may satisfy further
	// meta-achievements, which the engine resolves with a fixed-point loop.
	XPBonus int
}

// MetaCatalog returns all meta-achievement definitions.
func MetaCatalog() []MetaDefinition {
	return []MetaDefinition{
		{
			ID: "constancia_total", Name: "Constancia total",
			Description:      "Broad progress sustained by a week-long streak",
			BaseAchievements: 4, MinStreak: 7, XPBonus: 200,
		},
		{
			ID: "estudiante_integral", Name: "Estudiante integral",
			Description:      "Achievements across many kinds of work",
			BaseAchievements: 6, XPBonus: 250,
		},
		{
			ID: "rumbo_al_examen", Name: "Rumbo al examen",
			Description:      "Broad progress backed by a solid mock result",
			BaseAchievements: 5, MinMockAccuracy: 70, XPBonus: 300,
		},
		{
			ID: "maestria", Name: "Maestría",
			Description:      "Everything at once: breadth, habit and results",
			BaseAchievements: 10, MinStreak: 14, MinMockAccuracy: 85, XPBonus: 500,
		},
	}
}

// AntiGrindCount counts the student's awarded achievements with at most
// AntiGrindCapPerCategory per category.
func AntiGrindCount(s *State) int {
	perCategory := make(map[Category]int, 6)
	total := 0
	for _, awarded := range s.Achievements {
		if perCategory[awarded.Category] >= AntiGrindCapPerCategory {
			continue
		}
		perCategory[awarded.Category]++
		total++
	}
	return total
}

// Satisfied reports whether every present requirement of the meta-achievement
// holds for the given state. Missing data (no mock result) counts as not met.
func (m MetaDefinition) Satisfied(s *State) bool {
	if AntiGrindCount(s) < m.BaseAchievements {
		return false
	}
	if m.MinStreak > 0 && s.Streak < m.MinStreak {
		return false
	}
	if m.MinMockAccuracy > 0 {
		if !s.HasMockResult || s.LastMockScore < m.MinMockAccuracy {
			return false
		}
	}
	return true
}
