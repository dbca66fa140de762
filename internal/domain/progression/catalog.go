package progression

// Category groups achievements by the kind of engagement they reward. The
// anti-grind rule counts at most two achievements per category toward any
// meta-achievement, so breadth across categories matters more than depth.
type Category string

const (
	CategoryDiagnostic Category = "diagnostic"
	CategoryHabit      Category = "habit"
	CategoryMockExam   Category = "mock_exam"
	CategoryPractice   Category = "practice"
	CategoryReview     Category = "review"
	CategoryCognition  Category = "cognition"
)

// Definition describes one achievement in the catalog: a permanent unlock
// with a numeric/boolean condition over the student's state.
type Definition struct {
	ID          string
	Category    Category
	Name        string
	Description string
	XPBonus     int

	// Check evaluates the unlock condition against the current state.
	// Missing data always evaluates to "not met", never to an error.
	Check func(s *State) bool
}

// Catalog returns all achievement definitions.
func Catalog() []Definition {
	return []Definition{
		// Diagnostic
		{
			ID: "primer_diagnostico", Category: CategoryDiagnostic,
			Name: "Primer diagnóstico", Description: "Completed the first diagnostic", XPBonus: 50,
			Check: func(s *State) bool { return s.Counter(CounterDiagnostics) >= 1 },
		},
		{
			ID: "perfil_completo", Category: CategoryDiagnostic,
			Name: "Perfil completo", Description: "Completed three diagnostics", XPBonus: 100,
			Check: func(s *State) bool { return s.Counter(CounterDiagnostics) >= 3 },
		},

		// Habit (streaks)
		{
			ID: "ritmo_3", Category: CategoryHabit,
			Name: "Ritmo x3", Description: "Three days in a row", XPBonus: 50,
			Check: func(s *State) bool { return s.Streak >= 3 },
		},
		{
			ID: "ritmo_10", Category: CategoryHabit,
			Name: "Ritmo x10", Description: "Ten days in a row", XPBonus: 150,
			Check: func(s *State) bool { return s.Streak >= 10 },
		},
		{
			ID: "ritmo_30", Category: CategoryHabit,
			Name: "Ritmo x30", Description: "Thirty days in a row", XPBonus: 500,
			Check: func(s *State) bool { return s.Streak >= 30 },
		},

		// Mock exams
		{
			ID: "simulacro_aprobado", Category: CategoryMockExam,
			Name: "Simulacro aprobado", Description: "Scored 60+ on a mock exam", XPBonus: 100,
			Check: func(s *State) bool { return s.HasMockResult && s.LastMockScore >= 60 },
		},
		{
			ID: "simulacro_80", Category: CategoryMockExam,
			Name: "Simulacro sobresaliente", Description: "Scored 80+ on a mock exam", XPBonus: 200,
			Check: func(s *State) bool { return s.HasMockResult && s.LastMockScore >= 80 },
		},

		// Practice
		{
			ID: "primera_practica", Category: CategoryPractice,
			Name: "Primera práctica", Description: "Completed the first practice", XPBonus: 25,
			Check: func(s *State) bool { return s.Counter(CounterPractice) >= 1 },
		},
		{
			ID: "practica_25", Category: CategoryPractice,
			Name: "Práctica x25", Description: "Completed 25 practices", XPBonus: 75,
			Check: func(s *State) bool { return s.Counter(CounterPractice) >= 25 },
		},
		{
			ID: "practica_100", Category: CategoryPractice,
			Name: "Práctica x100", Description: "Completed 100 practices", XPBonus: 250,
			Check: func(s *State) bool { return s.Counter(CounterPractice) >= 100 },
		},

		// Review
		{
			ID: "repaso_10", Category: CategoryReview,
			Name: "Repaso x10", Description: "Completed 10 scheduled reviews", XPBonus: 100,
			Check: func(s *State) bool { return s.Counter(CounterReviews) >= 10 },
		},
		{
			ID: "repaso_50", Category: CategoryReview,
			Name: "Repaso x50", Description: "Completed 50 scheduled reviews", XPBonus: 300,
			Check: func(s *State) bool { return s.Counter(CounterReviews) >= 50 },
		},

		// Cognition
		{
			ID: "metacognicion", Category: CategoryCognition,
			Name: "Metacognición", Description: "Reported confidence 10 times", XPBonus: 100,
			Check: func(s *State) bool { return s.Counter(CounterConfidenceReports) >= 10 },
		},
		{
			ID: "mente_activa", Category: CategoryCognition,
			Name: "Mente activa", Description: "Completed 5 tutoring sessions", XPBonus: 100,
			Check: func(s *State) bool { return s.Counter(CounterSessions) >= 5 },
		},
	}
}

// FindDefinition returns the definition for an achievement id.
func FindDefinition(id string) (Definition, bool) {
	for _, def := range Catalog() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
