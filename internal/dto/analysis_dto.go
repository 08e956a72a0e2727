package dto

// CompetencyScores holds the six analysis axes, each an integer in [0,10].
type CompetencyScores struct {
	TechnicalUnderstanding int `json:"technical_understanding"`
	ProblemSolving         int `json:"problem_solving"`
	LogicalThinking        int `json:"logical_thinking"`
	Communication          int `json:"communication"`
	GrowthPotential        int `json:"growth_potential"`
	Diligence              int `json:"diligence"`
}

// PersonalAnalysis is a competency report over a user's answered history.
type PersonalAnalysis struct {
	Scores          CompetencyScores `json:"scores"`
	Strengths       string           `json:"strengths"`
	Improvements    string           `json:"improvements"`
	Recommendations string           `json:"recommendations"`
	AverageScore    float64          `json:"average_score"`
	AnsweredCount   int              `json:"answered_count"`
	LowConfidence   bool             `json:"low_confidence"`
}
