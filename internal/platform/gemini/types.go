package gemini

// reportSchema is the JSON structure the report-generator prompt asks the
// model to produce. The per-competitor analyses are carried by the caller;
// only the synthesis comes from the model.
type reportSchema struct {
	IndustryTrends  []string `json:"industry_trends"`
	Recommendations []string `json:"recommendations"`
}

// analysisPromptData feeds the data-analyzer prompt template.
type analysisPromptData struct {
	ProjectName string
	Slug        string
	Releases    string
	Issues      string
}

// reportPromptData feeds the report-generator prompt template.
type reportPromptData struct {
	Analyses string
}
