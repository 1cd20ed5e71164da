// Package gemini implements the insight.Analyzer and insight.ReportGenerator
// interfaces on top of Google's Gemini API. The agent sends prompt-templated
// repository snapshots to the model, expects structured JSON back, and
// retries transient failures with exponential backoff.
package gemini
