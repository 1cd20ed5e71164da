// Package insight defines the analysis pipeline contracts: an Analyzer
// turns one repository snapshot into a structured competitor analysis, and
// a ReportGenerator synthesizes the weekly report from all analyses.
//
// The primary implementation is LLM-backed (internal/platform/gemini); the
// HeuristicAnalyzer in this package is the keyword-based fallback used when
// no LLM is configured or a generation call fails terminally.
package insight
