package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
)

func TestMarshalContent(t *testing.T) {
	t.Parallel()

	// nil content maps to SQL NULL
	v, err := marshalContent(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	content := &domain.ReportContent{
		ReportDate:     "2026-08-23",
		IndustryTrends: []string{"Edge rendering"},
		Analyses: []domain.CompetitorAnalysis{
			{ProjectName: "Next.js", KeyFeatures: []string{"Turbopack"}},
		},
	}

	v, err = marshalContent(content)
	require.NoError(t, err)

	raw, ok := v.([]byte)
	require.True(t, ok)

	var roundTrip domain.ReportContent
	require.NoError(t, json.Unmarshal(raw, &roundTrip))
	assert.Equal(t, *content, roundTrip)
}

func TestNullableString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, sql.NullString{}, nullableString(""))
	assert.Equal(t, sql.NullString{String: "fetch failed", Valid: true}, nullableString("fetch failed"))
}

func TestNewPostgresReportStorePanicsOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewPostgresReportStore(nil, nil)
	})
}

func TestNewPostgresCompetitorStorePanicsOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewPostgresCompetitorStore(nil, nil)
	})
}
