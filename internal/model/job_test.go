package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_Discover(t *testing.T) {
	raw := json.RawMessage(`{"keywords":["plumber"],"categories":["hvac"],"locations":["usa"],"max_results":25}`)

	params, err := ParseParams(JobDiscover, raw)
	require.NoError(t, err)

	p, ok := params.(DiscoverParams)
	require.True(t, ok)
	assert.Equal(t, []string{"plumber"}, p.Keywords)
	assert.Equal(t, []string{"usa"}, p.Locations)
	assert.Equal(t, 25, p.MaxResults)
}

func TestParseParams_DiscoverMissingLocations(t *testing.T) {
	_, err := ParseParams(JobDiscover, json.RawMessage(`{"keywords":["plumber"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location")
}

func TestParseParams_DiscoverNoTerms(t *testing.T) {
	_, err := ParseParams(JobDiscover, json.RawMessage(`{"locations":["usa"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword or category")
}

func TestParseParams_UnknownField(t *testing.T) {
	_, err := ParseParams(JobEnrich, json.RawMessage(`{"bogus":true}`))
	assert.Error(t, err)
}

func TestParseParams_UnknownType(t *testing.T) {
	_, err := ParseParams(JobType("prune"), nil)
	assert.Error(t, err)
}

func TestParseParams_EmptyParams(t *testing.T) {
	params, err := ParseParams(JobEnrich, nil)
	require.NoError(t, err)
	p, ok := params.(EnrichParams)
	require.True(t, ok)
	assert.Zero(t, p.Max)
}

func TestParseParams_NegativeMax(t *testing.T) {
	for _, jt := range []JobType{JobEnrich, JobVerify, JobCompose, JobSend, JobScrape} {
		t.Run(string(jt), func(t *testing.T) {
			_, err := ParseParams(jt, json.RawMessage(`{"max":-1}`))
			assert.Error(t, err)
		})
	}
}
