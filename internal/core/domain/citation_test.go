package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCitationsHeader_RoundTrip(t *testing.T) {
	in := []CitationEntry{
		{Number: 1, ResultID: "a", Title: "Miranda v. Arizona", SourceType: SourceTypeInternal},
		{Number: 2, ResultID: "b", Title: "18 U.S.C. § 3501", SourceType: SourceTypeLive, URL: "https://example.com"},
	}

	header, err := CitationsHeader(in)
	require.NoError(t, err)
	assert.NotContains(t, header, "\n")

	out, err := ParseCitationsHeader(header)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCitationsHeader_Nil(t *testing.T) {
	header, err := CitationsHeader(nil)
	require.NoError(t, err)

	out, err := ParseCitationsHeader(header)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestParseCitationsHeader_Invalid(t *testing.T) {
	_, err := ParseCitationsHeader("not base64!")
	assert.Error(t, err)
}

func TestGroundingContext_IsEmpty(t *testing.T) {
	assert.True(t, GroundingContext{PromptBlocks: NoSourcesMessage, Citations: []CitationEntry{}}.IsEmpty())
	assert.False(t, GroundingContext{Citations: []CitationEntry{{Number: 1}}}.IsEmpty())
}

func TestProviderStatus_IsValid(t *testing.T) {
	assert.True(t, ProviderOnline.IsValid())
	assert.True(t, ProviderLimited.IsValid())
	assert.True(t, ProviderOffline.IsValid())
	assert.False(t, ProviderStatus("degraded").IsValid())
}
