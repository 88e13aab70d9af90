package busapi

import (
	"bus-arrival-service/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProviderServesFixtures(t *testing.T) {
	p, err := NewFileProvider("testdata")
	require.NoError(t, err)

	d, err := p.LineDetail(context.Background(), "023-625-0", 3)
	require.NoError(t, err)
	assert.Equal(t, "023-625-0", d.Line.LineID)
	assert.Len(t, d.Buses, 3)

	entries, err := p.Timetable(context.Background(), "023-625-0", "")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFileProviderRejectsPathTraversal(t *testing.T) {
	p, err := NewFileProvider("testdata")
	require.NoError(t, err)

	_, err = p.LineDetail(context.Background(), "../secret", 0)
	require.Error(t, err)
	assert.True(t, domain.IsProviderKind(err, domain.KindMalformed))
}

func TestFileProviderMissingLine(t *testing.T) {
	p, err := NewFileProvider("testdata")
	require.NoError(t, err)

	_, err = p.LineDetail(context.Background(), "023-999-0", 0)
	require.Error(t, err)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "023-999-0", pe.LineID)
}

func TestNewFileProviderRequiresDirectory(t *testing.T) {
	_, err := NewFileProvider("testdata/023-625-0.json")
	assert.Error(t, err)
}
