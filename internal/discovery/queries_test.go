package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateQueries_Product(t *testing.T) {
	got := GenerateQueries(
		[]string{"emergency plumber"},
		[]string{"plumbing"},
		[]string{"Chicago", "Denver"},
		0,
	)

	want := []Query{
		{Term: "plumbing", Location: "Chicago", Category: "plumbing"},
		{Term: "emergency plumber", Location: "Chicago"},
		{Term: "plumbing", Location: "Denver", Category: "plumbing"},
		{Term: "emergency plumber", Location: "Denver"},
	}
	assert.Equal(t, want, got)
}

func TestGenerateQueries_Dedupe(t *testing.T) {
	got := GenerateQueries(
		[]string{"Plumbing", "plumbing "},
		[]string{"plumbing"},
		[]string{"Chicago"},
		0,
	)
	assert.Len(t, got, 1)
}

func TestGenerateQueries_Cap(t *testing.T) {
	var keywords []string
	for i := 0; i < 80; i++ {
		keywords = append(keywords, fmt.Sprintf("keyword %d", i))
	}

	got := GenerateQueries(keywords, nil, []string{"Chicago"}, 0)
	assert.Len(t, got, maxQueriesPerJob)

	got = GenerateQueries(keywords, nil, []string{"Chicago"}, 10)
	assert.Len(t, got, 10)
}

func TestGenerateQueries_Empty(t *testing.T) {
	assert.Empty(t, GenerateQueries(nil, nil, []string{"Chicago"}, 0))
	assert.Empty(t, GenerateQueries([]string{"plumbing"}, nil, nil, 0))
	assert.Empty(t, GenerateQueries([]string{"  "}, nil, []string{" "}, 0))
}

func TestQuery_SearchString(t *testing.T) {
	q := Query{Term: "plumbing", Location: "Chicago"}
	assert.Equal(t, "plumbing Chicago", q.SearchString())
}
