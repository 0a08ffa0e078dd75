package port

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/portkeeper/internal/model"
)

// TestResolve covers the include/exclude semantics: range expansion,
// deduplication with first-seen order, and exclusions that never reorder
// the remaining ports.
func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		include string
		exclude string
		want    []int
	}{
		{
			name:    "range and single with exclusion",
			include: "5000-5002,5010",
			exclude: "5001",
			want:    []int{5000, 5002, 5010},
		},
		{
			name:    "no exclusion",
			include: "80,443",
			want:    []int{80, 443},
		},
		{
			name:    "order is preserved, not sorted",
			include: "9000,8000,8500-8501",
			want:    []int{9000, 8000, 8500, 8501},
		},
		{
			name:    "duplicates keep first occurrence",
			include: "5002,5000-5003,5001",
			want:    []int{5002, 5000, 5001, 5003},
		},
		{
			name:    "exclusion removes every occurrence",
			include: "7000,7001,7000",
			exclude: "7000",
			want:    []int{7001},
		},
		{
			name:    "exclusion ranges",
			include: "6000-6009",
			exclude: "6002-6004,6008",
			want:    []int{6000, 6001, 6005, 6006, 6007, 6009},
		},
		{
			name:    "exclude everything",
			include: "6000-6001",
			exclude: "6000,6001",
			want:    []int{},
		},
		{
			name:    "single port range",
			include: "10-10",
			want:    []int{10},
		},
		{
			name:    "reversed range is empty",
			include: "10-9",
			want:    []int{},
		},
		{
			name:    "whitespace around tokens",
			include: " 5000 , 5001 - 5002 ",
			exclude: " 5001 ",
			want:    []int{5000, 5002},
		},
		{
			name:    "port bounds",
			include: "1,65535",
			want:    []int{1, 65535},
		},
		{
			name:    "trailing commas are ignored",
			include: "5000,5001,",
			exclude: "5001,,",
			want:    []int{5000},
		},
		{
			name:    "blank exclude",
			include: "22",
			exclude: "   ",
			want:    []int{22},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolve_Invalid verifies that malformed tokens are rejected with
// ErrInvalidSpecification instead of producing a partial result.
func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		include string
		exclude string
	}{
		{"non-numeric", "abc", ""},
		{"open range", "10-", ""},
		{"missing low bound", "-10", ""},
		{"three parts", "1-2-3", ""},
		{"empty include", "", ""},
		{"empty token", "5000,,5001", ""},
		{"only a comma", ",", ""},
		{"leading comma", ",5000", ""},
		{"signed number", "+5000", ""},
		{"zero", "0", ""},
		{"too large", "65536", ""},
		{"range past max", "65530-70000", ""},
		{"invalid exclude", "5000", "x"},
		{"open exclude range", "5000", "5000-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.include, tt.exclude)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidSpecification), "got %v", err)
			assert.Nil(t, got)
		})
	}
}

// TestResolveSpec checks the PortSpec convenience wrapper.
func TestResolveSpec(t *testing.T) {
	got, err := ResolveSpec(model.PortSpec{Include: "3000-3003", Exclude: "3001"})
	require.NoError(t, err)
	assert.Equal(t, []int{3000, 3002, 3003}, got)
}

// TestFormatRanges verifies runs of consecutive ports collapse to ranges.
func TestFormatRanges(t *testing.T) {
	tests := []struct {
		name  string
		ports []int
		want  string
	}{
		{"empty", nil, ""},
		{"single", []int{80}, "80"},
		{"run", []int{5000, 5001, 5002}, "5000-5002"},
		{"mixed", []int{5000, 5002, 5003, 5010}, "5000,5002-5003,5010"},
		{"unsorted input keeps order", []int{9000, 8000, 8001}, "9000,8000-8001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRanges(tt.ports))
		})
	}
}

// TestFormatRanges_RoundTrip checks that a formatted set resolves back to
// the same ports.
func TestFormatRanges_RoundTrip(t *testing.T) {
	ports, err := Resolve("7000-7005,7100,7200-7201", "7003")
	require.NoError(t, err)

	again, err := Resolve(FormatRanges(ports), "")
	require.NoError(t, err)
	assert.Equal(t, ports, again)
}
