package rustic

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "single token",
			input:    "foo",
			expected: []string{"foo"},
		},
		{
			name:     "multiple tokens",
			input:    "foo bar baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "collapses repeated whitespace",
			input:    "foo   bar\tbaz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "quoted run is one token",
			input:    `foo "bar baz" qux`,
			expected: []string{"foo", "bar baz", "qux"},
		},
		{
			name:     "quoted run keeps trailing space",
			input:    `"an example "`,
			expected: []string{"an example "},
		},
		{
			name:     "empty quotes produce empty token",
			input:    `""`,
			expected: []string{""},
		},
		{
			name:     "unterminated quote consumes the rest",
			input:    `foo "bar baz`,
			expected: []string{"foo", "bar baz"},
		},
		{
			name:     "adjacent quote starts new token",
			input:    `foo"bar"`,
			expected: []string{"foo", "bar"},
		},
	}

	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expected, splitArgs(tc.input))
			},
		)
	}
}

func TestLevenshtein(t *testing.T) {
	testCases := []struct {
		a        string
		b        string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"ping", "pingg", 1},
		{"prefix", "prefxi", 2},
		{"gray", "grey", 1},
	}

	for _, tc := range testCases {
		t.Run(
			tc.a+"_"+tc.b, func(t *testing.T) {
				assert.Equal(t, tc.expected, levenshtein(tc.a, tc.b))
			},
		)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "foo", truncate("foo", 10))
	assert.Equal(t, "foo", truncate("foobar", 3))
	assert.Equal(t, "日本", truncate("日本語", 2))
}

func TestContextLogger(t *testing.T) {
	ctx := context.Background()

	_, ok := ContextLogger(ctx)
	assert.False(t, ok)

	logger := slog.Default().With("foo", "bar")
	ctx = WithLogger(ctx, logger)

	found, ok := ContextLogger(ctx)
	require.True(t, ok)
	assert.Equal(t, logger, found)
}

func TestStructToSlogValue(t *testing.T) {
	type inner struct {
		Token string `json:"token" log:"[redacted]"`
		Name  string `json:"name"`
	}
	v := structToSlogValue(inner{Token: "hunter2", Name: "rustic"})
	attrs := v.Group()
	require.Len(t, attrs, 2)
	assert.Equal(t, "token", attrs[0].Key)
	assert.Equal(t, "[redacted]", attrs[0].Value.String())
	assert.Equal(t, "name", attrs[1].Key)
	assert.Equal(t, "rustic", attrs[1].Value.String())
}
