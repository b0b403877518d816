package federation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCanonicalize_SortsKeys(t *testing.T) {
	got, err := Canonicalize(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(got))
}

func TestCanonicalize_NestedKeysSorted(t *testing.T) {
	got, err := Canonicalize(map[string]any{
		"z": map[string]any{"y": 2, "x": 1},
		"a": []any{map[string]any{"k2": true, "k1": false}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"k1":false,"k2":true}],"z":{"x":1,"y":2}}`, string(got))
}

func TestCanonicalize_NoInsignificantWhitespace(t *testing.T) {
	got, err := Canonicalize(map[string]any{"a": []any{1, 2, 3}, "b": "text"})
	require.NoError(t, err)
	assert.NotContains(t, string(got), " ")
	assert.NotContains(t, string(got), "\n")
}

func TestCanonicalize_EmptyPayload(t *testing.T) {
	got, err := Canonicalize(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestCanonicalize_Unserializable(t *testing.T) {
	_, err := Canonicalize(map[string]any{"fn": func() {}})
	assert.Error(t, err)
}

func TestProperty_CanonicalizeOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")

		keys := make([]string, n)
		values := make([]int, n)
		for i := 0; i < n; i++ {
			keys[i] = fmt.Sprintf("k%02d_%s", i, rapid.StringMatching(`[a-z]{1,5}`).Draw(t, "key"))
			values[i] = rapid.IntRange(-1000, 1000).Draw(t, "value")
		}

		forward := make(map[string]any, n)
		for i := 0; i < n; i++ {
			forward[keys[i]] = values[i]
		}
		backward := make(map[string]any, n)
		for i := n - 1; i >= 0; i-- {
			backward[keys[i]] = values[i]
		}

		a, err := Canonicalize(forward)
		if err != nil {
			t.Fatalf("canonicalize forward: %v", err)
		}
		b, err := Canonicalize(backward)
		if err != nil {
			t.Fatalf("canonicalize backward: %v", err)
		}
		if string(a) != string(b) {
			t.Fatalf("canonical forms differ:\n%s\n%s", a, b)
		}
	})
}
