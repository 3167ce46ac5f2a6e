package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		id   string
		want Kind
	}{
		{"L-1", Local},
		{"17", Local},
		{"", Local},
		{"Q42$F078E5B3-F9A8-480E-B7AC-D97778CBBEF9", Published},
		{"M123$abc", Local},
		// substring test, not a parse
		{"12Q34", Published},
		{"local-Q", Published},
		{"q42", Local},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.id), "id %q", tc.id)
	}
}

func TestCanDelete(t *testing.T) {
	assert.True(t, CanDelete("L-2"))
	assert.False(t, CanDelete("Q1$x"))
}

func TestCanEditRegion(t *testing.T) {
	assert.True(t, CanEditRegion("L-2"))
	assert.True(t, CanEditRegion("Q1$x"))
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "L-3: horse", DisplayLabel("L-3", "horse"))
	assert.Equal(t, "horse", DisplayLabel("Q1$x", "horse"))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "published", Published.String())
}
