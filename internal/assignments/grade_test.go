package assignments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		score, max int
		want       string
	}{
		{90, 100, "A"},
		{89, 100, "B"},
		{80, 100, "B"},
		{79, 100, "C"},
		{70, 100, "C"},
		{69, 100, "D"},
		{60, 100, "D"},
		{59, 100, "F"},
		{0, 100, "F"},
		{45, 50, "A"},
		{30, 50, "D"},
		{10, 0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LetterGrade(tc.score, tc.max), "score %d/%d", tc.score, tc.max)
	}
}
