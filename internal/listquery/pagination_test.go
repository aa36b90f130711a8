package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrect_SingleResultFarPage(t *testing.T) {
	c := Correct(1, 3, 10)
	assert.True(t, c.NeedsRedirect)
	assert.Equal(t, 1, c.EffectivePage)
}

func TestCorrect_UsesCeilForLastPage(t *testing.T) {
	c := Correct(25, 5, 10)
	assert.True(t, c.NeedsRedirect)
	assert.Equal(t, 3, c.EffectivePage)
}

func TestCorrect_InRange(t *testing.T) {
	assert.Equal(t, Correction{EffectivePage: 3}, Correct(25, 3, 10))
	assert.Equal(t, Correction{EffectivePage: 1}, Correct(0, 1, 10))
}

func TestCorrect_EmptyResultNeverRedirects(t *testing.T) {
	assert.Equal(t, Correction{EffectivePage: 4}, Correct(0, 4, 10))
}

func TestCorrect_Property(t *testing.T) {
	for total := 1; total <= 60; total++ {
		for limit := 1; limit <= 12; limit++ {
			for page := 1; page <= 15; page++ {
				c := Correct(total, page, limit)
				if total < Offset(page, limit)+1 {
					assert.True(t, c.NeedsRedirect)
					assert.GreaterOrEqual(t, c.EffectivePage, 1)
					assert.LessOrEqual(t, c.EffectivePage, LastPage(total, limit))
					assert.Greater(t, total, Offset(c.EffectivePage, limit), "corrected page must not be empty")
				} else {
					assert.False(t, c.NeedsRedirect)
					assert.Equal(t, page, c.EffectivePage)
				}
			}
		}
	}
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, LastPage(0, 10))
	assert.Equal(t, 1, LastPage(10, 10))
	assert.Equal(t, 2, LastPage(11, 10))
	assert.Equal(t, 1, LastPage(5, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 3, 10))
	assert.Equal(t, 1, Clamp(50, -1, 10))
	assert.Equal(t, 5, Clamp(50, 9, 10))
	assert.Equal(t, 2, Clamp(50, 2, 10))
}
