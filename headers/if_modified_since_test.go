package headers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIfModifiedSince(t *testing.T) {
	t.Run("imf-fixdate", func(t *testing.T) {
		ims, err := ParseIfModifiedSince("Sun, 06 Nov 1994 08:49:37 GMT")
		require.NoError(t, err)
		assert.Equal(t, time.Date(1994, time.November, 6, 8, 49, 37, 0, time.UTC), ims.Date.UTC())
		assert.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", ims.String())
	})

	t.Run("rfc850", func(t *testing.T) {
		_, err := ParseIfModifiedSince("Sunday, 06-Nov-94 08:49:37 GMT")
		assert.NoError(t, err)
	})

	for _, input := range []string{"", "   ", "yesterday"} {
		t.Run("rejects "+input, func(t *testing.T) {
			ims, err := ParseIfModifiedSince(input)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, ims)
		})
	}
}

func TestIfModifiedSinceSatisfied(t *testing.T) {
	lm := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, IfModifiedSince{Date: lm}.Satisfied(lm))
	assert.True(t, IfModifiedSince{Date: lm.Add(time.Hour)}.Satisfied(lm))
	assert.False(t, IfModifiedSince{Date: lm.Add(-time.Second)}.Satisfied(lm))
	assert.False(t, IfModifiedSince{}.Satisfied(lm))
}
