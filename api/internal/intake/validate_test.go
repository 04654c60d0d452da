package intake

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	v, err := Validate(KindEmail, "  A@B.Co ")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", v)

	_, err = Validate(KindEmail, "not-an-email")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ReasonBadEmail, ve.Reason)
}

func TestValidatePhone(t *testing.T) {
	v, err := Validate(KindPhone, " +14155552671 ")
	require.NoError(t, err)
	assert.Equal(t, "+14155552671", v)

	for _, in := range []string{"abc123", "+0123", "1", "+1234567890123456", "415 555 2671"} {
		_, err := Validate(KindPhone, in)
		assert.Error(t, err, in)
	}
}

func TestValidateNumber(t *testing.T) {
	v, err := Validate(KindNumber, "5")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = Validate(KindNumber, "70")
	require.NoError(t, err)
	assert.Equal(t, 70, v)

	cases := map[string]string{
		"-1":   ReasonOutOfRange,
		"99":   ReasonOutOfRange,
		"five": ReasonNotNumeric,
		"2.5":  ReasonNotNumeric,

		// overflows int
		"99999999999999999999":  ReasonOutOfRange,
		"-99999999999999999999": ReasonOutOfRange,
	}
	for in, reason := range cases {
		_, err := Validate(KindNumber, in)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), in)
		assert.Equal(t, reason, ve.Reason, in)
		assert.Equal(t, KindNumber, ve.Kind)
	}
}

func TestValidateNone(t *testing.T) {
	v, err := Validate(KindNone, "  Jane Doe \n")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", v)

	_, err = Validate(KindNone, "   ")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ReasonEmpty, ve.Reason)
}

func TestValidateUnknownKind(t *testing.T) {
	_, err := Validate(Kind("zip"), "12345")
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}
