package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	err := MissingFields("claim", "confidence")

	assert.Equal(t, "missing required fields: claim, confidence", err.Error())
	assert.Equal(t, []string{"claim", "confidence"}, err.Fields)
	assert.True(t, errors.Is(err, ErrorValidation))
}

func TestInvalidField(t *testing.T) {
	var err error = InvalidField("password", "password must be at least %d characters", 6)

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, []string{"password"}, ve.Fields)
	}
	assert.EqualError(t, err, "password must be at least 6 characters")
	assert.ErrorIs(t, err, ErrorValidation)
	assert.NotErrorIs(t, err, ErrorNotFound)
}
