package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUniqueAndSortable(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Caffeine Intake and Endurance!", "caffeine intake and endurance"},
		{"  spaced   out \t title ", "spaced out title"},
		{"COVID-19: a review (2024)", "covid 19 a review 2024"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeTitleStableAcrossFormatting(t *testing.T) {
	a := NormalizeTitle("Caffeine Intake and Endurance")
	b := NormalizeTitle("caffeine   intake AND endurance!")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, NormalizeTitle("something else"))
}

func TestNotFoundErrors(t *testing.T) {
	err := NewNotFoundError("item", "abc")
	assert.True(t, IsNotFoundError(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "abc")

	assert.False(t, IsNotFoundError(errors.New("other")))
}

func TestUnitErrorClassification(t *testing.T) {
	require.True(t, IsUnitError(NewMalformedResponseError("scoring", "bad json")))
	assert.True(t, IsUnitError(ErrGenerativeCall))
	assert.True(t, IsUnitError(ErrValidationIncomplete))
	assert.False(t, IsUnitError(ErrStorage))
	assert.False(t, IsUnitError(nil))
}

func TestStorageErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("%w: failed to insert item: %w", ErrStorage, errors.New("connection refused"))
	assert.True(t, IsStorageError(wrapped))
	assert.False(t, IsStorageError(ErrGenerativeCall))
	assert.False(t, IsStorageError(nil))
}
