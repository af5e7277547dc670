package perr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("parse draw: %w", BadID(7))
	assert.Equal(t, KindBadID, KindOf(err))
	assert.True(t, IsKind(err, KindBadID))
	assert.False(t, IsKind(err, KindObject))
	assert.Equal(t, KindGeneric, KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := Conversion("point", "x", "abc", errors.New("invalid syntax"))
	assert.Equal(t, `can't convert "x" value "abc": invalid syntax`, err.Error())

	bad := BadID(12)
	assert.Equal(t, "can't find object (id 12)", bad.Error())
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := EmptyParameter("point", "name")
	exit := &ExitError{Code: ExitNoInput, Err: inner}

	var pe *Error
	require.True(t, errors.As(exit, &pe))
	assert.Equal(t, KindEmptyParameter, pe.Kind)
	assert.Equal(t, 66, exit.Code)
}
