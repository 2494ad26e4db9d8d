package sjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLineColReporting(t *testing.T) {
	t.Parallel()

	type target struct {
		Name string `sjson:"name"`
	}
	var got target
	err := Unmarshal([]byte("name = 1\nname = \"ok\"\nextra = true"), &got)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindInvalidType, serr.Kind)
	assert.Equal(t, 1, serr.Line)
	assert.Equal(t, 8, serr.Col)
}

func TestErrorPathAccumulatesNestedKeys(t *testing.T) {
	t.Parallel()

	type inner struct {
		Count int64 `sjson:"count"`
	}
	type outer struct {
		Inner inner `sjson:"inner"`
	}
	var got outer
	err := Unmarshal([]byte(`inner = { count = "not a number" }`), &got)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"inner", "count"}, serr.Path)
}

func TestErrorIsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := &Error{Kind: KindMissingField, Reason: "missing name"}
	assert.True(t, errors.Is(err, &Error{Kind: KindMissingField}))
	assert.False(t, errors.Is(err, &Error{Kind: KindUnknownField}))
}

func TestErrorUnwrapReturnsWrapped(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &Error{Kind: KindCustom, Reason: "wrapped", Err: inner}
	assert.Equal(t, inner, errors.Unwrap(err))
}

func TestErrorUnexpectedEOF(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte(`key = `))
	defer d.Close()
	err := d.Record(func(string, bool) error {
		_, ierr := d.Int64()
		return ierr
	})
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindUnexpectedEOF, serr.Kind)
}
