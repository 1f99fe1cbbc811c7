package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeCoverageEmpty, "no pathway meets the minimum coverage")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeCoverageEmpty, err.Code)
	assert.Contains(t, err.Error(), "PWY_002")
	assert.Contains(t, err.Error(), "no pathway meets the minimum coverage")
	assert.NotEmpty(t, err.Stack)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeShapeMismatch, "expected %d samples, got %d", 20, 18)
	assert.Equal(t, "[OMX_002] expected 20 samples, got 18", err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("underlying parse failure")
	err := Wrap(cause, ErrCodeGMTParse, "failed to parse pathway file")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeGMTParse, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestWrap_PreservesCode(t *testing.T) {
	inner := New(ErrCodeEmptyIntersection, "no common samples")
	outer := Wrap(inner, ErrCodeInternal, "engine construction failed")
	assert.Equal(t, ErrCodeEmptyIntersection, outer.Code)
}

func TestWithDetail(t *testing.T) {
	base := New(ErrCodePathwayNotFound, "unknown pathway")
	detailed := base.WithDetail("id=R-HSA-112316")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "id=R-HSA-112316", detailed.Detail)
	assert.True(t, strings.HasSuffix(detailed.Error(), "id=R-HSA-112316"))

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("noop"))
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeCapabilityMissing, "model lacks Fit"))
	assert.True(t, IsCode(err, ErrCodeCapabilityMissing))
	assert.False(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(nil, ErrCodeNotFound))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeDuplicateColumn, GetCode(New(ErrCodeDuplicateColumn, "dup")))
}

func TestConvenienceFactories(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NotFound("x").Code)
	assert.Equal(t, ErrCodeBadRequest, InvalidParam("x").Code)
	assert.Equal(t, ErrCodeInternal, Internal("x").Code)
}
