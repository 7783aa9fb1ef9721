package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTensor(t *testing.T) {
	tn := NewTensor(1, 3, 4, 5)
	require.Len(t, tn.Data, 60)
	require.NoError(t, tn.Validate())
}

func TestTensorValidate(t *testing.T) {
	require.Error(t, Tensor{}.Validate())
	require.Error(t, Tensor{Shape: []int64{1, 0}}.Validate())
	require.Error(t, Tensor{Shape: []int64{2, 2}, Data: make([]float32, 3)}.Validate())
}

func TestLabelFor(t *testing.T) {
	require.Len(t, CocoLabels, 80)
	require.Equal(t, "person", LabelFor(CocoLabels, 0))
	require.Equal(t, "toothbrush", LabelFor(CocoLabels, 79))
	require.Equal(t, "Class 80", LabelFor(CocoLabels, 80))
}

func TestProcessingError_Unwrap(t *testing.T) {
	err := &ProcessingError{Message: "processing error", Cause: ErrFrameReadFailed}
	require.True(t, errors.Is(err, ErrFrameReadFailed))
	require.Equal(t, "processing error: failed to read frame", err.Error())
	require.Equal(t, "bare", (&ProcessingError{Message: "bare"}).Error())
}
