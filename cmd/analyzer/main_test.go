package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loglens/internal/operations"
)

func TestValidStep(t *testing.T) {
	for _, id := range operations.PipelineStepIDs() {
		assert.True(t, validStep(id), "step %s should be valid", id)
	}
	assert.False(t, validStep("transmogrify"))
	assert.False(t, validStep(""))
}

func TestRunLabel(t *testing.T) {
	assert.Equal(t, "full_pipeline", runLabel(""))
	assert.Equal(t, operations.StepIDReduce, runLabel(operations.StepIDReduce))
}
