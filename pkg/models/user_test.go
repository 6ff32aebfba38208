package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCompleted(t *testing.T) {
	u := &User{CompletedLessons: []string{"lesson_1", "lesson_2_step_1"}}

	assert.True(t, u.HasCompleted("lesson_1"))
	assert.True(t, u.HasCompleted("lesson_2_step_1"))
	assert.False(t, u.HasCompleted("lesson_2"))

	empty := &User{}
	assert.False(t, empty.HasCompleted("lesson_1"))
}
