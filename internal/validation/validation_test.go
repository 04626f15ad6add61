package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiretop/matching-service/internal/validation"
)

type slotRequest struct {
	Message   string    `json:"message" validate:"required"`
	StartedAt time.Time `json:"startedAt" validate:"required"`
	EndedAt   time.Time `json:"endedAt" validate:"required,gtfield=StartedAt"`
	Page      int       `json:"page,omitempty" validate:"min=1"`
	Internal  string    `json:"-" validate:"max=2"`
}

func TestStruct_Valid(t *testing.T) {
	start := time.Now()
	err := validation.New().Struct(slotRequest{Message: "m", StartedAt: start, EndedAt: start.Add(time.Hour), Page: 1})
	assert.NoError(t, err)
}

func TestStruct_FieldNamesFromJSONTags(t *testing.T) {
	start := time.Now()
	err := validation.New().Struct(slotRequest{StartedAt: start, EndedAt: start, Internal: "long"})

	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("message"))
	assert.True(t, ve.Has("endedAt"))
	assert.True(t, ve.Has("page"))
	assert.True(t, ve.Has("Internal"))
	assert.False(t, ve.Has("startedAt"))

	messages := map[string]string{}
	for _, f := range ve.Fields {
		messages[f.Field] = f.Message
	}
	assert.Equal(t, "is required", messages["message"])
	assert.Equal(t, "must be after startedAt", messages["endedAt"])
	assert.Equal(t, "must be at least 1", messages["page"])
	assert.Equal(t, "must be at most 2", messages["Internal"])
}

func TestField(t *testing.T) {
	err := validation.Field("startedAt", "must not be in the past")
	assert.True(t, err.Has("startedAt"))
	assert.Equal(t, "validation failed: startedAt: must not be in the past", err.Error())
}
