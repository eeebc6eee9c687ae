package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListFromString(t *testing.T) {
	var req AskRequest
	err := json.Unmarshal([]byte(`{"title":"t","tags":"React, javascript ,#hooks,,react"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, TagList{"react", "javascript", "hooks"}, req.Tags)
}

func TestTagListFromList(t *testing.T) {
	var req AskRequest
	err := json.Unmarshal([]byte(`{"title":"t","tags":["SQL","join"," sql "]}`), &req)
	require.NoError(t, err)
	assert.Equal(t, TagList{"sql", "join"}, req.Tags)
}

func TestTagListRejectsOtherShapes(t *testing.T) {
	var req AskRequest
	assert.Error(t, json.Unmarshal([]byte(`{"title":"t","tags":42}`), &req))
}

func TestQuestionIsAnswered(t *testing.T) {
	q := Question{}
	assert.False(t, q.IsAnswered())

	id := 3
	q.AcceptedAnswerID = &id
	assert.True(t, q.IsAnswered())
}
