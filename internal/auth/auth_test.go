package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietype-quiz/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewManager("secret")
	in := models.Session{
		Identity: "a@b.com",
		Answers:  []models.AnswerMirror{{QuestionID: 1, Value: 4}, {QuestionID: 2, Value: 1}},
	}
	token, err := m.IssueSession(in)
	require.NoError(t, err)

	out, err := m.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestContinuationRoundTrip(t *testing.T) {
	m := NewManager("secret")
	token, err := m.IssueContinuation("a@b.com")
	require.NoError(t, err)

	identity, err := m.ParseContinuation(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity)

	_, err = m.IssueContinuation("")
	assert.Error(t, err)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := NewManager("secret")
	cont, err := m.IssueContinuation("a@b.com")
	require.NoError(t, err)
	sess, err := m.IssueSession(models.Session{Identity: "a@b.com"})
	require.NoError(t, err)

	_, err = m.ParseSession(cont)
	assert.Error(t, err)
	_, err = m.ParseContinuation(sess)
	assert.Error(t, err)
}

func TestRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one").IssueContinuation("a@b.com")
	require.NoError(t, err)
	_, err = NewManager("two").ParseContinuation(token)
	assert.Error(t, err)
}

func TestContinuationExpires(t *testing.T) {
	m := NewManager("secret")
	issued := time.Date(2025, 4, 18, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, err := m.IssueContinuation("a@b.com")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(ContinuationTTL + time.Minute) }
	_, err = m.ParseContinuation(token)
	assert.Error(t, err)
}
