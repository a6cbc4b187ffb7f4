package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.InterviewSession{},
		&model.ChatMessage{},
		&model.Subscription{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x", Name: "Test User"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeLLM routes by prompt shape: question generation asks for a JSON
// array, scoring asks for a bare number, everything else is prose.
type fakeLLM struct {
	questionsOut string
	scoreOut     string
	textOut      string

	failQuestions bool
	failScore     bool
	failText      bool
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		questionsOut: `["Tell me about your experience with Go.","How do you design a REST API?","Describe a production incident you handled."]`,
		scoreOut:     "88",
		textOut:      "Solid performance overall. Back your claims with concrete examples next time.",
	}
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "JSON array"):
		if f.failQuestions {
			return "", errors.New("collaborator unreachable")
		}
		return f.questionsOut, nil
	case strings.Contains(prompt, "Respond with the number only"):
		if f.failScore {
			return "", errors.New("collaborator unreachable")
		}
		return f.scoreOut, nil
	default:
		if f.failText {
			return "", errors.New("collaborator unreachable")
		}
		return f.textOut, nil
	}
}

func newInterviewFixture(t *testing.T) (InterviewService, *fakeLLM, *gorm.DB, *model.User) {
	t.Helper()
	db := newTestDB(t)
	llm := newFakeLLM()
	svc := NewInterviewService(repository.NewSessionRepository(db), llm)
	user := createTestUser(t, db, "owner@example.com")
	return svc, llm, db, user
}

func startInput() dto.StartSessionInput {
	return dto.StartSessionInput{
		JDText:     "Backend engineer role",
		Difficulty: DifficultyBeginner,
	}
}

func intPtr(n int) *int { return &n }

func TestStartSessionGeneratesQuestions(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)

	resp, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	assert.Len(t, resp.Questions, 3)
	assert.Equal(t, 3, resp.Instructions.TotalQuestions)
	assert.Equal(t, DifficultyBeginner, resp.Instructions.Difficulty)
	assert.Equal(t, "9-15 minutes", resp.Instructions.EstimatedDuration)

	var session model.InterviewSession
	require.NoError(t, db.First(&session, resp.SessionID).Error)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, resp.Questions, session.QuestionsAsked)
	assert.Len(t, session.AnswersGiven, 3)
	assert.Equal(t, 0, session.AnsweredCount())
	assert.False(t, session.IsCompleted())
	assert.Nil(t, session.Score)
}

func TestStartSessionFallsBackWhenCollaboratorFails(t *testing.T) {
	svc, llm, _, user := newInterviewFixture(t)
	llm.failQuestions = true

	resp, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)
	assert.Equal(t, fallbackQuestions, resp.Questions)
	assert.Len(t, resp.Questions, 5)
}

func TestStartSessionFallsBackOnMalformedOutput(t *testing.T) {
	svc, llm, _, user := newInterviewFixture(t)
	llm.questionsOut = "Sorry, I cannot help with that."

	resp, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)
	assert.Equal(t, fallbackQuestions, resp.Questions)
}

func TestSubmitAnswerAdvancesWithoutCompleting(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	resp, err := svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
		SessionID:     started.SessionID,
		Answer:        "I have five years of Go experience.",
		QuestionIndex: intPtr(0),
	})
	require.NoError(t, err)

	assert.False(t, resp.Completed)
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, started.Questions[1], *resp.NextQuestion)
	require.NotNil(t, resp.Progress)
	assert.Equal(t, 1, resp.Progress.Current)
	assert.Equal(t, 3, resp.Progress.Total)
	assert.Equal(t, 33, resp.Progress.Percentage)
	assert.Nil(t, resp.Feedback)
	assert.Nil(t, resp.Score)

	var session model.InterviewSession
	require.NoError(t, db.First(&session, started.SessionID).Error)
	assert.False(t, session.IsCompleted())
	assert.Equal(t, "I have five years of Go experience.", session.AnswersGiven[0])
}

func TestSubmitAnswerLastIndexCompletesSession(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	var resp *dto.SubmitAnswerResponse
	for i := range started.Questions {
		resp, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        fmt.Sprintf("answer %d", i),
			QuestionIndex: intPtr(i),
		})
		require.NoError(t, err)
	}

	assert.True(t, resp.Completed)
	assert.Nil(t, resp.NextQuestion)
	require.NotNil(t, resp.Score)
	assert.Equal(t, 88, *resp.Score)
	require.NotNil(t, resp.Feedback)
	assert.NotEmpty(t, *resp.Feedback)

	var session model.InterviewSession
	require.NoError(t, db.First(&session, started.SessionID).Error)
	assert.True(t, session.IsCompleted())
	require.NotNil(t, session.CompletedAt)
	require.NotNil(t, session.Score)
	assert.GreaterOrEqual(t, *session.Score, 1)
	assert.LessOrEqual(t, *session.Score, 100)
}

func TestSubmitAnswerRejectedAfterCompletion(t *testing.T) {
	svc, _, _, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	for i := range started.Questions {
		_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        "done",
			QuestionIndex: intPtr(i),
		})
		require.NoError(t, err)
	}

	_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
		SessionID:     started.SessionID,
		Answer:        "one more",
		QuestionIndex: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestSubmitAnswerOverwriteIsIdempotent(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	for _, answer := range []string{"first draft", "second draft"} {
		_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        answer,
			QuestionIndex: intPtr(0),
		})
		require.NoError(t, err)
	}

	var session model.InterviewSession
	require.NoError(t, db.First(&session, started.SessionID).Error)
	assert.Equal(t, "second draft", session.AnswersGiven[0])
	assert.False(t, session.IsCompleted())
	assert.Equal(t, 1, session.AnsweredCount())
}

func TestSubmitAnswerDefaultScoreWhenScoringFails(t *testing.T) {
	svc, llm, _, user := newInterviewFixture(t)
	llm.failScore = true
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	var resp *dto.SubmitAnswerResponse
	for i := range started.Questions {
		resp, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        "answer",
			QuestionIndex: intPtr(i),
		})
		require.NoError(t, err)
	}

	require.NotNil(t, resp.Score)
	assert.Equal(t, fallbackScore, *resp.Score)
}

func TestSubmitAnswerScoreClampedIntoRange(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{name: "above range", raw: "150", want: 100},
		{name: "below range", raw: "0", want: 1},
		{name: "prose wrapped", raw: "I would rate this candidate 62 out of 100.", want: 62},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, llm, _, user := newInterviewFixture(t)
			llm.scoreOut = tc.raw
			started, err := svc.StartSession(user.ID, startInput())
			require.NoError(t, err)

			var resp *dto.SubmitAnswerResponse
			for i := range started.Questions {
				resp, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
					SessionID:     started.SessionID,
					Answer:        "answer",
					QuestionIndex: intPtr(i),
				})
				require.NoError(t, err)
			}
			require.NotNil(t, resp.Score)
			assert.Equal(t, tc.want, *resp.Score)
		})
	}
}

func TestSubmitAnswerPlaceholderFeedbackWhenGenerationFails(t *testing.T) {
	svc, llm, _, user := newInterviewFixture(t)
	llm.failText = true
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	var resp *dto.SubmitAnswerResponse
	for i := range started.Questions {
		resp, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        "answer",
			QuestionIndex: intPtr(i),
		})
		require.NoError(t, err)
	}

	require.NotNil(t, resp.Feedback)
	assert.Equal(t, fallbackFeedback, *resp.Feedback)
	assert.True(t, resp.Completed)
}

func TestSubmitAnswerForeignSessionLooksMissing(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	other := createTestUser(t, db, "other@example.com")
	_, err = svc.SubmitAnswer(other.ID, dto.SubmitAnswerRequest{
		SessionID:     started.SessionID,
		Answer:        "hijack attempt",
		QuestionIndex: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
		SessionID:     99999,
		Answer:        "nobody home",
		QuestionIndex: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitAnswerIndexOutOfRange(t *testing.T) {
	svc, _, _, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	for _, idx := range []int{-1, len(started.Questions)} {
		_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        "answer",
			QuestionIndex: intPtr(idx),
		})
		assert.ErrorIs(t, err, ErrInvalidQuestionIndex)
	}
}

func TestSubmitAnswerConcurrentSubmissions(t *testing.T) {
	svc, llm, db, user := newInterviewFixture(t)
	llm.questionsOut = `["q0?","q1?","q2?","q3?","q4?","q5?"]`
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)
	total := len(started.Questions)
	require.Equal(t, 6, total)

	// All non-final indices land concurrently; no slot may be lost.
	var wg sync.WaitGroup
	for i := 0; i < total-1; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, submitErr := svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
				SessionID:     started.SessionID,
				Answer:        fmt.Sprintf("answer %d", idx),
				QuestionIndex: intPtr(idx),
			})
			assert.NoError(t, submitErr)
		}(i)
	}
	wg.Wait()

	// Two submissions race on the final index; exactly one completes the
	// session, the other hits the completed guard.
	responses := make(chan *dto.SubmitAnswerResponse, 2)
	failures := make(chan error, 2)
	for r := 0; r < 2; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, submitErr := svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
				SessionID:     started.SessionID,
				Answer:        "final answer",
				QuestionIndex: intPtr(total - 1),
			})
			if submitErr != nil {
				failures <- submitErr
				return
			}
			responses <- resp
		}()
	}
	wg.Wait()
	close(responses)
	close(failures)

	completions := 0
	for resp := range responses {
		assert.True(t, resp.Completed)
		completions++
	}
	assert.Equal(t, 1, completions)
	rejections := 0
	for submitErr := range failures {
		assert.ErrorIs(t, submitErr, ErrSessionCompleted)
		rejections++
	}
	assert.Equal(t, 1, rejections)

	var session model.InterviewSession
	require.NoError(t, db.First(&session, started.SessionID).Error)
	for i := 0; i < total-1; i++ {
		assert.Equal(t, fmt.Sprintf("answer %d", i), session.AnswersGiven[i])
	}
	assert.Equal(t, "final answer", session.AnswersGiven[total-1])
	require.NotNil(t, session.CompletedAt)
	require.NotNil(t, session.Score)
	require.NotNil(t, session.Feedback)
}

func TestCompletedSessionReleasesLock(t *testing.T) {
	svc, llm, _, user := newInterviewFixture(t)
	llm.questionsOut = `["Only question?"]`
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)
	require.Len(t, started.Questions, 1)

	resp, err := svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
		SessionID:     started.SessionID,
		Answer:        "the only answer",
		QuestionIndex: intPtr(0),
	})
	require.NoError(t, err)
	require.True(t, resp.Completed)

	impl := svc.(*interviewService)
	_, held := impl.locks.Load(started.SessionID)
	assert.False(t, held)
}

func TestGetSessionProjection(t *testing.T) {
	svc, _, db, user := newInterviewFixture(t)
	started, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	detail, err := svc.GetSession(user.ID, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, started.SessionID, detail.ID)
	assert.Equal(t, "Backend engineer role", detail.JDText)
	assert.Equal(t, DifficultyBeginner, detail.Difficulty)
	assert.Equal(t, started.Questions, detail.QuestionsAsked)
	assert.False(t, detail.IsCompleted)
	assert.Nil(t, detail.CompletedAt)

	for i := range started.Questions {
		_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
			SessionID:     started.SessionID,
			Answer:        "answer",
			QuestionIndex: intPtr(i),
		})
		require.NoError(t, err)
	}

	detail, err = svc.GetSession(user.ID, started.SessionID)
	require.NoError(t, err)
	assert.True(t, detail.IsCompleted)
	require.NotNil(t, detail.CompletedAt)
	require.NotNil(t, detail.Score)

	other := createTestUser(t, db, "stranger@example.com")
	_, err = svc.GetSession(other.ID, started.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessionsSummaries(t *testing.T) {
	svc, _, _, user := newInterviewFixture(t)
	first, err := svc.StartSession(user.ID, startInput())
	require.NoError(t, err)
	_, err = svc.StartSession(user.ID, startInput())
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(user.ID, dto.SubmitAnswerRequest{
		SessionID:     first.SessionID,
		Answer:        "answer",
		QuestionIndex: intPtr(0),
	})
	require.NoError(t, err)

	summaries, err := svc.ListSessions(user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, summary := range summaries {
		assert.Equal(t, 3, summary.TotalQuestions)
		if summary.ID == first.SessionID {
			assert.Equal(t, 1, summary.AnsweredCount)
		} else {
			assert.Equal(t, 0, summary.AnsweredCount)
		}
	}
}

func TestParseQuestionList(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "bare array",
			raw:  `["One?","Two?"]`,
			want: []string{"One?", "Two?"},
		},
		{
			name: "fenced markdown",
			raw:  "```json\n[\"One?\",\"Two?\"]\n```",
			want: []string{"One?", "Two?"},
		},
		{
			name: "surrounding prose",
			raw:  "Here you go:\n[\"Only question?\"]\nGood luck!",
			want: []string{"Only question?"},
		},
		{
			name: "blank entries dropped",
			raw:  `["One?","  ",""]`,
			want: []string{"One?"},
		},
		{name: "no array", raw: "I refuse.", wantErr: true},
		{name: "array of objects", raw: `[{"q":"One?"}]`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseQuestionList(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "bare number", raw: "73", want: 73},
		{name: "with prose", raw: "Score: 45/100", want: 45},
		{name: "clamped high", raw: "250", want: 100},
		{name: "clamped low", raw: "-3", want: 1},
		{name: "no number", raw: "excellent", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseScore(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	got, err := NormalizeDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyIntermediate, got)

	got, err = NormalizeDifficulty(" Advanced ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAdvanced, got)

	_, err = NormalizeDifficulty("impossible")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestEstimatedDuration(t *testing.T) {
	assert.Equal(t, "15-25 minutes", estimatedDuration(5))
	assert.Equal(t, "24-40 minutes", estimatedDuration(8))
}
