package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound      = errors.New("interview session not found")
	ErrSessionCompleted     = errors.New("interview session already completed")
	ErrInvalidQuestionIndex = errors.New("question index out of range")
	ErrInvalidDifficulty    = errors.New("invalid difficulty level")
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"

	minGeneratedQuestions = 5
	maxGeneratedQuestions = 8

	// fallbackScore is stored when the collaborator fails during scoring
	// or returns nothing parseable.
	fallbackScore = 75
)

// fallbackQuestions is served when question generation fails. The start
// request must still succeed with exactly these five questions.
var fallbackQuestions = []string{
	"Tell me about yourself and your professional background.",
	"Why are you interested in this role?",
	"Describe a challenging project you worked on and how you handled it.",
	"What are your greatest strengths, and how do they apply to this position?",
	"Where do you see yourself in five years?",
}

const fallbackFeedback = "Thank you for completing the mock interview. Your answers have been recorded. " +
	"Detailed AI feedback is temporarily unavailable; reviewing your answers against the job description " +
	"requirements is a good next step while we restore it."

type InterviewService interface {
	StartSession(userID uint, in dto.StartSessionInput) (*dto.StartSessionResponse, error)
	SubmitAnswer(userID uint, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	GetSession(userID uint, sessionID uint) (*dto.SessionDetailDTO, error)
	ListSessions(userID uint) ([]dto.SessionSummaryDTO, error)
}

type interviewService struct {
	sessionRepo repository.SessionRepository
	llm         TextGenerator

	// locks serializes SubmitAnswer per session so concurrent submissions
	// cannot lose an answer slot or double-trigger completion.
	locks sync.Map // session id -> *sync.Mutex
}

func NewInterviewService(sessionRepo repository.SessionRepository, llm TextGenerator) InterviewService {
	return &interviewService{sessionRepo: sessionRepo, llm: llm}
}

// NormalizeDifficulty defaults an empty difficulty to intermediate and
// rejects anything outside the known set.
func NormalizeDifficulty(difficulty string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "":
		return DifficultyIntermediate, nil
	case DifficultyBeginner:
		return DifficultyBeginner, nil
	case DifficultyIntermediate:
		return DifficultyIntermediate, nil
	case DifficultyAdvanced:
		return DifficultyAdvanced, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

func (s *interviewService) StartSession(userID uint, in dto.StartSessionInput) (*dto.StartSessionResponse, error) {
	questions := s.generateQuestions(context.Background(), in)

	session := model.InterviewSession{
		UserID:         userID,
		JDText:         in.JDText,
		ResumeText:     in.ResumeText,
		ResumeFile:     in.ResumeFile,
		FocusAreas:     in.FocusAreas,
		Difficulty:     in.Difficulty,
		RoleType:       in.RoleType,
		QuestionsAsked: questions,
		// Fixed-length answer slots; an empty string marks an unanswered index.
		AnswersGiven: make([]string, len(questions)),
	}
	if err := s.sessionRepo.Create(&session); err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("StartSession: failed to persist session")
		return nil, fmt.Errorf("failed to create interview session: %w", err)
	}

	log.Info().Uint("sessionID", session.ID).Uint("userID", userID).Int("questions", len(questions)).Msg("Interview session started")
	return &dto.StartSessionResponse{
		SessionID: session.ID,
		Questions: questions,
		Instructions: dto.SessionInstructions{
			TotalQuestions:    len(questions),
			Difficulty:        session.Difficulty,
			EstimatedDuration: estimatedDuration(len(questions)),
		},
	}, nil
}

func (s *interviewService) SubmitAnswer(userID uint, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	mu := s.lockFor(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.sessionRepo.FindByIDAndUser(req.SessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load interview session: %w", err)
	}

	if session.IsCompleted() {
		return nil, ErrSessionCompleted
	}

	idx := *req.QuestionIndex
	total := len(session.QuestionsAsked)
	if idx < 0 || idx >= total {
		return nil, ErrInvalidQuestionIndex
	}

	// Last write wins; resubmitting an index overwrites its slot.
	session.AnswersGiven[idx] = req.Answer

	if idx == total-1 {
		resp, err := s.completeSession(session)
		if err == nil {
			// Completed sessions reject all further submissions, so the
			// lock entry is no longer needed.
			s.locks.Delete(session.ID)
		}
		return resp, err
	}

	if err := s.sessionRepo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	next := session.QuestionsAsked[idx+1]
	return &dto.SubmitAnswerResponse{
		Completed:    false,
		NextQuestion: &next,
		Progress: &dto.AnswerProgress{
			Current:    idx + 1,
			Total:      total,
			Percentage: (idx + 1) * 100 / total,
		},
	}, nil
}

// completeSession runs feedback and score generation concurrently (neither
// depends on the other), persists the terminal state, and reports it.
func (s *interviewService) completeSession(session *model.InterviewSession) (*dto.SubmitAnswerResponse, error) {
	var (
		feedback string
		score    int
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		feedback = s.generateFeedback(ctx, session)
		return nil
	})
	g.Go(func() error {
		score = s.generateScore(ctx, session)
		return nil
	})
	// Both branches recover locally with fallback values.
	_ = g.Wait()

	now := time.Now()
	session.Feedback = &feedback
	session.Score = &score
	session.CompletedAt = &now

	if err := s.sessionRepo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to persist completed session: %w", err)
	}

	log.Info().Uint("sessionID", session.ID).Int("score", score).Msg("Interview session completed")
	return &dto.SubmitAnswerResponse{
		Completed:    true,
		NextQuestion: nil,
		Feedback:     &feedback,
		Score:        &score,
	}, nil
}

func (s *interviewService) GetSession(userID uint, sessionID uint) (*dto.SessionDetailDTO, error) {
	session, err := s.sessionRepo.FindByIDAndUser(sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load interview session: %w", err)
	}

	var detail dto.SessionDetailDTO
	if err := copier.Copy(&detail, session); err != nil {
		return nil, fmt.Errorf("error preparing session response: %w", err)
	}
	detail.IsCompleted = session.IsCompleted()
	return &detail, nil
}

func (s *interviewService) ListSessions(userID uint) ([]dto.SessionSummaryDTO, error) {
	sessions, err := s.sessionRepo.FindAllByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interview sessions: %w", err)
	}

	summaries := make([]dto.SessionSummaryDTO, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		summaries = append(summaries, dto.SessionSummaryDTO{
			ID:             session.ID,
			Difficulty:     session.Difficulty,
			RoleType:       session.RoleType,
			TotalQuestions: len(session.QuestionsAsked),
			AnsweredCount:  session.AnsweredCount(),
			Score:          session.Score,
			CreatedAt:      session.CreatedAt,
			CompletedAt:    session.CompletedAt,
			IsCompleted:    session.IsCompleted(),
		})
	}
	return summaries, nil
}

func (s *interviewService) lockFor(sessionID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// generateQuestions asks the collaborator for a tailored question list and
// degrades to the fixed fallback set on any failure. It never errors.
func (s *interviewService) generateQuestions(ctx context.Context, in dto.StartSessionInput) []string {
	prompt := buildQuestionPrompt(in, minGeneratedQuestions, maxGeneratedQuestions)
	raw, err := s.llm.GenerateText(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Question generation failed, serving fallback questions")
		return append([]string(nil), fallbackQuestions...)
	}

	questions, err := parseQuestionList(raw)
	if err != nil || len(questions) == 0 {
		log.Warn().Err(err).Str("raw", raw).Msg("Question generation returned malformed output, serving fallback questions")
		return append([]string(nil), fallbackQuestions...)
	}
	return questions
}

func (s *interviewService) generateFeedback(ctx context.Context, session *model.InterviewSession) string {
	raw, err := s.llm.GenerateText(ctx, buildFeedbackPrompt(session))
	if err != nil || strings.TrimSpace(raw) == "" {
		log.Warn().Err(err).Uint("sessionID", session.ID).Msg("Feedback generation failed, serving placeholder feedback")
		return fallbackFeedback
	}
	return strings.TrimSpace(raw)
}

func (s *interviewService) generateScore(ctx context.Context, session *model.InterviewSession) int {
	raw, err := s.llm.GenerateText(ctx, buildScorePrompt(session))
	if err != nil {
		log.Warn().Err(err).Uint("sessionID", session.ID).Msg("Score generation failed, serving default score")
		return fallbackScore
	}

	score, err := parseScore(raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Uint("sessionID", session.ID).Msg("Score response unparsable, serving default score")
		return fallbackScore
	}
	return score
}

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
	integerPattern   = regexp.MustCompile(`-?\d+`)
)

// parseQuestionList extracts a JSON array of strings from a model response,
// tolerating markdown code fences and surrounding prose.
func parseQuestionList(raw string) ([]string, error) {
	match := jsonArrayPattern.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var items []string
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil, fmt.Errorf("response is not a JSON array of strings: %w", err)
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	return questions, nil
}

// parseScore takes the first integer found in the response and clamps it
// into [1,100].
func parseScore(raw string) (int, error) {
	match := integerPattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no number found in score response")
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("could not parse score value %q: %w", match, err)
	}
	return clampScore(n), nil
}

func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

// estimatedDuration assumes 3-5 minutes per question.
func estimatedDuration(questionCount int) string {
	return fmt.Sprintf("%d-%d minutes", questionCount*3, questionCount*5)
}
