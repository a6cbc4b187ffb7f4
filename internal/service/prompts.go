package service

import (
	"fmt"
	"strings"

	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
)

func buildQuestionPrompt(in dto.StartSessionInput, minQuestions, maxQuestions int) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced interviewer preparing a mock job interview.\n\n")
	sb.WriteString("Job Description:\n---\n")
	sb.WriteString(in.JDText)
	sb.WriteString("\n---\n\n")

	if in.ResumeText != "" {
		sb.WriteString("Candidate Resume:\n---\n")
		sb.WriteString(in.ResumeText)
		sb.WriteString("\n---\n\n")
	}

	focus := "general technical and behavioral questions"
	if len(in.FocusAreas) > 0 {
		focus = strings.Join(in.FocusAreas, ", ")
	}
	sb.WriteString(fmt.Sprintf("Focus areas: %s\n", focus))
	sb.WriteString(fmt.Sprintf("Difficulty level: %s\n", in.Difficulty))
	if in.RoleType != nil && *in.RoleType != "" {
		sb.WriteString(fmt.Sprintf("Role type: %s\n", *in.RoleType))
	}

	sb.WriteString(fmt.Sprintf("\nGenerate between %d and %d interview questions tailored to this job description", minQuestions, maxQuestions))
	if in.ResumeText != "" {
		sb.WriteString(" and the candidate's resume")
	}
	sb.WriteString(".\n")
	sb.WriteString("Return ONLY a JSON array of question strings, no markdown, no numbering, no explanation.\n")
	sb.WriteString(`Example: ["Question one?", "Question two?"]`)
	return sb.String()
}

func buildFeedbackPrompt(session *model.InterviewSession) string {
	var sb strings.Builder
	sb.WriteString("You are an expert interview coach. A candidate has just completed a mock interview for the following role.\n\n")
	sb.WriteString("Job Description:\n---\n")
	sb.WriteString(session.JDText)
	sb.WriteString("\n---\n\n")
	if session.ResumeText != "" {
		sb.WriteString("Candidate Resume:\n---\n")
		sb.WriteString(session.ResumeText)
		sb.WriteString("\n---\n\n")
	}
	sb.WriteString("Interview transcript:\n")
	sb.WriteString(formatTranscript(session))
	sb.WriteString("\nProvide constructive feedback on the candidate's performance: strengths, weaknesses, and concrete suggestions for improvement. Keep it concise and actionable.")
	return sb.String()
}

func buildScorePrompt(session *model.InterviewSession) string {
	var sb strings.Builder
	sb.WriteString("You are an expert interviewer scoring a completed mock interview.\n\n")
	sb.WriteString("Job Description:\n---\n")
	sb.WriteString(session.JDText)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Interview transcript:\n")
	sb.WriteString(formatTranscript(session))
	sb.WriteString("\nRate the candidate's overall performance as a single number between 1 and 100, where 100 is a flawless interview. Respond with the number only.")
	return sb.String()
}

func formatTranscript(session *model.InterviewSession) string {
	var sb strings.Builder
	for i, question := range session.QuestionsAsked {
		answer := "(no answer provided)"
		if i < len(session.AnswersGiven) && session.AnswersGiven[i] != "" {
			answer = session.AnswersGiven[i]
		}
		sb.WriteString(fmt.Sprintf("%d. Q: %s\n   A: %s\n", i+1, question, answer))
	}
	return sb.String()
}
