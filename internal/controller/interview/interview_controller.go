package interview

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/middleware"
	"github.com/nxquan/prepmate/internal/service"
	"github.com/rs/zerolog/log"
)

type InterviewController struct {
	interviewService service.InterviewService
	extractor        service.ResumeExtractor
}

func NewInterviewController(is service.InterviewService, extractor service.ResumeExtractor) *InterviewController {
	return &InterviewController{interviewService: is, extractor: extractor}
}

// StartInterview godoc
// @Summary Start a mock interview session
// @Description Creates a session with AI-generated questions from the job description, optional resume and focus areas.
// @Tags Interviews
// @Accept mpfd
// @Produce json
// @Param jd_text formData string true "Job description text"
// @Param resume formData file false "Resume file (.pdf, .docx or .txt)"
// @Param focus_areas formData string false "Focus areas as a JSON array or comma-separated string"
// @Param difficulty formData string false "beginner, intermediate or advanced (default intermediate)"
// @Param role_type formData string false "Role type label"
// @Success 200 {object} dto.StartSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Validation failure"
// @Failure 500 {object} dto.ErrorResponse "Resume processing or internal error"
// @Security BearerAuth
// @Router /interviews/start [post]
func (c *InterviewController) StartInterview(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	var fieldErrors []string

	jdText := ctx.PostForm("jd_text")
	if jdText == "" {
		fieldErrors = append(fieldErrors, "jd_text is required")
	}

	difficulty, err := service.NormalizeDifficulty(ctx.PostForm("difficulty"))
	if err != nil {
		fieldErrors = append(fieldErrors, "difficulty must be one of beginner, intermediate, advanced")
	}

	if len(fieldErrors) > 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Validation failed", Details: fieldErrors})
		return
	}

	in := dto.StartSessionInput{
		JDText:     jdText,
		FocusAreas: parseFocusAreas(ctx),
		Difficulty: difficulty,
	}
	if roleType := ctx.PostForm("role_type"); roleType != "" {
		in.RoleType = &roleType
	}

	if file, err := ctx.FormFile("resume"); err == nil {
		stored := uuid.New().String() + filepath.Ext(file.Filename)
		dest := filepath.Join(c.extractor.UploadDir(), stored)
		if err := ctx.SaveUploadedFile(file, dest); err != nil {
			log.Error().Err(err).Str("filename", file.Filename).Msg("StartInterview: failed to store resume upload")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to process resume file"})
			return
		}

		text, err := c.extractor.ExtractText(dest, file.Filename)
		if err != nil {
			// The resume became required input the moment it was supplied;
			// no fallback here (unlike the AI collaborator path).
			log.Error().Err(err).Str("filename", file.Filename).Msg("StartInterview: resume extraction failed")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to process resume file"})
			return
		}
		in.ResumeText = text
		in.ResumeFile = &stored
	} else if !errors.Is(err, http.ErrMissingFile) {
		// Anything other than an absent file part is a broken upload, not
		// a resume-less request.
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid resume upload", Details: []string{err.Error()}})
		return
	}

	resp, err := c.interviewService.StartSession(userID, in)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("StartInterview: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to start interview session"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAnswer godoc
// @Summary Submit an answer for a session question
// @Description Records the answer at the given index. Answering the last question completes the session with AI feedback and a score.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param answer body dto.SubmitAnswerRequest true "Session id, answer text and question index"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Validation failure or index out of range"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session already completed"
// @Security BearerAuth
// @Router /interviews/answer [post]
func (c *InterviewController) SubmitAnswer(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.interviewService.SubmitAnswer(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Interview session not found"})
		case errors.Is(err, service.ErrSessionCompleted):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: "Interview session is already completed"})
		case errors.Is(err, service.ErrInvalidQuestionIndex):
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Question index out of range"})
		default:
			log.Error().Err(err).Uint("sessionID", req.SessionID).Msg("SubmitAnswer: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to submit answer"})
		}
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetSession godoc
// @Summary Get a session's full state
// @Tags Interviews
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} dto.SessionDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid session id"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /interviews/session/{id} [get]
func (c *InterviewController) GetSession(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	sessionID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid session ID format"})
		return
	}

	detail, err := c.interviewService.GetSession(userID, uint(sessionID))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Interview session not found"})
			return
		}
		log.Error().Err(err).Uint64("sessionID", sessionID).Msg("GetSession: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to load interview session"})
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// ListSessions godoc
// @Summary List the caller's interview sessions
// @Tags Interviews
// @Produce json
// @Success 200 {array} dto.SessionSummaryDTO
// @Security BearerAuth
// @Router /interviews [get]
func (c *InterviewController) ListSessions(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	summaries, err := c.interviewService.ListSessions(userID)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("ListSessions: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list interview sessions"})
		return
	}
	ctx.JSON(http.StatusOK, summaries)
}

// parseFocusAreas accepts repeated form fields, a JSON array string, or a
// comma-separated string, and normalizes all of them to one list.
func parseFocusAreas(ctx *gin.Context) []string {
	values := ctx.PostFormArray("focus_areas")
	if len(values) > 1 {
		return values
	}
	if len(values) == 1 {
		return dto.ParseStringList(values[0])
	}
	return nil
}
