package coverletters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coverletter-backend/internal/extract"
	"coverletter-backend/internal/llm"
	"coverletter-backend/internal/resumes"
	"coverletter-backend/internal/shared/metrics"
	"coverletter-backend/internal/shared/telemetry"
	"coverletter-backend/internal/submissions"
	"coverletter-backend/internal/users"
)

type ProfileStore interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

type ResumeStore interface {
	GetOwned(ctx context.Context, userID, resumeID string) (resumes.Resume, error)
	Save(ctx context.Context, userID, fileName, mimeType string, data []byte, text string) (resumes.Resume, error)
}

type SubmissionStore interface {
	Record(ctx context.Context, userID string, sub submissions.Submission) (submissions.Submission, error)
}

// Extractor turns an uploaded file into plain text.
type Extractor func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)

// Service runs the generation pipeline for one request at a time per call.
type Service struct {
	Profiles    ProfileStore
	Resumes     ResumeStore
	Submissions SubmissionStore
	LLM         llm.Client
	Prompts     *PromptBuilder
	Policy      ModelPolicy
	Extract     Extractor

	// CallTimeout bounds each model call. Zero means no extra deadline.
	CallTimeout time.Duration
	// OnTransition, when set, observes every state change.
	OnTransition func(Transition)

	now func() time.Time
}

func NewService(profiles ProfileStore, resumeStore ResumeStore, subs SubmissionStore, client llm.Client, prompts *PromptBuilder, policy ModelPolicy) *Service {
	return &Service{
		Profiles:    profiles,
		Resumes:     resumeStore,
		Submissions: subs,
		LLM:         client,
		Prompts:     prompts,
		Policy:      policy,
		Extract:     extract.ExtractTextFromBytes,
		CallTimeout: 45 * time.Second,
		now:         time.Now,
	}
}

// run tracks the state of one Generate call.
type run struct {
	svc    *Service
	userID string
	state  State
}

func (r *run) to(next State, cause error) {
	if !CanTransition(r.state, next) {
		panic(fmt.Sprintf("coverletters: illegal transition %s -> %s", r.state, next))
	}
	t := Transition{UserID: r.userID, From: r.state, To: next, At: r.svc.now().UTC(), Err: cause}
	r.state = next

	fields := map[string]any{"user_id": r.userID, "from": string(t.From), "to": string(t.To)}
	if cause != nil {
		fields["error"] = cause
	}
	telemetry.Debug("coverletter.state", fields)
	if r.svc.OnTransition != nil {
		r.svc.OnTransition(t)
	}
}

func (r *run) fail(kind Kind, err error) error {
	at := r.state
	r.to(StateFailed, err)
	metrics.IncGenerationFailed()
	if kind == KindPersistenceFailure && at == StatePersisting {
		metrics.IncPersistenceFailed()
	}
	telemetry.Warn("coverletter.failed", map[string]any{
		"user_id": r.userID,
		"state":   string(at),
		"kind":    string(kind),
		"error":   err,
	})
	return &Error{Kind: kind, State: at, Err: err}
}

// Generate produces, saves and returns a cover letter for userID.
func (s *Service) Generate(ctx context.Context, userID string, in GenerateInput) (Result, error) {
	started := s.now()
	r := &run{svc: s, userID: userID, state: StateIdle}
	metrics.IncGenerationStarted()

	r.to(StateResolvingInput, nil)
	user, err := s.Profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Result{}, r.fail(KindPermissionDenied, err)
		}
		return Result{}, r.fail(KindPersistenceFailure, err)
	}
	profile := Profile{
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		PreferredModel:      user.PreferredModel,
		CoverLetterTemplate: user.CoverLetterTemplate,
	}
	resume, kind, err := s.resolveResume(ctx, userID, in)
	if err != nil {
		return Result{}, r.fail(kind, err)
	}
	req := SubmissionRequest{
		ResumeText:     resume.Content,
		FocusAreas:     in.FocusAreas,
		JobDescription: in.JobDescription,
	}
	model := s.Policy.Effective(profile.PreferredModel)

	r.to(StateExtractingMetadata, nil)
	meta, degraded := s.extractMetadata(ctx, userID, model, req)

	r.to(StateBuildingFinalPrompt, nil)
	prompt := s.Prompts.BuildFinal(req, profile, meta)

	r.to(StateGeneratingLetter, nil)
	letter, err := s.call(ctx, model, s.Prompts.System(), prompt)
	if err != nil {
		return Result{}, r.fail(kindForLLM(err), err)
	}
	letter = strings.TrimSpace(letter)
	if letter == "" {
		return Result{}, r.fail(KindMalformedReply, errEmptyLetter)
	}

	r.to(StatePersisting, nil)
	sub, err := s.Submissions.Record(ctx, userID, submissions.Submission{
		ResumeID:         resume.ID,
		CompanyName:      meta.CompanyName,
		JobTitle:         meta.JobTitle,
		JobDescription:   in.JobDescription,
		FocusAreas:       in.FocusAreas,
		CoverLetter:      letter,
		Model:            model,
		MetadataDegraded: degraded,
	})
	if err != nil {
		return Result{}, r.fail(KindPersistenceFailure, err)
	}

	r.to(StateDone, nil)
	elapsed := s.now().Sub(started)
	metrics.IncGenerationCompleted()
	metrics.ObserveGenerationDurationMs(float64(elapsed.Milliseconds()))
	telemetry.Info("coverletter.completed", map[string]any{
		"user_id":           userID,
		"submission_id":     sub.ID,
		"model":             model,
		"metadata_degraded": degraded,
		"duration_ms":       elapsed.Milliseconds(),
	})

	return Result{
		SubmissionID:     sub.ID,
		ResumeID:         resume.ID,
		CoverLetter:      letter,
		CompanyName:      meta.CompanyName,
		JobTitle:         meta.JobTitle,
		Model:            model,
		MetadataDegraded: degraded,
		CreatedAt:        sub.CreatedAt,
	}, nil
}

// resolveResume checks ownership of a referenced résumé before anything is
// written, then prefers a fresh upload over the saved copy. A reference to a
// résumé that no longer exists is ignored when a file was uploaded.
func (s *Service) resolveResume(ctx context.Context, userID string, in GenerateInput) (resumes.Resume, Kind, error) {
	hasUpload := in.Upload != nil && len(in.Upload.Data) > 0

	var saved resumes.Resume
	if id := strings.TrimSpace(in.ResumeID); id != "" {
		var err error
		saved, err = s.Resumes.GetOwned(ctx, userID, id)
		switch {
		case errors.Is(err, resumes.ErrForbidden):
			return resumes.Resume{}, KindPermissionDenied, err
		case errors.Is(err, resumes.ErrNotFound):
			if !hasUpload {
				return resumes.Resume{}, KindInputMissing, fmt.Errorf("saved resume %s: %w", id, err)
			}
			saved = resumes.Resume{}
		case err != nil:
			return resumes.Resume{}, KindPersistenceFailure, err
		}
	}

	if !hasUpload {
		if saved.ID == "" {
			return resumes.Resume{}, KindInputMissing, errNoResume
		}
		return saved, "", nil
	}

	up := in.Upload
	if !extract.Allowed(up.FileName) {
		return resumes.Resume{}, KindUnsupportedFileType, errUnsupportedFile
	}
	text, err := s.Extract(ctx, up.Data, up.MimeType, up.FileName)
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		return resumes.Resume{}, KindUnsupportedFileType, err
	case err != nil:
		return resumes.Resume{}, KindUnreadableDocument, err
	}
	stored, err := s.Resumes.Save(ctx, userID, up.FileName, up.MimeType, up.Data, text)
	if err != nil {
		return resumes.Resume{}, KindPersistenceFailure, err
	}
	return stored, "", nil
}

// extractMetadata never fails; on error it returns empty metadata and degraded=true.
func (s *Service) extractMetadata(ctx context.Context, userID, model string, req SubmissionRequest) (Metadata, bool) {
	reply, err := s.call(ctx, model, s.Prompts.MetadataSystem(), s.Prompts.BuildMetadata(req))
	if err != nil {
		metrics.IncMetadataDegraded()
		telemetry.Warn("coverletter.metadata_degraded", map[string]any{
			"user_id": userID,
			"model":   model,
			"kind":    string(kindForLLM(err)),
			"error":   err,
		})
		return Metadata{}, true
	}
	return ParseMetadata(reply), false
}

func (s *Service) call(ctx context.Context, model, system, prompt string) (string, error) {
	if s.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CallTimeout)
		defer cancel()
	}
	return s.LLM.Generate(ctx, model, system, prompt)
}

func kindForLLM(err error) Kind {
	switch {
	case errors.Is(err, llm.ErrAuth):
		return KindRemoteAuthFailure
	case errors.Is(err, llm.ErrMalformedReply):
		return KindMalformedReply
	default:
		return KindRemoteCallFailure
	}
}
