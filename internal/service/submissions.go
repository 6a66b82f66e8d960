package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

const dateLayout = "2006-01-02"

type SubmissionService struct {
	Store   repo.Store
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
	Audit   Auditor
}

// Create stores a contact-form lead. Anyone may submit one.
func (s *SubmissionService) Create(ctx context.Context, req transport.SubmissionRequest) (models.Submission, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return models.Submission{}, invalid("name, email and message are required")
	}

	sub, err := s.Store.CreateSubmission(ctx, models.Submission{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   req.Phone,
		Website: req.Website,
		Company: req.Company,
		Service: req.Service,
		Message: req.Message,
		Status:  models.SubmissionStatusNew,
	})
	if err != nil {
		return models.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	s.Metrics.SubmissionCreated()
	publish(ctx, s.Events, mykafka.TopicLead, mykafka.NewEvent("submission_created", sub.ID, 0,
		map[string]any{"service": sub.Service}))
	logging.FromContext(ctx).Info("submission_created", "submission_id", sub.ID)
	return sub, nil
}

// ParseDateBound accepts YYYY-MM-DD or RFC3339. A bare end date covers the whole day.
func ParseDateBound(v string, end bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, invalid("invalid date %q", v)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (s *SubmissionService) List(ctx context.Context, status, startDate, endDate string) ([]models.Submission, error) {
	if status != "" && !models.ValidSubmissionStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	start, err := ParseDateBound(startDate, false)
	if err != nil {
		return nil, err
	}
	end, err := ParseDateBound(endDate, true)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, invalid("endDate is before startDate")
	}
	return s.Store.ListSubmissions(ctx, repo.SubmissionFilter{Status: status, StartDate: start, EndDate: end})
}

func (s *SubmissionService) Get(ctx context.Context, id uint) (transport.SubmissionDetail, error) {
	sub, err := s.Store.GetSubmission(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return transport.SubmissionDetail{}, notFound("submission")
	}
	if err != nil {
		return transport.SubmissionDetail{}, err
	}
	notes, err := s.Store.ListNotes(ctx, id)
	if err != nil {
		return transport.SubmissionDetail{}, err
	}
	return transport.SubmissionDetail{Submission: sub, Notes: notes}, nil
}

func (s *SubmissionService) Update(ctx context.Context, actorID, id uint, req transport.PatchSubmissionRequest) (models.Submission, error) {
	cur, err := s.Store.GetSubmission(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Submission{}, notFound("submission")
	}
	if err != nil {
		return models.Submission{}, err
	}
	if req.Status != nil && !models.CanTransitionSubmission(cur.Status, *req.Status) {
		return models.Submission{}, newErr(ErrInvalidTransition, "cannot move submission from %s to %s", cur.Status, *req.Status)
	}

	sub, err := s.Store.UpdateSubmission(ctx, id, models.SubmissionPatch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
		Company: req.Company,
		Service: req.Service,
		Message: req.Message,
		Status:  req.Status,

		ExpectStatus: cur.Status,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return models.Submission{}, notFound("submission")
	}
	if errors.Is(err, repo.ErrStaleStatus) {
		return models.Submission{}, newErr(ErrInvalidTransition, "submission status changed, reload and retry")
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("update submission: %w", err)
	}

	details := map[string]any{"submissionId": id}
	if sub.Status != cur.Status {
		details["from"] = cur.Status
		details["to"] = sub.Status
		publish(ctx, s.Events, mykafka.TopicLead, mykafka.NewEvent("submission_status_changed", id, actorID,
			map[string]any{"from": cur.Status, "to": sub.Status}))
	}
	record(s.Audit, actorID, "submission.update", details)
	return sub, nil
}

func (s *SubmissionService) Delete(ctx context.Context, actorID, id uint) error {
	ok, err := s.Store.DeleteSubmission(ctx, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if !ok {
		return notFound("submission")
	}
	record(s.Audit, actorID, "submission.delete", map[string]any{"submissionId": id})
	return nil
}

func (s *SubmissionService) AddNote(ctx context.Context, actorID, id uint, req transport.NoteRequest) (models.Note, error) {
	if strings.TrimSpace(req.Content) == "" {
		return models.Note{}, invalid("content is required")
	}
	n, err := s.Store.CreateNote(ctx, models.Note{SubmissionID: id, UserID: actorID, Content: req.Content})
	if errors.Is(err, repo.ErrNotFound) {
		return models.Note{}, notFound("submission")
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w", err)
	}
	record(s.Audit, actorID, "submission.note", map[string]any{"submissionId": id, "noteId": n.ID})
	return n, nil
}

func (s *SubmissionService) Notes(ctx context.Context, id uint) ([]models.Note, error) {
	if _, err := s.Store.GetSubmission(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFound("submission")
		}
		return nil, err
	}
	return s.Store.ListNotes(ctx, id)
}
