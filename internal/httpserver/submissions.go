package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type SubmissionsHTTP struct {
	Svc *service.SubmissionService
}

func (h *SubmissionsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.create")

	var req transport.SubmissionRequest
	if err := bindOrWarn(c, l, "create_submission_failed", &req); err != nil {
		return err
	}
	sub, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_submission_failed", err)
	}

	l.Info("create_submission_success", "submission_id", sub.ID)
	return c.JSON(http.StatusCreated, sub)
}

func (h *SubmissionsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.list")

	subs, err := h.Svc.List(ctx, c.QueryParam("status"), c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return fail(l, "list_submissions_failed", err)
	}
	return c.JSON(http.StatusOK, subs)
}

func (h *SubmissionsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.get")

	id, err := pathID(c, l, "get_submission_failed")
	if err != nil {
		return err
	}
	sub, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_submission_failed", err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *SubmissionsHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.patch")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "patch_submission_failed")
	if err != nil {
		return err
	}
	var req transport.PatchSubmissionRequest
	if err := bindOrWarn(c, l, "patch_submission_failed", &req); err != nil {
		return err
	}

	sub, err := h.Svc.Update(ctx, p.ID, id, req)
	if err != nil {
		return fail(l, "patch_submission_failed", err)
	}

	l.Info("patch_submission_success", "submission_id", id, "submission_status", sub.Status)
	return c.JSON(http.StatusOK, sub)
}

func (h *SubmissionsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.delete")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "delete_submission_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, p.ID, id); err != nil {
		return fail(l, "delete_submission_failed", err)
	}

	l.Info("delete_submission_success", "submission_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *SubmissionsHTTP) AddNote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.add_note")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "add_note_failed")
	if err != nil {
		return err
	}
	var req transport.NoteRequest
	if err := bindOrWarn(c, l, "add_note_failed", &req); err != nil {
		return err
	}

	n, err := h.Svc.AddNote(ctx, p.ID, id, req)
	if err != nil {
		return fail(l, "add_note_failed", err)
	}

	l.Info("add_note_success", "submission_id", id, "note_id", n.ID)
	return c.JSON(http.StatusCreated, n)
}

func (h *SubmissionsHTTP) Notes(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "submissions.notes")

	id, err := pathID(c, l, "list_notes_failed")
	if err != nil {
		return err
	}
	notes, err := h.Svc.Notes(ctx, id)
	if err != nil {
		return fail(l, "list_notes_failed", err)
	}
	return c.JSON(http.StatusOK, notes)
}
