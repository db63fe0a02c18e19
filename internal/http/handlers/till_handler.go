package handlers

import (
	"errors"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"tillpos/internal/domain"
	"tillpos/internal/draft"
	applog "tillpos/internal/log"
	"tillpos/internal/services"
	"tillpos/internal/validate"
	"tillpos/internal/workflow"
)

const maxCommandText = 120

type TillHandler struct {
	Flow   *workflow.Workflow
	Orders *services.OrderService
}

type commandRequest struct {
	Kind   string `json:"kind" form:"kind"`
	Text   string `json:"text" form:"text"`
	Method string `json:"method" form:"method"`
}

func (r commandRequest) command() (workflow.Command, bool) {
	if r.Kind == "" || utf8.RuneCountInString(r.Text) > maxCommandText {
		return workflow.Command{}, false
	}
	cmd := workflow.Command{Kind: workflow.Kind(r.Kind), Text: r.Text}
	if r.Method != "" {
		m, ok := validate.PaymentMethod(r.Method)
		if !ok {
			// let the workflow reject it with its own error
			m = domain.PaymentMethod(r.Method)
		}
		cmd.Method = m
	}
	return cmd, true
}

// commandError maps a workflow error to a status and an operator-facing
// message. Internal failures are logged and never shown.
func commandError(c *fiber.Ctx, err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrBusy):
		return fiber.StatusConflict, "Still working on the previous action."
	case errors.Is(err, workflow.ErrInvalidCommand):
		applog.Security(c, "validation.fail", map[string]any{"field": "kind", "error": err.Error()})
		return fiber.StatusUnprocessableEntity, "That action is not available right now."
	case errors.Is(err, workflow.ErrDraftEmpty),
		errors.Is(err, draft.ErrInvalidAmount),
		errors.Is(err, draft.ErrNeedsAmount),
		errors.Is(err, services.ErrInsufficientPayment),
		errors.Is(err, services.ErrInvalidPaymentMethod),
		errors.Is(err, services.ErrEmptyOrder):
		applog.Info(c, "workflow.rejected", map[string]any{"reason": err.Error()})
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrSaleAlreadyRecorded):
		return fiber.StatusConflict, err.Error() + ". Reset the sale and check the order list."
	case errors.Is(err, services.ErrCommitFailed):
		applog.Error(c, "workflow.commit.fail", err, nil)
		return fiber.StatusInternalServerError, "The sale could not be recorded. Please try again."
	}
	applog.Error(c, "workflow.fail", err, nil)
	return fiber.StatusInternalServerError, "Something went wrong. Please try again."
}

func (h *TillHandler) Home(c *fiber.Ctx) error {
	return h.page(c, fiber.StatusOK, h.Flow.Snapshot(), "")
}

// Command handles the HTML form. Successful commands redirect back to the
// home screen so a reload never repeats them.
func (h *TillHandler) Command(c *fiber.Ctx) error {
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return h.page(c, fiber.StatusBadRequest, h.Flow.Snapshot(), "Invalid request.")
	}
	cmd, ok := req.command()
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "command"})
		return h.page(c, fiber.StatusUnprocessableEntity, h.Flow.Snapshot(), "Invalid command.")
	}

	snap, err := h.Flow.Dispatch(c.UserContext(), cmd)
	if err != nil {
		status, msg := commandError(c, err)
		return h.page(c, status, snap, msg)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *TillHandler) page(c *fiber.Ctx, status int, snap workflow.Snapshot, errMsg string) error {
	next, err := h.Orders.NextCode(c.UserContext())
	if err != nil {
		applog.Error(c, "orders.next_code", err, nil)
	}
	return render(c.Status(status), "home", fiber.Map{
		"S":        snap,
		"State":    snap.State.String(),
		"NextCode": next,
		"Methods":  domain.PaymentMethods,
		"Cash":     domain.PaymentCash,
		"Err":      errMsg,
	})
}

// State returns the current snapshot as JSON.
func (h *TillHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.Flow.Snapshot())
}

// Dispatch is the JSON twin of Command.
func (h *TillHandler) Dispatch(c *fiber.Ctx) error {
	// a cross-site form can only send urlencoded or multipart bodies
	if !c.Is("json") {
		applog.Security(c, "validation.fail", map[string]any{"field": "content_type"})
		return jsonError(c, fiber.StatusUnsupportedMediaType, "commands must be sent as application/json")
	}
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	cmd, ok := req.command()
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "command"})
		return jsonError(c, fiber.StatusUnprocessableEntity, "invalid command")
	}

	snap, err := h.Flow.Dispatch(c.UserContext(), cmd)
	if err != nil {
		status, msg := commandError(c, err)
		return c.Status(status).JSON(fiber.Map{"error": msg, "state": snap})
	}
	return c.JSON(snap)
}
