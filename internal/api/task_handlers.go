package api

import (
	"github.com/arcline-lab/chainsuite/internal/api/middleware"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/gofiber/fiber/v2"
)

type taskRequest struct {
	Type         string `json:"type" validate:"required"`
	TokenOut     string `json:"token_out"`
	MinAmountOut string `json:"min_amount_out"`
	Destination  string `json:"destination"`
	Epoch        uint64 `json:"epoch"`
}

type composeTasksRequest struct {
	Payment     paymentRequest `json:"payment" validate:"required"`
	Tasks       []taskRequest  `json:"tasks" validate:"required,min=1,dive"`
	Destination string         `json:"destination"`
}

func (s *APIServer) handleComposeTasks(c *fiber.Ctx) error {
	user := middleware.GetAuthenticatedUser(c)
	var req composeTasksRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	payment, err := req.Payment.toPayment()
	if err != nil {
		return s.respondError(c, err)
	}

	tasks := make([]services.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		task := services.Task{
			Type:        services.TaskType(t.Type),
			TokenOut:    t.TokenOut,
			Destination: t.Destination,
			Epoch:       t.Epoch,
		}
		if t.MinAmountOut != "" {
			minOut, err := parseAmountField(t.MinAmountOut, "min_amount_out")
			if err != nil {
				return s.respondError(c, err)
			}
			task.MinAmountOut = minOut
		}
		tasks = append(tasks, task)
	}

	result, err := s.services.Pipeline.ComposeTasks(c.UserContext(), user.Address, payment, tasks, req.Destination)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"payment":   toPaymentResponse(result.Payment),
		"recipient": result.Recipient,
	})
}
