package httpapi

import (
	"errors"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

// reconstructRequest is the wire DTO for POST /reconstruct, decoupled from
// internal/domain.ReconstructionRequest so JSON shape changes don't leak
// into the core pipeline's types.
type reconstructRequest struct {
	UserID      string    `json:"user_id"`
	AlgorithmID string    `json:"algorithm_id"`
	ModelID     string    `json:"model_id"`
	G           []float64 `json:"g"`
}

func (s *Server) handleReconstruct(c *fiber.Ctx) error {
	var body reconstructRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	req, err := body.toDomain()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	atomic.AddInt64(&s.inflight, 1)
	defer atomic.AddInt64(&s.inflight, -1)

	result, err := s.orchestrator.Handle(c.Context(), req)
	if err != nil {
		return mapDomainError(err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap, err := s.probe.Snapshot()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusOK).JSON(snap)
}

// toDomain validates and converts the wire DTO. len(g)==0 and a malformed
// user_id are treated as BadRequest before ever reaching the orchestrator.
func (b reconstructRequest) toDomain() (domain.ReconstructionRequest, error) {
	userID, err := parseOrGenerateUserID(b.UserID)
	if err != nil {
		return domain.ReconstructionRequest{}, err
	}
	if len(b.G) == 0 {
		return domain.ReconstructionRequest{}, errEmptySignal
	}
	return domain.ReconstructionRequest{
		UserID:      userID,
		AlgorithmID: domain.Algorithm(b.AlgorithmID),
		ModelID:     b.ModelID,
		G:           b.G,
	}, nil
}

// mapDomainError maps a domain.DomainError's Kind to the §7 status table.
// Anything else (a programming error slipping through) becomes a 500.
func mapDomainError(err error) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	switch de.Kind {
	case domain.ErrUnknownModel, domain.ErrUnknownAlgorithm,
		domain.ErrModelParse, domain.ErrModelDimensionMismatch, domain.ErrModelExceedsCapacity:
		return fiber.NewError(fiber.StatusBadRequest, de.Error())
	case domain.ErrQueueFull:
		return fiber.NewError(fiber.StatusServiceUnavailable, de.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, de.Error())
	}
}
