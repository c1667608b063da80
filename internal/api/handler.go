package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/report"
)

// ReportRunner executes one report run, writing the rendered output to w.
type ReportRunner interface {
	Run(ctx context.Context, opts report.Options, progress report.ProgressFunc, w io.Writer) (int, error)
}

// GenerateRequest is the body of a report generation request. An empty body
// means all products.
type GenerateRequest struct {
	ProductAll     bool     `json:"productAll"`
	ProductChoices []string `json:"productChoices"`
}

// Validate checks that the product selection is coherent.
func (r *GenerateRequest) Validate() error {
	if !r.ProductAll && len(r.ProductChoices) == 0 {
		return fmt.Errorf("productChoices is required when productAll is false")
	}
	for _, id := range r.ProductChoices {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("productChoices contains an empty id")
		}
	}
	return nil
}

// ReportHandler handles HTTP API requests for report generation.
type ReportHandler struct {
	logger *zap.Logger
	runner ReportRunner
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(logger *zap.Logger, runner ReportRunner) *ReportHandler {
	return &ReportHandler{
		logger: logger,
		runner: runner,
	}
}

// GenerateHandler runs the active assets report and responds with the CSV.
func (h *ReportHandler) GenerateHandler(c *fiber.Ctx) error {
	req := GenerateRequest{ProductAll: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	opts := report.Options{
		Product: report.ProductFilter{
			All:     req.ProductAll,
			Choices: req.ProductChoices,
		},
		RendererType: "csv",
	}

	var buf bytes.Buffer
	rows, err := h.runner.Run(c.Context(), opts, nil, &buf)
	if err != nil {
		h.logger.Error("api.generate_failed",
			zap.Int("rows", rows),
			zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Name+".csv"))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
