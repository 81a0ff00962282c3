package sync

import (
	"netbox-sync/core/logger"
	"netbox-sync/feature/sync/collections"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes sync cycles over HTTP in serve mode.
type Handler struct {
	service *Service
	archive *Archive
	log     *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, archive *Archive, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, archive: archive, log: log}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/run/:collection", h.HandleRun)
	group.Get("/reports/:collection", h.HandleListReports)
	group.Get("/reports/:collection/:runid", h.HandleGetReport)
}

// HandleStatus returns the driver state and the latest report per collection.
// @Summary Sync status
// @Description Current driver state plus the most recent run report per collection.
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{} "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"state":       h.service.State(),
		"collections": collections.Names(),
		"reports":     h.service.LastReports(),
	})
}

// HandleRun plans or applies one collection. Mutations are opt-in: only
// apply=true dispatches them, a bare POST is a plan.
// @Summary Run a sync cycle
// @Description Plan (default) or apply (apply=true) a reconciliation cycle for one collection.
// @Tags sync
// @Produce json
// @Param collection path string true "Collection name (devices, interfaces, ipaddrs, sites, portchans)"
// @Param apply query bool false "Dispatch mutations instead of planning only"
// @Success 200 {object} sync.RunReport "Run Report"
// @Failure 400 {object} map[string]string "Unknown collection"
// @Failure 500 {object} map[string]string "Cycle aborted"
// @Router /sync/run/{collection} [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	name := c.Params("collection")
	if !collections.Known(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown collection: " + name,
		})
	}

	l := logger.WithRayID(h.log, c)

	var (
		report *RunReport
		err    error
	)
	if c.QueryBool("apply") {
		report, err = h.service.Run(c.Context(), name)
	} else {
		report, err = h.service.Plan(c.Context(), name)
	}
	if err != nil {
		l.Error("sync cycle failed", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleListReports lists the archived run ids for a collection.
// @Summary List archived reports
// @Description Archived run ids for one collection, newest first.
// @Tags sync
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {object} map[string]interface{} "Run ids"
// @Failure 500 {object} map[string]string "Archive unavailable"
// @Router /sync/reports/{collection} [get]
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	name := c.Params("collection")
	l := logger.WithRayID(h.log, c)

	if h.archive == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report archive not configured",
		})
	}

	ids, err := h.archive.List(c.Context(), name)
	if err != nil {
		l.Error("report listing failed", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"collection": name, "runs": ids})
}

// HandleGetReport returns one archived report.
// @Summary Get an archived report
// @Description One archived run report by collection and run id.
// @Tags sync
// @Produce json
// @Param collection path string true "Collection name"
// @Param runid path string true "Run id"
// @Success 200 {object} sync.RunReport "Run Report"
// @Failure 500 {object} map[string]string "Archive unavailable"
// @Router /sync/reports/{collection}/{runid} [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	name := c.Params("collection")
	runID := c.Params("runid")
	l := logger.WithRayID(h.log, c)

	if h.archive == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "report archive not configured",
		})
	}

	report, err := h.archive.Get(c.Context(), name, runID)
	if err != nil {
		l.Error("report fetch failed", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
