package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/commands"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/queries"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	app      *usecases.Application
	validate *validator.Validate
	logger   logger.Logger
}

func NewHandler(app *usecases.Application, log logger.Logger) *Handler {
	return &Handler{
		app:      app,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.Component("http-handler"),
	}
}

func (h *Handler) RegisterSale(w http.ResponseWriter, r *http.Request) {
	var req registerSaleRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "invalid request body: "+err.Error())

		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeRequestValidationError(w, err)

		return
	}

	saleRequest, err := req.toModel()
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidID, err.Error())

		return
	}

	sale, err := h.app.Commands.RegisterSale.Handle(r.Context(), commands.RegisterSaleCommand{Request: saleRequest})
	if err != nil {
		h.logFailure(r, err, "sale registration failed")
		writeDomainError(w, err)

		return
	}

	w.Header().Set("Location", "/v1/sales/"+sale.ID.String())
	writeJSONResponse(w, http.StatusCreated, saleResponse{Data: toSaleData(sale)})
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseID(chi.URLParam(r, "saleID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidID, "invalid sale id")

		return
	}

	sale, err := h.app.Queries.GetSale.Execute(r.Context(), queries.GetSaleQuery{ID: id})
	if err != nil {
		h.logFailure(r, err, "sale lookup failed")
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, saleResponse{Data: toSaleData(sale)})
}

func (h *Handler) SyncCatalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Commands.SyncCatalog.Handle(r.Context(), commands.SyncCatalogCommand{})
	if err != nil {
		h.logFailure(r, err, "on-demand catalog sync failed")
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, syncResponse{Data: toSyncData(result)})
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toHealthResponse(report.Status, report.Timestamp, report.Version, nil))
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		writeDomainError(w, err)

		return
	}

	status := http.StatusOK
	if !report.IsReady() {
		status = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, status, toHealthResponse(report.Status, report.Timestamp, report.Version, report.Checks))
}

func (h *Handler) logFailure(r *http.Request, err error, msg string) {
	log := h.logger.WithContext(r.Context())

	event := log.Warn()
	if !isClientError(err) {
		event = log.Error()
	}

	event.Err(err).Str("path", r.URL.Path).Msg(msg)
}
