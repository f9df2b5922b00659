package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranca/internal/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/importer"
)

type Handler struct {
	billingSvc *billing.Service
}

func NewHandler(billingSvc *billing.Service) *Handler {
	return &Handler{billingSvc: billingSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type billingResponse struct {
	ID            uuid.UUID      `json:"id"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Description   string         `json:"description"`
	Amount        int64          `json:"amount"`
	DueDate       time.Time      `json:"due_date"`
	Status        billing.Status `json:"status"`
}

type paramsDTO struct {
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	Description   string         `json:"description"`
	Amount        int64          `json:"amount"`
	DueDate       time.Time      `json:"due_date"`
	Status        billing.Status `json:"status"`
}

type conflictDTO struct {
	Incoming paramsDTO       `json:"incoming"`
	Existing billingResponse `json:"existing"`
}

type importSuccessResponse struct {
	Imported int               `json:"imported"`
	Billings []billingResponse `json:"billings"`
}

type importConflictResponse struct {
	New       []paramsDTO   `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

// importCSV takes a multipart upload, parses it and creates the records in
// one batch. When any row collides with an existing record the whole batch
// is rejected with 409 and the split between new rows and conflicts, so the
// operator can decide what to re-submit.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := importer.Parse(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.billingSvc.ImportBatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]paramsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toBillingResponse(c.Existing),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}

		return
	}

	resp := importSuccessResponse{
		Imported: len(result.Imported),
		Billings: make([]billingResponse, 0, len(result.Imported)),
	}

	for _, b := range result.Imported {
		resp.Billings = append(resp.Billings, toBillingResponse(b))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toBillingResponse(b *billing.Billing) billingResponse {
	return billingResponse{
		ID:            b.ID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		Description:   b.Description,
		Amount:        b.Amount,
		DueDate:       b.DueDate,
		Status:        b.Status,
	}
}

func toParamsDTO(p billing.CreateParams) paramsDTO {
	return paramsDTO{
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		Description:   p.Description,
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		Status:        p.Status,
	}
}
