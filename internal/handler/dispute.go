package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/cherop/pactpay/internal/context"
	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/file"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/request"
	"github.com/cherop/pactpay/internal/response"
	"github.com/cherop/pactpay/internal/validator"
)

var (
	ErrDisputeResolved = errors.New("dispute has already been resolved")
)

type DisputeResponseData struct {
	ID          string     `json:"id"`
	ContractID  string     `json:"contract_id"`
	RaisedBy    string     `json:"raised_by"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	EvidenceURL string     `json:"evidence_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newDisputeResponseData(dispute *repository.Dispute) *DisputeResponseData {
	data := &DisputeResponseData{
		ID:          dispute.ID,
		ContractID:  dispute.ContractID,
		RaisedBy:    dispute.RaisedBy,
		Description: dispute.Description,
		Status:      dispute.Status,
		Resolution:  dispute.Resolution.String,
		ResolvedBy:  dispute.ResolvedBy.String,
		EvidenceURL: dispute.EvidenceURL.String,
		CreatedAt:   dispute.CreatedAt,
	}

	if dispute.ResolvedAt.Valid {
		data.ResolvedAt = &dispute.ResolvedAt.Time
	}

	return data
}

type DisputeHandler struct {
	DisputeRepo  repository.DisputeRepository
	ContractRepo repository.ContractRepository
	FileUploader *file.FileUploader
	ErrHandler   *errHandler.ErrorHandler
}

func NewDisputeHandler(handler *DisputeHandler) *DisputeHandler {
	return &DisputeHandler{
		DisputeRepo:  handler.DisputeRepo,
		ContractRepo: handler.ContractRepo,
		FileUploader: handler.FileUploader,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *DisputeHandler) HandleDisputeCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ContractID  string              `json:"contract_id"`
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.ContractID), "Contract is required")
	input.Validator.Check(validator.IsUUID(input.ContractID), "Contract must be a valid contract id")
	input.Validator.Check(validator.NotBlank(input.Description), "Description is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	_, found, err := h.ContractRepo.GetOne(input.ContractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrContractNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	dispute, err := h.DisputeRepo.Insert(&repository.Dispute{
		ContractID:  input.ContractID,
		RaisedBy:    user.ID,
		Description: input.Description,
	}, nil)
	if err != nil {
		if errors.Is(err, repository.ErrOpenDisputeExists) {
			input.Validator.AddError(err.Error())
			h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Dispute raised successfully"

	err = response.JSONCreatedResponse(w, newDisputeResponseData(dispute), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DisputeHandler) HandleDisputeDetails(w http.ResponseWriter, r *http.Request) {
	disputeID := r.PathValue("id")

	dispute, found, err := h.DisputeRepo.GetOne(disputeID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrDisputeNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	message := "Dispute details fetched successfully"

	err = response.JSONOkResponse(w, newDisputeResponseData(dispute), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DisputeHandler) HandleUserDisputes(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	disputes, err := h.DisputeRepo.GetAllByUser(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*DisputeResponseData, len(disputes))
	for i := range disputes {
		data[i] = newDisputeResponseData(&disputes[i])
	}

	message := "Disputes retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DisputeHandler) HandleContractDisputes(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("id")

	_, found, err := h.ContractRepo.GetOne(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrContractNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	disputes, err := h.DisputeRepo.GetAllByContract(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*DisputeResponseData, len(disputes))
	for i := range disputes {
		data[i] = newDisputeResponseData(&disputes[i])
	}

	message := "Disputes retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DisputeHandler) HandleDisputeUpdate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Description string              `json:"description"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Description), "Description is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	dispute, ok := h.loadDisputeForWrite(w, r)
	if !ok {
		return
	}

	err = h.DisputeRepo.UpdateDescription(dispute.ID, input.Description)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	dispute.Description = input.Description

	message := "Dispute updated successfully"

	err = response.JSONOkResponse(w, newDisputeResponseData(dispute), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// Any authenticated user may resolve a dispute for now; arbitration roles
// are a future concern.
func (h *DisputeHandler) HandleDisputeResolve(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Resolution string              `json:"resolution"`
		Validator  validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Resolution), "Resolution is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	disputeID := r.PathValue("id")

	dispute, found, err := h.DisputeRepo.GetOne(disputeID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrDisputeNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	if dispute.Status == repository.DisputeStatusResolved {
		input.Validator.AddError(ErrDisputeResolved.Error())
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	err = h.DisputeRepo.Resolve(dispute.ID, input.Resolution, user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	dispute, _, err = h.DisputeRepo.GetOne(disputeID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Dispute resolved successfully"

	err = response.JSONOkResponse(w, newDisputeResponseData(dispute), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *DisputeHandler) HandleDisputeDelete(w http.ResponseWriter, r *http.Request) {
	dispute, ok := h.loadDisputeForWrite(w, r)
	if !ok {
		return
	}

	err := h.DisputeRepo.Delete(dispute.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Dispute deleted successfully"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// HandleDisputeEvidence accepts a multipart upload, pushes it to
// Cloudinary, and stores the hosted URL on the dispute.
func (h *DisputeHandler) HandleDisputeEvidence(w http.ResponseWriter, r *http.Request) {
	dispute, ok := h.loadDisputeForWrite(w, r)
	if !ok {
		return
	}

	// 10 MB cap on evidence uploads
	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	uploadedFile, _, err := r.FormFile("evidence")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("an evidence file is required"))
		return
	}
	defer uploadedFile.Close()

	evidenceURL, err := h.FileUploader.UploadFile(r.Context(), uploadedFile, "dispute-evidence")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = h.DisputeRepo.SetEvidenceURL(dispute.ID, evidenceURL)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Evidence uploaded successfully"

	data := map[string]any{
		"evidence_url": evidenceURL,
	}
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

// loadDisputeForWrite fetches the dispute and enforces the write rules
// shared by update, delete and evidence upload: only the user who raised
// the dispute may change it, and resolved disputes are immutable.
func (h *DisputeHandler) loadDisputeForWrite(w http.ResponseWriter, r *http.Request) (*repository.Dispute, bool) {
	disputeID := r.PathValue("id")

	dispute, found, err := h.DisputeRepo.GetOne(disputeID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, false
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrDisputeNotFound.Error(), http.StatusNotFound, nil)
		return nil, false
	}

	user := context.ContextGetAuthenticatedUser(r)

	if dispute.RaisedBy != user.ID {
		response.JSONErrorResponse(w, nil, ErrAccessDenied.Error(), http.StatusForbidden, nil)
		return nil, false
	}

	if dispute.Status == repository.DisputeStatusResolved {
		response.JSONErrorResponse(w, nil, ErrDisputeResolved.Error(), http.StatusUnprocessableEntity, nil)
		return nil, false
	}

	return dispute, true
}
