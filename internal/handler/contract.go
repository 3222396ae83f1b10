package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cherop/pactpay/internal/context"
	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/request"
	"github.com/cherop/pactpay/internal/response"
	"github.com/cherop/pactpay/internal/validator"
)

type ContractResponseData struct {
	ID        string    `json:"id"`
	SellerID  string    `json:"seller_id"`
	BuyerID   string    `json:"buyer_id"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newContractResponseData(contract *repository.Contract) *ContractResponseData {
	return &ContractResponseData{
		ID:        contract.ID,
		SellerID:  contract.SellerID,
		BuyerID:   contract.BuyerID,
		Title:     contract.Title,
		Amount:    contract.Amount.StringFixed(2),
		Status:    contract.Status,
		CreatedAt: contract.CreatedAt,
	}
}

type ContractHandler struct {
	ContractRepo repository.ContractRepository
	ErrHandler   *errHandler.ErrorHandler
}

func NewContractHandler(handler *ContractHandler) *ContractHandler {
	return &ContractHandler{
		ContractRepo: handler.ContractRepo,
		ErrHandler:   handler.ErrHandler,
	}
}

// canModifyContract is the authorization predicate for contract writes:
// only a party to the contract may change it.
func canModifyContract(contract *repository.Contract, userID string) bool {
	return contract.SellerID == userID || contract.BuyerID == userID
}

func (h *ContractHandler) HandleContractCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BuyerID   string              `json:"buyer_id"`
		Title     string              `json:"title"`
		Amount    decimal.Decimal     `json:"amount"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Title), "Title is required")
	input.Validator.Check(validator.NotBlank(input.BuyerID), "Buyer is required")
	input.Validator.Check(validator.IsUUID(input.BuyerID), "Buyer must be a valid user id")
	input.Validator.Check(input.Amount.GreaterThan(decimal.Zero), "Amount must be greater than zero")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	contract, err := h.ContractRepo.Insert(&repository.Contract{
		SellerID: user.ID,
		BuyerID:  input.BuyerID,
		Title:    input.Title,
		Amount:   input.Amount,
	}, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Contract created successfully"

	err = response.JSONCreatedResponse(w, newContractResponseData(contract), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractHandler) HandleContractDetails(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("id")

	contract, found, err := h.ContractRepo.GetOne(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrContractNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	message := "Contract details fetched successfully"

	err = response.JSONOkResponse(w, newContractResponseData(contract), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractHandler) HandleUserContracts(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	contracts, err := h.ContractRepo.GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*ContractResponseData, len(contracts))
	for i := range contracts {
		data[i] = newContractResponseData(&contracts[i])
	}

	message := "Contracts retrieved successfully"

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractHandler) HandleContractUpdate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title     *string             `json:"title"`
		Amount    *decimal.Decimal    `json:"amount"`
		Status    *string             `json:"status"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	contractID := r.PathValue("id")

	contract, found, err := h.ContractRepo.GetOne(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrContractNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	if !canModifyContract(contract, user.ID) {
		response.JSONErrorResponse(w, nil, ErrAccessDenied.Error(), http.StatusForbidden, nil)
		return
	}

	if input.Title != nil {
		input.Validator.Check(validator.NotBlank(*input.Title), "Title cannot be blank")
		contract.Title = *input.Title
	}
	if input.Amount != nil {
		input.Validator.Check(input.Amount.GreaterThan(decimal.Zero), "Amount must be greater than zero")
		contract.Amount = *input.Amount
	}
	if input.Status != nil {
		input.Validator.Check(validator.In(*input.Status,
			repository.ContractStatusDraft,
			repository.ContractStatusActive,
			repository.ContractStatusCompleted,
		), "Status must be one of DRAFT, ACTIVE, COMPLETED")
		contract.Status = *input.Status
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.ContractRepo.Update(contract)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Contract updated successfully"

	err = response.JSONOkResponse(w, newContractResponseData(contract), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContractHandler) HandleContractDelete(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("id")

	contract, found, err := h.ContractRepo.GetOne(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if !found {
		response.JSONErrorResponse(w, nil, ErrContractNotFound.Error(), http.StatusNotFound, nil)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	if !canModifyContract(contract, user.ID) {
		response.JSONErrorResponse(w, nil, ErrAccessDenied.Error(), http.StatusForbidden, nil)
		return
	}

	err = h.ContractRepo.Delete(contractID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	message := "Contract deleted successfully"

	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
