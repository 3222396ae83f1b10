package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cherop/pactpay/internal/config"
	"github.com/cherop/pactpay/internal/errHandler"
	"github.com/cherop/pactpay/internal/helper"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepo implements UserRepository but only mocks the needed methods.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *repository.User, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockUserRepo) GetOne(id string) (*repository.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) GetByEmail(email string) (*repository.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*repository.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) UpdatePassword(id, password string) error {
	return nil
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Insert(log *repository.ActivityLog) (*repository.ActivityLog, error) {
	args := m.Called(log)
	return args.Get(0).(*repository.ActivityLog), args.Error(1)
}

func (m *MockActivityRepo) GetAllByUser(userID string) ([]repository.ActivityLog, error) {
	return nil, nil
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)
	mockMailer := new(MockMailer)

	var baseURL string = "http://localhost"
	var wg sync.WaitGroup
	mockHelper := helper.New(&baseURL, &wg, nil)

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&repository.ActivityLog{}, nil)

	mockConfig := &config.Config{
		BaseURL:  "http://localhost",
		HttpPort: 8080,
	}
	mockConfig.Jwt.SecretKey = "test_secret"

	authHandler := &AuthHandler{
		UserRepo:     mockUserRepo,
		ActivityRepo: mockActivityRepo,
		Helper:       mockHelper,
		Mailer:       mockMailer,
		Config:       mockConfig,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	// Act
	authHandler.HandleAuthLogin(rr, req)

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	// background activity log may still be in flight
	wg.Wait()

	mockUserRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)

	var baseURL string = "http://localhost"
	var wg sync.WaitGroup
	mockHelper := helper.New(&baseURL, &wg, nil)

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&repository.ActivityLog{}, nil)

	mockConfig := &config.Config{BaseURL: "http://localhost"}
	mockConfig.Jwt.SecretKey = "test_secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testErrHandler := errHandler.New("", baseURL, nil, logger)

	authHandler := &AuthHandler{
		UserRepo:     mockUserRepo,
		ActivityRepo: mockActivityRepo,
		ErrHandler:   testErrHandler,
		Helper:       mockHelper,
		Config:       mockConfig,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	wg.Wait()

	mockUserRepo.AssertExpectations(t)
}
