package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	accountDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/account"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock AccountRepository for testing
type mockAccountRepository struct {
	byEmail       map[string]*accountDatamodel.Account
	byID          map[int64]*accountDatamodel.Account
	returnError   bool
	errorToReturn error
}

func newMockAccountRepository() *mockAccountRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)

	accounts := []*accountDatamodel.Account{
		{ID: 1, Email: "dewi@example.com", EmployeeID: "emp-001", PasswordHash: string(hashedPassword), Roles: "employee", IsActive: true},
		{ID: 2, Email: "sari@example.com", EmployeeID: "emp-003", PasswordHash: string(hashedPassword), Roles: "employee,hr", IsActive: true},
		{ID: 3, Email: "gone@example.com", EmployeeID: "emp-099", PasswordHash: string(hashedPassword), Roles: "employee", IsActive: false},
	}

	repo := &mockAccountRepository{
		byEmail: make(map[string]*accountDatamodel.Account),
		byID:    make(map[int64]*accountDatamodel.Account),
	}
	for _, account := range accounts {
		repo.byEmail[account.Email] = account
		repo.byID[account.ID] = account
	}
	return repo
}

func (m *mockAccountRepository) GetByEmail(email string) (*accountDatamodel.Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	return m.byEmail[email], nil
}

func (m *mockAccountRepository) GetByID(id int64) (*accountDatamodel.Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	return m.byID[id], nil
}

func (m *mockAccountRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockAccountRepository
		tokenGen *JWTTokenGenerator
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockAccountRepository()
		tokenGen = NewJWTTokenGenerator("test-access-secret", "test-refresh-secret")
		service = NewService(mockRepo, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return access and refresh tokens", func() {
				// Given
				dto := LoginDTO{
					Email:    "dewi@example.com",
					Password: "correct_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(tokens.AccessToken).ToNot(gomega.Equal(tokens.RefreshToken))
			})

			ginkgo.It("should embed the account identity in the access token", func() {
				// Given
				dto := LoginDTO{
					Email:    "sari@example.com",
					Password: "correct_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := service.ValidateAccessToken(tokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal("2"))
				gomega.Expect(claims.EmployeeID).To(gomega.Equal("emp-003"))
				gomega.Expect(claims.Email).To(gomega.Equal("sari@example.com"))
			})
		})

		ginkgo.Context("when credentials are invalid", func() {
			ginkgo.It("should return error for an unknown email", func() {
				// Given
				dto := LoginDTO{
					Email:    "nobody@example.com",
					Password: "any_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(tokens.AccessToken).To(gomega.BeEmpty())
			})

			ginkgo.It("should return error for a wrong password", func() {
				// Given
				dto := LoginDTO{
					Email:    "dewi@example.com",
					Password: "wrong_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(tokens.AccessToken).To(gomega.BeEmpty())
			})

			ginkgo.It("should refuse an inactive account", func() {
				// Given
				dto := LoginDTO{
					Email:    "gone@example.com",
					Password: "correct_password",
				}

				// When
				_, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrAccountInactive))
			})
		})

		ginkgo.Context("when input validation fails", func() {
			ginkgo.It("should return validation error for empty email", func() {
				// Given
				dto := LoginDTO{
					Email:    "",
					Password: "password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("email is required"))
				gomega.Expect(tokens.AccessToken).To(gomega.BeEmpty())
			})

			ginkgo.It("should return validation error for empty password", func() {
				// Given
				dto := LoginDTO{
					Email:    "dewi@example.com",
					Password: "",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("password is required"))
				gomega.Expect(tokens.AccessToken).To(gomega.BeEmpty())
			})
		})

		ginkgo.Context("when repository returns error", func() {
			ginkgo.It("should return invalid credentials error", func() {
				// Given
				mockRepo.setError(errors.New("database error"))
				dto := LoginDTO{
					Email:    "dewi@example.com",
					Password: "correct_password",
				}

				// When
				tokens, err := service.Authenticate(dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(tokens.AccessToken).To(gomega.BeEmpty())
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		var validRefreshToken string

		ginkgo.BeforeEach(func() {
			tokens, err := service.Authenticate(LoginDTO{
				Email:    "dewi@example.com",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			validRefreshToken = tokens.RefreshToken
		})

		ginkgo.Context("when refresh token is valid", func() {
			ginkgo.It("should issue a fresh pair for the same account", func() {
				// When
				newTokens, err := service.RefreshTokens(validRefreshToken)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(newTokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(newTokens.RefreshToken).ToNot(gomega.BeEmpty())

				claims, err := service.ValidateAccessToken(newTokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.UserID).To(gomega.Equal("1"))
				gomega.Expect(claims.EmployeeID).To(gomega.Equal("emp-001"))
			})
		})

		ginkgo.Context("when refresh token is invalid", func() {
			ginkgo.It("should reject a malformed token", func() {
				// When
				_, err := service.RefreshTokens("not-a-token")

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
			})

			ginkgo.It("should reject a token signed with the wrong secret", func() {
				// Given
				otherGen := NewJWTTokenGenerator("other-access-secret", "other-refresh-secret")
				foreign, err := otherGen.GenerateRefreshToken("1", "emp-001", "dewi@example.com")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				// When
				_, err = service.RefreshTokens(foreign)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
			})

			ginkgo.It("should refuse an account deactivated since issue", func() {
				// Given
				mockRepo.byID[1].IsActive = false

				// When
				_, err := service.RefreshTokens(validRefreshToken)

				// Then
				gomega.Expect(err).To(gomega.Equal(ErrAccountInactive))
			})
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("should accept a freshly issued access token", func() {
			// Given
			tokens, err := service.Authenticate(LoginDTO{
				Email:    "dewi@example.com",
				Password: "correct_password",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			claims, err := service.ValidateAccessToken(tokens.AccessToken)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Email).To(gomega.Equal("dewi@example.com"))
		})

		ginkgo.It("should reject an expired token", func() {
			// Given a generator whose access tokens are already expired
			expiredGen := NewJWTTokenGenerator("test-access-secret", "test-refresh-secret")
			expiredGen.AccessTokenTTL = -time.Minute
			expired, err := expiredGen.GenerateAccessToken("1", "emp-001", "dewi@example.com")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			_, err = service.ValidateAccessToken(expired)

			// Then
			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		})
	})

	ginkgo.Describe("GetUser", func() {
		ginkgo.It("should map the account to the context identity", func() {
			// When
			user, err := service.GetUser(2)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.Email).To(gomega.Equal("sari@example.com"))
			gomega.Expect(user.EmployeeID).To(gomega.Equal("emp-003"))
			gomega.Expect(user.Roles).To(gomega.Equal([]string{"employee", "hr"}))
			gomega.Expect(user.HasRole("hr")).To(gomega.BeTrue())
			gomega.Expect(user.HasRole("accounting")).To(gomega.BeFalse())
		})

		ginkgo.It("should refuse an inactive account", func() {
			// When
			_, err := service.GetUser(3)

			// Then
			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})

		ginkgo.It("should refuse an unknown account", func() {
			// When
			_, err := service.GetUser(42)

			// Then
			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})
	})
})

var _ = ginkgo.Describe("SplitRoles", func() {
	ginkgo.It("should split and trim the roles column", func() {
		gomega.Expect(SplitRoles("employee, hr ,accounting")).To(gomega.Equal([]string{"employee", "hr", "accounting"}))
	})

	ginkgo.It("should return nil for an empty column", func() {
		gomega.Expect(SplitRoles("")).To(gomega.BeNil())
	})
})
