package service

import (
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/apierror"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	FindByID(id int) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
	ExistsByEmail(email string) (bool, error)
	FindConsultants() ([]*entity.User, error)
	Save(user *entity.User) error
}

type RegisterRequest struct {
	FullName   string   `json:"full_name" validate:"required,min=2,max=80"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=64,nospaces,hasupper,haslower,hasdigit"`
	UserType   string   `json:"user_type" validate:"required,oneof=consultant client"`
	Specialty  string   `json:"specialty" validate:"max=120"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,min=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=64,nospaces,hasupper,haslower,hasdigit"`
}

type UpdateProfileRequest struct {
	FullName   string   `json:"full_name" validate:"required,min=2,max=80"`
	Specialty  string   `json:"specialty" validate:"max=120"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,min=0"`
}

type UserResponse struct {
	ID         int      `json:"id"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	UserType   string   `json:"user_type"`
	Specialty  *string  `json:"specialty,omitempty"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *UserResponse `json:"user"`
}

type DefaultUserService struct {
	UserRepo UserRepository
	Validate *validator.Validate
	TokenTTL time.Duration
}

func NewUserService(userRepo UserRepository, validate *validator.Validate, tokenTTL time.Duration) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo, Validate: validate, TokenTTL: tokenTTL}
}

func (u *DefaultUserService) Register(req *RegisterRequest) (*UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	found, err := u.UserRepo.ExistsByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}
	if found {
		return nil, apierror.UserAlreadyExistsError
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("failed to hash password: %v", err)
		return nil, apierror.InternalServerError
	}

	now := utils.NowUTC()
	user := &entity.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		UserType:     req.UserType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.UserType == entity.UserTypeConsultant {
		if req.Specialty != "" {
			specialty := req.Specialty
			user.Specialty = &specialty
		}
		user.HourlyRate = req.HourlyRate
	}

	if err := u.UserRepo.Save(user); err != nil {
		log.Errorf("failed to create user: %v", err)
		return nil, apierror.InternalServerError
	}
	return toUserResponse(user), nil
}

func (u *DefaultUserService) Login(req *LoginRequest) (*LoginResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, err := u.UserRepo.FindByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return nil, apierror.InternalServerError
	}
	if user == nil {
		return nil, apierror.CredentialsMismatchError
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apierror.CredentialsMismatchError
	}

	token, err := utils.SignToken(&utils.TokenData{UserID: user.ID, UserType: user.UserType}, u.TokenTTL)
	if err != nil {
		log.Errorf("failed to sign token for user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}

	return &LoginResponse{AccessToken: token, User: toUserResponse(user)}, nil
}

func (u *DefaultUserService) GetConsultants() ([]*UserResponse, apierror.ErrorResponse) {
	consultants, err := u.UserRepo.FindConsultants()
	if err != nil {
		log.Errorf("failed to fetch consultants: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*UserResponse, len(consultants))
	for i, consultant := range consultants {
		resp[i] = toUserResponse(consultant)
	}
	return resp, nil
}

func (u *DefaultUserService) GetProfile(actor *utils.TokenData) (*UserResponse, apierror.ErrorResponse) {
	user, apierr := u.fetchUser(actor.UserID)
	if apierr != nil {
		return nil, apierr
	}
	return toUserResponse(user), nil
}

func (u *DefaultUserService) UpdateProfile(req *UpdateProfileRequest, actor *utils.TokenData) (*UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := u.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	user, apierr := u.fetchUser(actor.UserID)
	if apierr != nil {
		return nil, apierr
	}

	user.FullName = req.FullName
	if user.IsConsultant() {
		user.Specialty = nil
		if req.Specialty != "" {
			specialty := req.Specialty
			user.Specialty = &specialty
		}
		user.HourlyRate = req.HourlyRate
	}
	user.UpdatedAt = utils.NowUTC()

	if err := u.UserRepo.Save(user); err != nil {
		log.Errorf("failed to update user %d: %v", user.ID, err)
		return nil, apierror.InternalServerError
	}
	return toUserResponse(user), nil
}

func (u *DefaultUserService) ChangePassword(req *ChangePasswordRequest, actor *utils.TokenData) apierror.ErrorResponse {
	if err := u.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, apierr := u.fetchUser(actor.UserID)
	if apierr != nil {
		return apierr
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apierror.CredentialsMismatchError
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("failed to hash new password for user %d: %v", user.ID, err)
		return apierror.InternalServerError
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = utils.NowUTC()
	if err := u.UserRepo.Save(user); err != nil {
		log.Errorf("failed to update password for user %d: %v", user.ID, err)
		return apierror.InternalServerError
	}
	return nil
}

func (u *DefaultUserService) fetchUser(id int) (*entity.User, apierror.ErrorResponse) {
	user, err := u.UserRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to find user %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if user == nil {
		return nil, apierror.NotFoundError
	}
	return user, nil
}

func toUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		FullName:   user.FullName,
		Email:      user.Email,
		UserType:   user.UserType,
		Specialty:  user.Specialty,
		HourlyRate: user.HourlyRate,
		CreatedAt:  utils.FormatEpoch(user.CreatedAt),
		UpdatedAt:  utils.FormatEpoch(user.UpdatedAt),
	}
}
