package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/model"
	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/utils"
)

// Roles known to the API.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// SigninInput is a captcha-gated credential check.
type SigninInput struct {
	Email       string
	Password    string
	CaptchaID   string
	CaptchaText string
}

// UserInfo summarizes onboarding state for the client.
type UserInfo struct {
	IsFresh          bool   `json:"is_fresh"`
	IsProfileUpdated bool   `json:"is_profile_updated"`
	IsExistingUser   bool   `json:"is_existing_user"`
	StageCompleted   string `json:"stage_completed,omitempty"`
}

// SigninResult is returned on successful signin.
type SigninResult struct {
	Email                  string    `json:"email"`
	Token                  string    `json:"token"`
	ExpiresAt              time.Time `json:"expires_at"`
	Role                   string    `json:"role"`
	Username               string    `json:"username"`
	OrgType                string    `json:"org_type"`
	UserInfo               UserInfo  `json:"userinfo"`
	Message                string    `json:"message"`
	UserType               []string  `json:"user_type"`
	EventName              *string   `json:"event_name"`
	IsExternal             bool      `json:"is_external"`
	PasswordChangeRequired bool      `json:"password_change_required"`
}

// OrgDetails is the onboarding questionnaire sent with a signup.
type OrgDetails struct {
	IndustryType                 string `json:"industry_type"`
	IsStartup                    bool   `json:"is_startup"`
	IsDPIITCertified             bool   `json:"is_dpiit_certified"`
	IsInterestedInAPIIntegration bool   `json:"is_interested_in_api_integration"`
}

// SignupOrg is the organization a new user registers with.
type SignupOrg struct {
	OrgType    string
	OrgName    string
	OrgDetails OrgDetails
}

// SignupInput carries a registration. Password is optional; when empty
// an initial password is generated.
type SignupInput struct {
	FirstName string
	LastName  string
	EmailID   string
	Role      string
	Org       SignupOrg
	TncURL    string
	Password  string
}

// SignupResult reports a registration. InitialPassword is set only when
// the password was generated and echoing is enabled.
type SignupResult struct {
	Message         string `json:"message"`
	InitialPassword string `json:"initial_password,omitempty"`
}

// AuthService implements signin, signup and the current-user lookup.
type AuthService struct {
	users     repository.UserStore
	captchas  *CaptchaService
	passwords *PasswordService
	notifier  Notifier

	secret       string
	accessTTL    time.Duration
	tempTTL      time.Duration
	echoPassword bool

	log *zap.Logger
	now func() time.Time
}

func NewAuthService(users repository.UserStore, captchas *CaptchaService, passwords *PasswordService, notifier Notifier, cfg config.Config, log *zap.Logger) *AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AuthService{
		users:        users,
		captchas:     captchas,
		passwords:    passwords,
		notifier:     notifier,
		secret:       cfg.JWTSecret,
		accessTTL:    cfg.AccessTTL(),
		tempTTL:      cfg.TempPasswordTTL,
		echoPassword: cfg.SignupEchoPasswd,
		log:          log,
		now:          time.Now,
	}
}

// Signin verifies the captcha, then the credentials, and issues a session
// token. Every credential failure returns the same message.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (SigninResult, error) {
	if !s.captchas.Verify(ctx, in.CaptchaID, in.CaptchaText) {
		return SigninResult{}, validationf(MsgInvalidCaptcha)
	}
	invalid := unauthorized(MsgInvalidCredentials)

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SigninResult{}, invalid
		}
		return SigninResult{}, err
	}
	if u.IsDeleted {
		return SigninResult{}, invalid
	}
	if !utils.IsBcryptHash(u.PasswordHash) {
		s.log.Warn("signin rejected: stored hash is not bcrypt, password reset required", zap.Uint64("user_id", u.ID))
		return SigninResult{}, invalid
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return SigninResult{}, invalid
	}
	now := s.now()
	if u.TempPasswordExpiresAt != nil && !now.Before(*u.TempPasswordExpiresAt) {
		s.log.Info("signin rejected: initial password expired", zap.Uint64("user_id", u.ID))
		return SigninResult{}, invalid
	}

	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Email, u.Role, s.accessTTL, now)
	if err != nil {
		return SigninResult{}, err
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("last login not recorded", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	s.log.Info("user signed in", zap.Uint64("user_id", u.ID), zap.String("role", u.Role))

	userType := []string(u.UserType)
	if userType == nil {
		userType = []string{}
	}
	return SigninResult{
		Email:     u.Email,
		Token:     tok.Token,
		ExpiresAt: tok.Exp,
		Role:      u.Role,
		Username:  u.DisplayName(),
		OrgType:   u.OrgType,
		UserInfo: UserInfo{
			IsFresh:          u.IsFresh,
			IsProfileUpdated: u.IsProfileUpdated,
			IsExistingUser:   u.IsExistingUser,
			StageCompleted:   u.StageCompleted,
		},
		Message:                "Login successful",
		UserType:               userType,
		IsExternal:             u.IsExternal,
		PasswordChangeRequired: u.TempPasswordExpiresAt != nil || u.IsFresh,
	}, nil
}

// Signup registers a user with its organization profile.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	email := repository.NormalizeEmail(in.EmailID)
	if email == "" {
		return SignupResult{}, validationf("email_id is required")
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = RoleCustomer
	}
	if role == RoleAdmin {
		return SignupResult{}, validationf("role %q cannot be self-assigned", role)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return SignupResult{}, conflict(MsgEmailExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignupResult{}, err
	}

	now := s.now().UTC()
	password, generated := in.Password, false
	if password == "" {
		var err error
		if password, err = s.passwords.GenerateTempPassword(); err != nil {
			return SignupResult{}, err
		}
		generated = true
	} else if err := checkNewPassword(password); err != nil {
		return SignupResult{}, err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return SignupResult{}, err
	}

	u := model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		EmailID:      email,
		PasswordHash: hash,
		Role:         role,
		Status:       "Engaged",
		IsFresh:      true,
		TncURL:       in.TncURL,
		TncAccepted:  in.TncURL != "",
		OrgType:      in.Org.OrgType,
		OrgName:      in.Org.OrgName,
		OrgDetails: model.JSONMap{
			"industry_type":                    in.Org.OrgDetails.IndustryType,
			"is_startup":                       in.Org.OrgDetails.IsStartup,
			"is_dpiit_certified":               in.Org.OrgDetails.IsDPIITCertified,
			"is_interested_in_api_integration": in.Org.OrgDetails.IsInterestedInAPIIntegration,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Org: &model.UserOrganization{
			OrgName:     in.Org.OrgName,
			OrgType:     in.Org.OrgType,
			AddressType: "Primary",
		},
	}
	if generated {
		exp := now.Add(s.tempTTL)
		u.TempPasswordExpiresAt = &exp
	}
	if _, err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return SignupResult{}, conflict(MsgEmailExists)
		}
		return SignupResult{}, err
	}
	s.log.Info("user signed up", zap.Uint64("user_id", u.ID), zap.String("role", role), zap.Bool("generated_password", generated))

	if !generated {
		return SignupResult{Message: "User created successfully."}, nil
	}

	token, err := s.passwords.issueToken(ctx, u)
	if err != nil {
		s.log.Warn("welcome reset token not issued", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	if err := s.notifier.Welcome(ctx, WelcomeEmail{To: u.Email, FirstName: u.FirstName, TempPassword: password, ResetToken: token}); err != nil {
		s.log.Warn("welcome email not sent", zap.Uint64("user_id", u.ID), zap.Error(err))
	}

	res := SignupResult{Message: "User created successfully. Sign in with the initial password and change it."}
	if s.echoPassword {
		res.InitialPassword = password
	}
	return res, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, notFound("user")
		}
		return model.User{}, err
	}
	if u.IsDeleted {
		return model.User{}, notFound("user")
	}
	return u, nil
}
