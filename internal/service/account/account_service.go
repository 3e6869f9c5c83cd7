package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/auth"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/internal/query"
	"github.com/LhacenMed/admin-dashboard/internal/repository"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AccountUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Me(ctx context.Context, actor domain.Actor) (*domain.Account, error)
	GetCompany(ctx context.Context, id string) (*domain.Account, error)
	CompanyStatus(ctx context.Context, id string) StatusResult
	AdminByAuthUID(ctx context.Context, authUID string) (*domain.Account, error)
	ListCompanies(ctx context.Context, actor domain.Actor, status domain.AccountStatus) ([]domain.Account, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, companyID string, status domain.AccountStatus) (*domain.Account, error)
	Access(ctx context.Context, actor domain.Actor, required domain.AccountStatus, fallback string) AccessDecision
	EnsureAdmin(ctx context.Context, input AdminInput) error
	RecentAccounts(ctx context.Context, device string) ([]domain.RecentAccount, error)
	ForgetAccount(ctx context.Context, device, id string) error
}

type RecentStore interface {
	AddRecentAccount(ctx context.Context, device string, account domain.RecentAccount) error
	RecentAccounts(ctx context.Context, device string) ([]domain.RecentAccount, error)
	RemoveRecentAccount(ctx context.Context, device, id string) error
}

type TokenIssuer interface {
	Issue(uid string, role domain.Role) (string, time.Time, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type AccountService struct {
	accounts           repository.AccountRepository
	credentials        repository.CredentialRepository
	recent             RecentStore
	tokens             TokenIssuer
	cache              *query.Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	log                logger.Logger
	metrics            *metrics.Metrics
	now                func() time.Time
}

type AccountServiceOption func(*AccountService)

func WithProducer(producer Producer, eventsTopic, notificationsTopic string) AccountServiceOption {
	return func(s *AccountService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
		s.notificationsTopic = notificationsTopic
	}
}

func WithRecentStore(recent RecentStore) AccountServiceOption {
	return func(s *AccountService) {
		s.recent = recent
	}
}

func WithMetrics(m *metrics.Metrics) AccountServiceOption {
	return func(s *AccountService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) AccountServiceOption {
	return func(s *AccountService) {
		s.now = now
	}
}

func NewAccountService(
	accounts repository.AccountRepository,
	credentials repository.CredentialRepository,
	tokens TokenIssuer,
	cache *query.Cache,
	log logger.Logger,
	opts ...AccountServiceOption,
) *AccountService {
	s := &AccountService{
		accounts:    accounts,
		credentials: credentials,
		tokens:      tokens,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Name            string           `json:"name" binding:"required"`
	Email           string           `json:"email" binding:"required,email"`
	PhoneNumber     string           `json:"phoneNumber" binding:"required"`
	Password        string           `json:"password" binding:"required,min=6"`
	ConfirmPassword string           `json:"confirmPassword" binding:"required,eqfield=Password"`
	Location        *domain.GeoPoint `json:"location"`
	Logo            domain.Asset     `json:"logo"`
	BusinessLicense *domain.Asset    `json:"businessLicense"`
	DeviceID        string           `json:"-"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"-"`
}

type AdminInput struct {
	Name     string
	Email    string
	Password string
}

type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   *domain.Account `json:"account"`
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name", "company name is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		return domain.Invalid("phoneNumber", "phone number is required")
	}
	if len(in.Password) < 6 {
		return domain.Invalid("password", "password must be at least 6 characters")
	}
	if in.Password != in.ConfirmPassword {
		return domain.Invalid("confirmPassword", "passwords do not match")
	}
	if in.Location == nil {
		return domain.Invalid("location", "location is required")
	}
	if in.Location.Lat < -90 || in.Location.Lat > 90 {
		return domain.Invalid("location", "latitude must be between -90 and 90")
	}
	if in.Location.Lng < -180 || in.Location.Lng > 180 {
		return domain.Invalid("location", "longitude must be between -180 and 180")
	}
	if in.Logo.Empty() {
		return domain.Invalid("logo", "please upload a company logo")
	}
	return nil
}

var validate = validator.New()

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Invalid("email", "email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return domain.Invalid("email", "invalid email address")
	}
	return nil
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	credential := &domain.Credential{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         domain.RoleCompany,
		CreatedAt:    now,
	}
	if err := s.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already in use", domain.ErrConflict)
		}
		return nil, err
	}

	location := *input.Location
	company := &domain.Account{
		ID:              credential.ID,
		Role:            domain.RoleCompany,
		Name:            strings.TrimSpace(input.Name),
		Email:           credential.Email,
		PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
		Location:        &location,
		Logo:            input.Logo,
		BusinessLicense: input.BusinessLicense,
		CreditBalance:   0,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.accounts.CreateCompany(ctx, company); err != nil {
		s.log.Error("company document not created", "uid", credential.ID, "error", err)
		s.dropCredential(ctx, credential.ID)
		return nil, fmt.Errorf("create company: %w", err)
	}
	s.cache.Invalidate(query.Key("company", company.ID))

	event := kafka.NewEvent(kafka.EventAccountRegistered, company.ID)
	event.CompanyID = company.ID
	event.Email = company.Email
	event.Name = company.Name
	event.Status = string(company.Status)
	s.publish(ctx, event)

	return s.openSession(ctx, company, input.DeviceID)
}

// dropCredential removes a login whose company document could not be written, so the
// email can register again.
func (s *AccountService) dropCredential(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.credentials.Delete(ctx, id); err != nil {
		s.log.Error("orphaned credential left behind", "uid", id, "error", err)
	}
}

func (s *AccountService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, domain.Invalid("", "email and password are required")
	}

	credential, err := s.credentials.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if credential == nil || !auth.CheckPassword(credential.PasswordHash, input.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	var account *domain.Account
	switch credential.Role {
	case domain.RoleAdmin:
		account, err = s.AdminByAuthUID(ctx, credential.ID)
	default:
		account, err = s.GetCompany(ctx, credential.ID)
	}
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: no account for this login", domain.ErrNotFound)
	}
	return s.openSession(ctx, account, input.DeviceID)
}

func (s *AccountService) openSession(ctx context.Context, account *domain.Account, device string) (*Session, error) {
	uid := account.ID
	if account.IsAdmin() {
		uid = account.AuthUID
	}
	token, expires, err := s.tokens.Issue(uid, account.Role)
	if err != nil {
		return nil, err
	}

	if device != "" && s.recent != nil {
		recent := domain.RecentAccount{ID: account.ID, Name: account.Name, Email: account.Email, Logo: account.Logo}
		if err := s.recent.AddRecentAccount(ctx, device, recent); err != nil {
			s.log.Warn("recent account not saved", "device", device, "error", err)
		}
	}
	return &Session{Token: token, ExpiresAt: expires, Account: account}, nil
}

func (s *AccountService) Me(ctx context.Context, actor domain.Actor) (*domain.Account, error) {
	var (
		account *domain.Account
		err     error
	)
	if actor.IsAdmin() {
		account, err = s.AdminByAuthUID(ctx, actor.UID)
	} else {
		account, err = s.GetCompany(ctx, actor.UID)
	}
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

// GetCompany is a cached read. A missing company is (nil, nil).
func (s *AccountService) GetCompany(ctx context.Context, id string) (*domain.Account, error) {
	res := query.Fetch(ctx, s.cache, query.Key("company", id), func(ctx context.Context) (*domain.Account, error) {
		return s.accounts.GetCompany(ctx, id)
	})
	if res.Err != nil {
		return nil, fmt.Errorf("load company %s: %w", id, res.Err)
	}
	return res.Data, nil
}

func (s *AccountService) AdminByAuthUID(ctx context.Context, authUID string) (*domain.Account, error) {
	res := query.Fetch(ctx, s.cache, query.Key("admin", authUID), func(ctx context.Context) (*domain.Account, error) {
		return s.accounts.GetAdminByAuthUID(ctx, authUID)
	})
	if res.Err != nil {
		return nil, fmt.Errorf("load admin %s: %w", authUID, res.Err)
	}
	return res.Data, nil
}

// StatusResult is the outcome of loading a company's approval status.
type StatusResult struct {
	Status domain.AccountStatus
	Found  bool
	Err    error
}

func (s *AccountService) CompanyStatus(ctx context.Context, id string) StatusResult {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return StatusResult{Err: err}
	}
	if company == nil {
		return StatusResult{}
	}
	return StatusResult{Status: company.Status, Found: true}
}

func (s *AccountService) ListCompanies(ctx context.Context, actor domain.Actor, status domain.AccountStatus) ([]domain.Account, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, domain.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.accounts.ListCompanies(ctx, status)
}

// UpdateStatus is the reviewer decision on a pending company.
func (s *AccountService) UpdateStatus(ctx context.Context, actor domain.Actor, companyID string, status domain.AccountStatus) (*domain.Account, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	company, err := s.accounts.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company %s: %w", companyID, domain.ErrNotFound)
	}
	if err := domain.Transition(company.Status, status); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.accounts.UpdateCompanyStatus(ctx, companyID, status, now); err != nil {
		return nil, fmt.Errorf("update company status: %w", err)
	}
	s.cache.Invalidate(query.Key("company", companyID))

	company.Status = status
	company.UpdatedAt = now
	s.log.Info("company reviewed", "company_id", companyID, "status", status, "reviewer", actor.UID)

	event := kafka.NewEvent(kafka.EventAccountStatusChanged, companyID)
	event.CompanyID = companyID
	event.Email = company.Email
	event.Name = company.Name
	event.Status = string(status)
	s.publish(ctx, event)
	return company, nil
}

// AccessDecision tells the caller whether a status-gated feature is reachable.
type AccessDecision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CheckAccess allows only a loaded, existing account whose status equals required.
// Anything else, including a load error, denies.
func CheckAccess(res StatusResult, required domain.AccountStatus, fallback string) AccessDecision {
	switch {
	case res.Err != nil:
		return AccessDecision{Redirect: fallback, Reason: "account status could not be loaded"}
	case !res.Found:
		return AccessDecision{Redirect: fallback, Reason: "account not found"}
	case res.Status != required:
		return AccessDecision{Redirect: fallback, Reason: fmt.Sprintf("account status is %s", res.Status)}
	}
	return AccessDecision{Allowed: true}
}

// Access applies CheckAccess to the actor's company. Admins have no approval status and pass.
func (s *AccountService) Access(ctx context.Context, actor domain.Actor, required domain.AccountStatus, fallback string) AccessDecision {
	if actor.IsAdmin() {
		return AccessDecision{Allowed: true}
	}
	res := StatusResult{}
	if actor.UID != "" {
		res = s.CompanyStatus(ctx, actor.UID)
	}

	decision := CheckAccess(res, required, fallback)
	if !decision.Allowed {
		s.metrics.Denied()
		if res.Err != nil {
			s.log.Warn("status check failed", "uid", actor.UID, "error", res.Err)
		}
	}
	return decision
}

// EnsureAdmin creates the configured admin login and its account when missing.
func (s *AccountService) EnsureAdmin(ctx context.Context, input AdminInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return nil
	}
	if err := validateEmail(input.Email); err != nil {
		return err
	}

	credential, err := s.credentials.GetByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if credential == nil {
		if len(input.Password) < 6 {
			return domain.Invalid("password", "password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return err
		}
		credential = &domain.Credential{
			ID:           uuid.NewString(),
			Email:        domain.NormalizeEmail(input.Email),
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			CreatedAt:    s.now().UTC(),
		}
		if err := s.credentials.Create(ctx, credential); err != nil {
			return fmt.Errorf("create admin credential: %w", err)
		}
	}
	if credential.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: %s is registered as a company", domain.ErrConflict, credential.Email)
	}

	existing, err := s.accounts.GetAdminByAuthUID(ctx, credential.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.now().UTC()
	admin := &domain.Account{
		ID:        "admin_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		Role:      domain.RoleAdmin,
		Name:      input.Name,
		Email:     credential.Email,
		AuthUID:   credential.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.CreateAdmin(ctx, admin); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}
	s.log.Info("bootstrap admin created", "admin_id", admin.ID, "email", admin.Email)
	return nil
}

func (s *AccountService) RecentAccounts(ctx context.Context, device string) ([]domain.RecentAccount, error) {
	if strings.TrimSpace(device) == "" {
		return nil, domain.Invalid("device", "device id is required")
	}
	if s.recent == nil {
		return []domain.RecentAccount{}, nil
	}
	return s.recent.RecentAccounts(ctx, device)
}

func (s *AccountService) ForgetAccount(ctx context.Context, device, id string) error {
	if strings.TrimSpace(device) == "" {
		return domain.Invalid("device", "device id is required")
	}
	if s.recent == nil {
		return nil
	}
	return s.recent.RemoveRecentAccount(ctx, device, id)
}

// publish never fails the caller's action.
func (s *AccountService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, event.AggregateID, event); err != nil {
		s.log.Warn("failed to publish event", "type", event.Type, "aggregate_id", event.AggregateID, "error", err)
	}
	if s.notificationsTopic != "" && event.IsAccountEvent() {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.AggregateID, event); err != nil {
			s.log.Warn("failed to publish notification", "type", event.Type, "aggregate_id", event.AggregateID, "error", err)
		}
	}
}

var _ AccountUseCase = (*AccountService)(nil)
