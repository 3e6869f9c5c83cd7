package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/docstore"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
)

type AccountRepository interface {
	GetCompany(ctx context.Context, id string) (*domain.Account, error)
	CreateCompany(ctx context.Context, company *domain.Account) error
	// ListCompanies returns every company when status is empty.
	ListCompanies(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error)
	UpdateCompanyStatus(ctx context.Context, id string, status domain.AccountStatus, at time.Time) error
	GetAdminByAuthUID(ctx context.Context, authUID string) (*domain.Account, error)
	CreateAdmin(ctx context.Context, admin *domain.Account) error
}

type DocAccountRepository struct {
	store docstore.Store
}

func NewAccountRepository(store docstore.Store) AccountRepository {
	return &DocAccountRepository{store: store}
}

func (r *DocAccountRepository) GetCompany(ctx context.Context, id string) (*domain.Account, error) {
	var doc accountDocument
	if err := r.store.Get(ctx, CompaniesCollection, id, &doc); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return doc.toDomain(CompaniesCollection, id, domain.RoleCompany)
}

func (r *DocAccountRepository) CreateCompany(ctx context.Context, company *domain.Account) error {
	return r.store.Create(ctx, CompaniesCollection, company.ID, newAccountDocument(company))
}

func (r *DocAccountRepository) ListCompanies(ctx context.Context, status domain.AccountStatus) ([]domain.Account, error) {
	var filter docstore.Filter
	if status != "" {
		filter = docstore.Filter{"status": string(status)}
	}
	snapshots, err := r.store.Find(ctx, CompaniesCollection, filter)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	companies := make([]domain.Account, 0, len(snapshots))
	for _, snap := range snapshots {
		var doc accountDocument
		if err := snap.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode company %s: %w", snap.ID, err)
		}
		company, err := doc.toDomain(CompaniesCollection, snap.ID, domain.RoleCompany)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].CreatedAt.After(companies[j].CreatedAt)
	})
	return companies, nil
}

func (r *DocAccountRepository) UpdateCompanyStatus(ctx context.Context, id string, status domain.AccountStatus, at time.Time) error {
	return r.store.Update(ctx, CompaniesCollection, id, map[string]any{
		"status":    string(status),
		"updatedAt": at,
	})
}

func (r *DocAccountRepository) GetAdminByAuthUID(ctx context.Context, authUID string) (*domain.Account, error) {
	snapshots, err := r.store.Find(ctx, AdminsCollection, docstore.Filter{"authUid": authUID})
	if err != nil {
		return nil, fmt.Errorf("find admin by auth uid: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	snap := snapshots[0]
	var doc accountDocument
	if err := snap.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode admin %s: %w", snap.ID, err)
	}
	return doc.toDomain(AdminsCollection, snap.ID, domain.RoleAdmin)
}

func (r *DocAccountRepository) CreateAdmin(ctx context.Context, admin *domain.Account) error {
	return r.store.Create(ctx, AdminsCollection, admin.ID, newAccountDocument(admin))
}

var _ AccountRepository = (*DocAccountRepository)(nil)
