package repository

import (
	"context"
	"fmt"

	"github.com/LhacenMed/admin-dashboard/internal/docstore"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
)

type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	// Create fails with domain.ErrConflict when the email is already registered.
	Create(ctx context.Context, credential *domain.Credential) error
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type DocCredentialRepository struct {
	store docstore.Store
}

func NewCredentialRepository(store docstore.Store) CredentialRepository {
	return &DocCredentialRepository{store: store}
}

func (r *DocCredentialRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureIndex(ctx, CredentialsCollection, "email", true); err != nil {
		return fmt.Errorf("index credentials.email: %w", err)
	}
	if err := r.store.EnsureIndex(ctx, TripsCollection, "companyId", false); err != nil {
		return fmt.Errorf("index trips.companyId: %w", err)
	}
	if err := r.store.EnsureIndex(ctx, AdminsCollection, "authUid", true); err != nil {
		return fmt.Errorf("index admins.authUid: %w", err)
	}
	return nil
}

func (r *DocCredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	snapshots, err := r.store.Find(ctx, CredentialsCollection, docstore.Filter{"email": domain.NormalizeEmail(email)})
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	snap := snapshots[0]
	var doc credentialDocument
	if err := snap.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode credential %s: %w", snap.ID, err)
	}
	return doc.toDomain(snap.ID)
}

func (r *DocCredentialRepository) Create(ctx context.Context, credential *domain.Credential) error {
	doc := credentialDocument{
		Email:        domain.NormalizeEmail(credential.Email),
		PasswordHash: credential.PasswordHash,
		Role:         string(credential.Role),
		CreatedAt:    credential.CreatedAt,
	}
	if err := r.store.Create(ctx, CredentialsCollection, credential.ID, doc); err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *DocCredentialRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CredentialsCollection, id); err != nil {
		return fmt.Errorf("delete credential %s: %w", id, err)
	}
	return nil
}

var _ CredentialRepository = (*DocCredentialRepository)(nil)
