package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleAdmin
}

type AccountStatus string

const (
	StatusPending  AccountStatus = "pending"
	StatusApproved AccountStatus = "approved"
	StatusRejected AccountStatus = "rejected"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Asset is a reference to an image held by the blob host.
type Asset struct {
	PublicID   string    `json:"publicId"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (a Asset) Empty() bool {
	return a.PublicID == "" || a.URL == ""
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Account is either a transportation company or a platform admin.
type Account struct {
	ID              string        `json:"id"`
	Role            Role          `json:"role"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phoneNumber,omitempty"`
	Location        *GeoPoint     `json:"location,omitempty"`
	Logo            Asset         `json:"logo"`
	BusinessLicense *Asset        `json:"businessLicense,omitempty"`
	CreditBalance   float64       `json:"creditBalance"`
	Status          AccountStatus `json:"status,omitempty"`
	AuthUID         string        `json:"authUid,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Credential is the login identity behind an account.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecentAccount is a summary of an account that signed in on a device.
type RecentAccount struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Logo        Asset     `json:"logo"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UID  string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccessCompany reports whether the actor may act on data owned by companyID.
func (a Actor) CanAccessCompany(companyID string) bool {
	return a.IsAdmin() || (a.UID != "" && a.UID == companyID)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
