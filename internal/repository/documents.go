package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
)

const (
	CompaniesCollection   = "transportation_companies"
	AdminsCollection      = "admins"
	TripsCollection       = "trips"
	CredentialsCollection = "credentials"
)

type assetDocument struct {
	PublicID   string    `bson:"publicId" json:"publicId"`
	URL        string    `bson:"url" json:"url"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type geoDocument struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

type accountDocument struct {
	Name            string         `bson:"name" json:"name"`
	Email           string         `bson:"email" json:"email"`
	PhoneNumber     string         `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Location        *geoDocument   `bson:"location,omitempty" json:"location,omitempty"`
	Logo            assetDocument  `bson:"logo" json:"logo"`
	BusinessLicense *assetDocument `bson:"businessLicense,omitempty" json:"businessLicense,omitempty"`
	CreditBalance   float64        `bson:"creditBalance" json:"creditBalance"`
	Status          string         `bson:"status,omitempty" json:"status,omitempty"`
	AuthUID         string         `bson:"authUid,omitempty" json:"authUid,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt"`
}

func newAccountDocument(a *domain.Account) accountDocument {
	doc := accountDocument{
		Name:          a.Name,
		Email:         a.Email,
		PhoneNumber:   a.PhoneNumber,
		Logo:          assetDocument(a.Logo),
		CreditBalance: a.CreditBalance,
		Status:        string(a.Status),
		AuthUID:       a.AuthUID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Location != nil {
		doc.Location = &geoDocument{Lat: a.Location.Lat, Lng: a.Location.Lng}
	}
	if a.BusinessLicense != nil {
		license := assetDocument(*a.BusinessLicense)
		doc.BusinessLicense = &license
	}
	return doc
}

func (d accountDocument) toDomain(collection, id string, role domain.Role) (*domain.Account, error) {
	status := domain.AccountStatus(d.Status)
	if role == domain.RoleCompany && !status.Valid() {
		return nil, domain.InvalidDocument(collection, id, fmt.Sprintf("unknown status %q", d.Status))
	}
	if d.CreditBalance < 0 {
		return nil, domain.InvalidDocument(collection, id, "negative credit balance")
	}

	account := &domain.Account{
		ID:            id,
		Role:          role,
		Name:          d.Name,
		Email:         d.Email,
		PhoneNumber:   d.PhoneNumber,
		Logo:          domain.Asset(d.Logo),
		CreditBalance: d.CreditBalance,
		Status:        status,
		AuthUID:       d.AuthUID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Location != nil {
		point := domain.GeoPoint{Lat: d.Location.Lat, Lng: d.Location.Lng}
		if !point.Valid() {
			return nil, domain.InvalidDocument(collection, id, "location out of range")
		}
		account.Location = &point
	}
	if d.BusinessLicense != nil {
		license := domain.Asset(*d.BusinessLicense)
		account.BusinessLicense = &license
	}
	return account, nil
}

type seatDocument struct {
	ID     int    `bson:"id" json:"id"`
	Status string `bson:"status" json:"status"`
}

type tripDocument struct {
	Route           string                  `bson:"route" json:"route"`
	DateTime        string                  `bson:"dateTime" json:"dateTime"`
	CarType         string                  `bson:"carType" json:"carType"`
	SeatsAvailable  int                     `bson:"seatsAvailable" json:"seatsAvailable"`
	SeatsBooked     int                     `bson:"seatsBooked" json:"seatsBooked"`
	Status          string                  `bson:"status" json:"status"`
	Price           float64                 `bson:"price" json:"price"`
	CompanyID       string                  `bson:"companyId" json:"companyId"`
	DepartureCity   string                  `bson:"departureCity" json:"departureCity"`
	DestinationCity string                  `bson:"destinationCity" json:"destinationCity"`
	CreatedAt       time.Time               `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time               `bson:"updatedAt" json:"updatedAt"`
	Seats           map[string]seatDocument `bson:"seats,omitempty" json:"seats,omitempty"`
}

func newTripDocument(t *domain.Trip) tripDocument {
	return tripDocument{
		Route:           t.Route,
		DateTime:        t.DateTime,
		CarType:         string(t.CarType),
		SeatsAvailable:  t.SeatsAvailable,
		SeatsBooked:     t.SeatsBooked,
		Status:          string(t.Status),
		Price:           t.Price,
		CompanyID:       t.CompanyID,
		DepartureCity:   t.DepartureCity,
		DestinationCity: t.DestinationCity,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Seats:           seatDocuments(t.Seats),
	}
}

func seatDocuments(seats domain.SeatMap) map[string]seatDocument {
	if seats == nil {
		return nil
	}
	out := make(map[string]seatDocument, len(seats))
	for number, seat := range seats {
		out[strconv.Itoa(number)] = seatDocument{ID: seat.ID, Status: string(seat.Status)}
	}
	return out
}

// toDomain validates the stored trip. A document without a seat map is accepted;
// once the map exists it must be complete and agree with the stored counters.
func (d tripDocument) toDomain(id string) (*domain.Trip, error) {
	carType := domain.CarType(d.CarType)
	if !carType.Valid() {
		return nil, domain.InvalidDocument(TripsCollection, id, fmt.Sprintf("unknown car type %q", d.CarType))
	}
	status := domain.TripStatus(d.Status)
	if !status.Valid() {
		return nil, domain.InvalidDocument(TripsCollection, id, fmt.Sprintf("unknown status %q", d.Status))
	}
	if d.SeatsAvailable < 0 || d.SeatsBooked < 0 {
		return nil, domain.InvalidDocument(TripsCollection, id, "negative seat counter")
	}
	if d.Price < 0 {
		return nil, domain.InvalidDocument(TripsCollection, id, "negative price")
	}

	trip := &domain.Trip{
		ID:              id,
		Route:           d.Route,
		DateTime:        d.DateTime,
		CarType:         carType,
		SeatsAvailable:  d.SeatsAvailable,
		SeatsBooked:     d.SeatsBooked,
		Status:          status,
		Price:           d.Price,
		CompanyID:       d.CompanyID,
		DepartureCity:   d.DepartureCity,
		DestinationCity: d.DestinationCity,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Seats == nil {
		return trip, nil
	}

	seats := make(domain.SeatMap, len(d.Seats))
	for key, seat := range d.Seats {
		number, err := strconv.Atoi(key)
		if err != nil {
			return nil, domain.InvalidDocument(TripsCollection, id, fmt.Sprintf("seat key %q is not a number", key))
		}
		seats[number] = domain.Seat{ID: seat.ID, Status: domain.SeatStatus(seat.Status)}
	}
	if !seats.Complete(trip.Capacity()) {
		return nil, domain.InvalidDocument(TripsCollection, id, fmt.Sprintf("seat map does not hold seats 1..%d", trip.Capacity()))
	}
	available, booked := seats.Count()
	if available != d.SeatsAvailable || booked != d.SeatsBooked {
		return nil, domain.InvalidDocument(TripsCollection, id,
			fmt.Sprintf("counters %d/%d disagree with seat map %d/%d", d.SeatsAvailable, d.SeatsBooked, available, booked))
	}
	trip.Seats = seats
	return trip, nil
}

type credentialDocument struct {
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"passwordHash"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (d credentialDocument) toDomain(id string) (*domain.Credential, error) {
	role := domain.Role(d.Role)
	if !role.Valid() {
		return nil, domain.InvalidDocument(CredentialsCollection, id, fmt.Sprintf("unknown role %q", d.Role))
	}
	if d.PasswordHash == "" {
		return nil, domain.InvalidDocument(CredentialsCollection, id, "missing password hash")
	}
	return &domain.Credential{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         role,
		CreatedAt:    d.CreatedAt,
	}, nil
}
