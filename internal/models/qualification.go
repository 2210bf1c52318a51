package models

import "time"

// Estado comercial que se asigna a un registro pagado
const QualificationStatusPaid = "Payé"

// Qualification representa el registro comercial para el que se genera la factura
type Qualification struct {
	ID                string    `json:"id" db:"id"`
	CompanyID         string    `json:"entreprise_id" db:"entreprise_id"`
	Status            string    `json:"statut" db:"statut"`
	Format            string    `json:"format_encart" db:"format_encart"`
	TotalPrice        float64   `json:"prix_total" db:"prix_total"`
	PublicationMonths *string   `json:"mois_parution,omitempty" db:"mois_parution"`
	Installments      bool      `json:"paiement_echelonne" db:"paiement_echelonne"`
	PaymentMethod     *string   `json:"mode_paiement,omitempty" db:"mode_paiement"`
	ContactDate       *string   `json:"date_contact,omitempty" db:"date_contact"`
	Comments          *string   `json:"commentaires,omitempty" db:"commentaires"`
	PaymentDate       *string   `json:"date_paiement,omitempty" db:"date_paiement"`
	PaymentReference  *string   `json:"reference_paiement,omitempty" db:"reference_paiement"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`

	Company *Company `json:"entreprise,omitempty"`
}

// Company representa la empresa cliente vinculada al registro
type Company struct {
	ID         string  `json:"id" db:"id"`
	Name       string  `json:"nom" db:"nom"`
	Email      *string `json:"email,omitempty" db:"email"`
	Phone      *string `json:"telephone,omitempty" db:"telephone"`
	Address    *string `json:"adresse,omitempty" db:"adresse"`
	City       *string `json:"ville,omitempty" db:"ville"`
	PostalCode *string `json:"cp,omitempty" db:"cp"`
}
