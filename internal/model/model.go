// Package model содержит доменные сущности сервиса SigeCafé.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role описывает тип пользователя кооператива.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRADOR"
	RoleCooperative   Role = "COOPERATIVA"
	RoleProducer      Role = "PRODUTOR"
	RoleBuyer         Role = "COMPRADOR"
	RoleStaff         Role = "COLABORADOR"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleCooperative, RoleProducer, RoleBuyer, RoleStaff:
		return true
	}
	return false
}

// Privileged возвращает true для ролей, которым разрешено действовать от имени других пользователей.
func (r Role) Privileged() bool {
	return r == RoleAdministrator || r == RoleCooperative || r == RoleStaff
}

// NaturalSide возвращает сторону книги, на которой роль размещает предложения.
func (r Role) NaturalSide() (OfferSide, bool) {
	switch r {
	case RoleProducer:
		return SideSell, true
	case RoleBuyer:
		return SideBuy, true
	}
	return "", false
}

// User представляет участника кооператива.
type User struct {
	ID            int64
	Name          string
	Phone         string
	PasswordHash  []byte
	Role          Role
	CooperativeID *int64
	CreatedAt     time.Time
}

// Identity описывает аутентифицированного пользователя, выполняющего запрос.
type Identity struct {
	ID   int64
	Role Role
}

// OfferSide описывает сторону предложения.
type OfferSide string

const (
	SideBuy  OfferSide = "BUY"
	SideSell OfferSide = "SELL"
)

// Valid сообщает, является ли сторона допустимой.
func (s OfferSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OfferStatus описывает статус предложения.
type OfferStatus string

const (
	OfferStatusOpen      OfferStatus = "OPEN"
	OfferStatusFilled    OfferStatus = "FILLED"
	OfferStatusCancelled OfferStatus = "CANCELLED"
)

// Offer описывает предложение на покупку или продажу кофе.
type Offer struct {
	ID          int64
	UserID      int64
	UserName    string
	UserRole    Role
	CreatedByID int64
	Side        OfferSide
	Price       decimal.Decimal
	Quantity    int64
	Status      OfferStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderBook содержит открытые предложения на покупку (bids) и продажу (asks).
type OrderBook struct {
	Bids []Offer
	Asks []Offer
}

// CreateOfferRequest содержит параметры создания предложения.
type CreateOfferRequest struct {
	Side             OfferSide
	Price            float64
	Quantity         float64
	OnBehalfOfUserID int64
}

// PriceQuote описывает одно наблюдение рыночной цены кофе.
type PriceQuote struct {
	ID        int64
	Date      time.Time
	Arabica   decimal.NullDecimal
	Robusta   decimal.NullDecimal
	Source    string
	CreatedAt time.Time
}

// CurrentPrice содержит актуальную пару цен. Цена отсутствует, если источник её не сообщил.
type CurrentPrice struct {
	Arabica *float64
	Robusta *float64
	Date    time.Time
}

// Permission описывает доступ ролей к разделу приложения.
type Permission struct {
	ID    int64
	Path  string
	Title string
	Roles []Role
}
