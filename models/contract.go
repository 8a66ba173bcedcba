package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a maintenance/service agreement with a client; the most common
// allocation target. Contract dates double as default allocation windows.
type Contract struct {
	Id             uint            `json:"id" gorm:"primaryKey"`
	ContractNumber string          `json:"contract_number" gorm:"size:50;not null;uniqueIndex"`
	Name           string          `json:"name" gorm:"not null"`
	ClientId       *uint           `json:"client_id"`
	Client         *Client         `json:"-" gorm:"foreignKey:ClientId;references:Id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	ContractValue  decimal.Decimal `json:"contract_value" gorm:"type:numeric(12,2)"`
	Active         bool            `json:"active" gorm:"default:true"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Site is a client location where work is performed.
type Site struct {
	Id        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	ClientId  *uint     `json:"client_id"`
	Client    *Client   `json:"-" gorm:"foreignKey:ClientId;references:Id"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project groups work at one site (e.g. a refurbishment).
type Project struct {
	Id        uint       `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	SiteId    uint       `json:"site_id" gorm:"not null;index"`
	Site      Site       `json:"-" gorm:"foreignKey:SiteId;references:Id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Active    bool       `json:"active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
