package models

import (
	"fmt"
	"time"
)

// LocationType discriminates the two kinds of stock location.
type LocationType string

const (
	LocationWarehouse LocationType = "warehouse"
	LocationDevice    LocationType = "device"
)

// LocationRef identifies one stock location (a warehouse or a handheld device).
type LocationRef struct {
	Type LocationType `json:"type" validate:"required,oneof=warehouse device"`
	ID   uint         `json:"id" validate:"required"`
}

func (l LocationRef) String() string {
	return fmt.Sprintf("%s/%d", l.Type, l.ID)
}

type Warehouse struct {
	Id        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;unique"`
	Address   string    `json:"address"`
	IsMain    bool      `json:"is_main"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HandheldDevice is a technician's mobile stock location. A device may be
// backed by a warehouse; stock then lives on the warehouse row.
type HandheldDevice struct {
	Id          uint       `json:"id" gorm:"primaryKey"`
	DeviceCode  string     `json:"device_code" gorm:"size:50;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"not null"`
	WarehouseId *uint      `json:"warehouse_id"`
	Warehouse   *Warehouse `json:"-" gorm:"foreignKey:WarehouseId;references:Id"`
	Active      bool       `json:"active" gorm:"default:true"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
