package model

import (
	"errors"
	"math"
)

var errCurrentStock = errors.New("current stock cannot exceed tank capacity")

// SaleEntry is one nozzle's sale for a shift, derived from meter readings
type SaleEntry struct {
	Base
	SaleDate       Date    `json:"sale_date" gorm:"index" validate:"required"`
	Shift          string  `json:"shift" gorm:"type:varchar(20)"`
	PumpStation    string  `json:"pump_station" gorm:"type:varchar(50)"`
	NozzleID       *string `json:"nozzle_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	FuelProductID  *string `json:"fuel_product_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	EmployeeID     *string `json:"employee_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	OpeningReading float64 `json:"opening_reading" gorm:"type:numeric(14,3)" validate:"gte=0"`
	ClosingReading float64 `json:"closing_reading" gorm:"type:numeric(14,3)" validate:"gte=0"`
	PricePerUnit   float64 `json:"price_per_unit" gorm:"type:numeric(12,2)" validate:"gte=0"`
	Quantity       float64 `json:"quantity" gorm:"type:numeric(14,3)" validate:"gte=0"`
	NetSaleAmount  float64 `json:"net_sale_amount" gorm:"type:numeric(14,2)"`
}

// TableName overrides the table name
func (SaleEntry) TableName() string {
	return "sale_entries"
}

// Check applies the meter-reading rule
func (s *SaleEntry) Check() error {
	return CheckMeterReading(s.OpeningReading, s.ClosingReading)
}

// Prepare derives quantity and amount from the readings. After a meter
// reset the submitted quantity is kept.
func (s *SaleEntry) Prepare() {
	if q := DispensedQuantity(s.OpeningReading, s.ClosingReading); q > 0 {
		s.Quantity = q
	}
	s.NetSaleAmount = math.Round(s.Quantity*s.PricePerUnit*100) / 100
}

// SheetRecord is a manual meter sheet entry
type SheetRecord struct {
	Base
	RecordDate   Date    `json:"record_date" gorm:"index:idx_sheet_records_record_date" validate:"required"`
	SheetName    string  `json:"sheet_name" gorm:"type:varchar(255);not null" validate:"required"`
	NozzleID     *string `json:"nozzle_id" gorm:"type:uuid" validate:"omitempty,uuid"`
	OpenReading  float64 `json:"open_reading" gorm:"type:numeric(14,3)" validate:"gte=0"`
	CloseReading float64 `json:"close_reading" gorm:"type:numeric(14,3)" validate:"gte=0"`
	Notes        string  `json:"notes" gorm:"type:text"`
}

// TableName overrides the table name
func (SheetRecord) TableName() string {
	return "sheet_records"
}

// Check applies the meter-reading rule
func (s *SheetRecord) Check() error {
	return CheckMeterReading(s.OpenReading, s.CloseReading)
}

// SwipeMachine is a card/UPI terminal, optionally settled through a vendor
type SwipeMachine struct {
	Base
	MachineName string  `json:"machine_name" gorm:"type:varchar(255);not null" validate:"required"`
	MachineType string  `json:"machine_type" gorm:"type:varchar(50);not null" validate:"required"`
	Provider    string  `json:"provider" gorm:"type:varchar(100)"`
	TerminalID  string  `json:"terminal_id" gorm:"type:varchar(100)"`
	VendorID    *string `json:"vendor_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	IsActive    bool    `json:"is_active"`
}

// TableName overrides the table name
func (SwipeMachine) TableName() string {
	return "swipe_machines"
}

// SwipeMachineView is a swipe machine with the linked vendor's name
type SwipeMachineView struct {
	SwipeMachine
	VendorName *string `json:"vendor_name"`
}

// Preparer is implemented by models that derive fields before saving
type Preparer interface {
	Prepare()
}

// TenantModels lists the business models living in each tenant database
func TenantModels() []interface{} {
	return []interface{}{
		&FeaturePermission{},
		&UserFeatureAccess{},
		&FuelProduct{},
		&Tank{},
		&Nozzle{},
		&DailySaleRate{},
		&Employee{},
		&Vendor{},
		&CreditCustomer{},
		&ExpenseType{},
		&SaleEntry{},
		&SheetRecord{},
		&SwipeMachine{},
	}
}
