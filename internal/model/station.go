package model

// FuelProduct is a product sold at the station (fuel or lubricant)
type FuelProduct struct {
	Base
	ProductName string  `json:"product_name" gorm:"type:varchar(255);not null" validate:"required"`
	ShortName   string  `json:"short_name" gorm:"type:varchar(50);not null" validate:"required"`
	Category    string  `json:"category" gorm:"type:varchar(50)" validate:"omitempty,oneof=fuel lubricant other"`
	Unit        string  `json:"unit" gorm:"type:varchar(20)"`
	GSTPercent  float64 `json:"gst_percent" gorm:"type:numeric(6,2)" validate:"gte=0,lte=100"`
	TDSPercent  float64 `json:"tds_percent" gorm:"type:numeric(6,2)" validate:"gte=0,lte=100"`
	WGTPercent  float64 `json:"wgt_percent" gorm:"type:numeric(6,2)" validate:"gte=0,lte=100"`
	IsActive    bool    `json:"is_active"`
}

// TableName overrides the table name
func (FuelProduct) TableName() string {
	return "fuel_products"
}

// Tank is an underground storage tank holding one product
type Tank struct {
	Base
	TankNumber    string  `json:"tank_number" gorm:"type:varchar(50);not null" validate:"required"`
	FuelProductID *string `json:"fuel_product_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	Capacity      float64 `json:"capacity" gorm:"type:numeric(14,3)" validate:"gt=0"`
	CurrentStock  float64 `json:"current_stock" gorm:"type:numeric(14,3)" validate:"gte=0"`
	IsActive      bool    `json:"is_active"`
}

// TableName overrides the table name
func (Tank) TableName() string {
	return "tanks"
}

// Check rejects a stock level above the tank capacity
func (t *Tank) Check() error {
	if t.CurrentStock > t.Capacity {
		return errCurrentStock
	}
	return nil
}

// Nozzle is a dispensing point fed by a tank
type Nozzle struct {
	Base
	NozzleNumber  string  `json:"nozzle_number" gorm:"type:varchar(50);not null" validate:"required"`
	PumpStation   string  `json:"pump_station" gorm:"type:varchar(50)"`
	TankID        *string `json:"tank_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	FuelProductID *string `json:"fuel_product_id" gorm:"type:uuid;index" validate:"omitempty,uuid"`
	IsActive      bool    `json:"is_active"`
}

// TableName overrides the table name
func (Nozzle) TableName() string {
	return "nozzles"
}

// DailySaleRate is the selling price of a product on one day
type DailySaleRate struct {
	Base
	RateDate      Date    `json:"rate_date" gorm:"index" validate:"required"`
	FuelProductID string  `json:"fuel_product_id" gorm:"type:uuid;index;not null" validate:"required,uuid"`
	OpenRate      float64 `json:"open_rate" gorm:"type:numeric(12,2)" validate:"gte=0"`
	CloseRate     float64 `json:"close_rate" gorm:"type:numeric(12,2)" validate:"gte=0"`
}

// TableName overrides the table name
func (DailySaleRate) TableName() string {
	return "daily_sale_rates"
}
