package migration

import (
	"time"

	"gorm.io/gorm"
)

// Tables as first created by version 1. These types are frozen: a change to
// a model in internal/model needs a new migration, never an edit here.
// Later versions add swipe_machines.vendor_id and the sheet record date
// index.

type v1Base struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type v1FeaturePermission struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	FeatureKey     string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Label          string `gorm:"type:varchar(255)"`
	DefaultEnabled bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (v1FeaturePermission) TableName() string { return "feature_permissions" }

type v1UserFeatureAccess struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_feature"`
	FeatureID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_feature"`
	Allowed   bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v1UserFeatureAccess) TableName() string { return "user_feature_access" }

type v1FuelProduct struct {
	v1Base
	ProductName string  `gorm:"type:varchar(255);not null"`
	ShortName   string  `gorm:"type:varchar(50);not null"`
	Category    string  `gorm:"type:varchar(50)"`
	Unit        string  `gorm:"type:varchar(20)"`
	GSTPercent  float64 `gorm:"type:numeric(6,2)"`
	TDSPercent  float64 `gorm:"type:numeric(6,2)"`
	WGTPercent  float64 `gorm:"type:numeric(6,2)"`
	IsActive    bool
}

func (v1FuelProduct) TableName() string { return "fuel_products" }

type v1Tank struct {
	v1Base
	TankNumber    string  `gorm:"type:varchar(50);not null"`
	FuelProductID *string `gorm:"type:uuid;index"`
	Capacity      float64 `gorm:"type:numeric(14,3)"`
	CurrentStock  float64 `gorm:"type:numeric(14,3)"`
	IsActive      bool
}

func (v1Tank) TableName() string { return "tanks" }

type v1Nozzle struct {
	v1Base
	NozzleNumber  string  `gorm:"type:varchar(50);not null"`
	PumpStation   string  `gorm:"type:varchar(50)"`
	TankID        *string `gorm:"type:uuid;index"`
	FuelProductID *string `gorm:"type:uuid;index"`
	IsActive      bool
}

func (v1Nozzle) TableName() string { return "nozzles" }

type v1DailySaleRate struct {
	v1Base
	RateDate      *time.Time `gorm:"type:date;index"`
	FuelProductID string     `gorm:"type:uuid;index;not null"`
	OpenRate      float64    `gorm:"type:numeric(12,2)"`
	CloseRate     float64    `gorm:"type:numeric(12,2)"`
}

func (v1DailySaleRate) TableName() string { return "daily_sale_rates" }

type v1Employee struct {
	v1Base
	EmployeeName string     `gorm:"type:varchar(255);not null"`
	Designation  string     `gorm:"type:varchar(100)"`
	PhoneNumber  string     `gorm:"type:varchar(20)"`
	Salary       float64    `gorm:"type:numeric(12,2)"`
	JoinDate     *time.Time `gorm:"type:date"`
	IsActive     bool
}

func (v1Employee) TableName() string { return "employees" }

type v1Vendor struct {
	v1Base
	VendorName     string  `gorm:"type:varchar(255);not null"`
	VendorType     string  `gorm:"type:varchar(50)"`
	PhoneNumber    string  `gorm:"type:varchar(20)"`
	Email          string  `gorm:"type:varchar(255)"`
	Address        string  `gorm:"type:text"`
	GSTNumber      string  `gorm:"type:varchar(20)"`
	OpeningBalance float64 `gorm:"type:numeric(14,2)"`
	IsActive       bool
}

func (v1Vendor) TableName() string { return "vendors" }

type v1CreditCustomer struct {
	v1Base
	OrganizationName string  `gorm:"type:varchar(255);not null"`
	ContactPerson    string  `gorm:"type:varchar(255)"`
	PhoneNumber      string  `gorm:"type:varchar(20)"`
	Email            string  `gorm:"type:varchar(255)"`
	CreditLimit      float64 `gorm:"type:numeric(14,2)"`
	OpeningBalance   float64 `gorm:"type:numeric(14,2)"`
	IsActive         bool
}

func (v1CreditCustomer) TableName() string { return "credit_customers" }

type v1ExpenseType struct {
	v1Base
	ExpenseTypeName string `gorm:"type:varchar(255);not null"`
	EffectFor       string `gorm:"type:varchar(50)"`
	Options         string `gorm:"type:text"`
	IsActive        bool
}

func (v1ExpenseType) TableName() string { return "expense_types" }

type v1SaleEntry struct {
	v1Base
	SaleDate       *time.Time `gorm:"type:date;index"`
	Shift          string     `gorm:"type:varchar(20)"`
	PumpStation    string     `gorm:"type:varchar(50)"`
	NozzleID       *string    `gorm:"type:uuid;index"`
	FuelProductID  *string    `gorm:"type:uuid;index"`
	EmployeeID     *string    `gorm:"type:uuid;index"`
	OpeningReading float64    `gorm:"type:numeric(14,3)"`
	ClosingReading float64    `gorm:"type:numeric(14,3)"`
	PricePerUnit   float64    `gorm:"type:numeric(12,2)"`
	Quantity       float64    `gorm:"type:numeric(14,3)"`
	NetSaleAmount  float64    `gorm:"type:numeric(14,2)"`
}

func (v1SaleEntry) TableName() string { return "sale_entries" }

type v1SheetRecord struct {
	v1Base
	RecordDate   *time.Time `gorm:"type:date"`
	SheetName    string     `gorm:"type:varchar(255);not null"`
	NozzleID     *string    `gorm:"type:uuid"`
	OpenReading  float64    `gorm:"type:numeric(14,3)"`
	CloseReading float64    `gorm:"type:numeric(14,3)"`
	Notes        string     `gorm:"type:text"`
}

func (v1SheetRecord) TableName() string { return "sheet_records" }

type v1SwipeMachine struct {
	v1Base
	MachineName string `gorm:"type:varchar(255);not null"`
	MachineType string `gorm:"type:varchar(50);not null"`
	Provider    string `gorm:"type:varchar(100)"`
	TerminalID  string `gorm:"type:varchar(100)"`
	IsActive    bool
}

func (v1SwipeMachine) TableName() string { return "swipe_machines" }

func v1Tables() []interface{} {
	return []interface{}{
		&v1FeaturePermission{},
		&v1UserFeatureAccess{},
		&v1FuelProduct{},
		&v1Tank{},
		&v1Nozzle{},
		&v1DailySaleRate{},
		&v1Employee{},
		&v1Vendor{},
		&v1CreditCustomer{},
		&v1ExpenseType{},
		&v1SaleEntry{},
		&v1SheetRecord{},
		&v1SwipeMachine{},
	}
}

// swipe_machines.vendor_id as added by version 3
type v3SwipeMachine struct {
	ID       string  `gorm:"type:uuid;primaryKey"`
	VendorID *string `gorm:"type:uuid;index"`
}

func (v3SwipeMachine) TableName() string { return "swipe_machines" }

// sheet_records.record_date index as added by version 4
type v4SheetRecord struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	RecordDate *time.Time `gorm:"type:date;index:idx_sheet_records_record_date"`
}

func (v4SheetRecord) TableName() string { return "sheet_records" }
