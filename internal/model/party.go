package model

// Employee works at the station
type Employee struct {
	Base
	EmployeeName string  `json:"employee_name" gorm:"type:varchar(255);not null" validate:"required"`
	Designation  string  `json:"designation" gorm:"type:varchar(100)"`
	PhoneNumber  string  `json:"phone_number" gorm:"type:varchar(20)"`
	Salary       float64 `json:"salary" gorm:"type:numeric(12,2)" validate:"gte=0"`
	JoinDate     Date    `json:"join_date"`
	IsActive     bool    `json:"is_active"`
}

// TableName overrides the table name
func (Employee) TableName() string {
	return "employees"
}

// Vendor supplies fuel, lubricants or services
type Vendor struct {
	Base
	VendorName     string  `json:"vendor_name" gorm:"type:varchar(255);not null" validate:"required"`
	VendorType     string  `json:"vendor_type" gorm:"type:varchar(50)"`
	PhoneNumber    string  `json:"phone_number" gorm:"type:varchar(20)"`
	Email          string  `json:"email" gorm:"type:varchar(255)" validate:"omitempty,email"`
	Address        string  `json:"address" gorm:"type:text"`
	GSTNumber      string  `json:"gst_number" gorm:"type:varchar(20)"`
	OpeningBalance float64 `json:"opening_balance" gorm:"type:numeric(14,2)"`
	IsActive       bool    `json:"is_active"`
}

// TableName overrides the table name
func (Vendor) TableName() string {
	return "vendors"
}

// CreditCustomer buys on credit
type CreditCustomer struct {
	Base
	OrganizationName string  `json:"organization_name" gorm:"type:varchar(255);not null" validate:"required"`
	ContactPerson    string  `json:"contact_person" gorm:"type:varchar(255)"`
	PhoneNumber      string  `json:"phone_number" gorm:"type:varchar(20)"`
	Email            string  `json:"email" gorm:"type:varchar(255)" validate:"omitempty,email"`
	CreditLimit      float64 `json:"credit_limit" gorm:"type:numeric(14,2)" validate:"gte=0"`
	OpeningBalance   float64 `json:"opening_balance" gorm:"type:numeric(14,2)"`
	IsActive         bool    `json:"is_active"`
}

// TableName overrides the table name
func (CreditCustomer) TableName() string {
	return "credit_customers"
}

// ExpenseType classifies expense vouchers
type ExpenseType struct {
	Base
	ExpenseTypeName string `json:"expense_type_name" gorm:"type:varchar(255);not null" validate:"required"`
	EffectFor       string `json:"effect_for" gorm:"type:varchar(50)" validate:"omitempty,oneof=employee vendor station"`
	Options         string `json:"options" gorm:"type:text"`
	IsActive        bool   `json:"is_active"`
}

// TableName overrides the table name
func (ExpenseType) TableName() string {
	return "expense_types"
}
