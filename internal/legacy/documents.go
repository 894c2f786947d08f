package legacy

import (
	"time"

	"github.com/google/uuid"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Namespace seeds the name-based uuids derived from ObjectIDs
var Namespace = uuid.MustParse("6b1f4c1e-2f0a-5d8e-9c61-7a0f0e1c0de0")

// ID maps an ObjectID to the uuid of the imported row. The mapping is
// stable, so references between collections survive the import.
func ID(oid primitive.ObjectID) string {
	return uuid.NewSHA1(Namespace, []byte(oid.Hex())).String()
}

func ref(oid *primitive.ObjectID) *string {
	if oid == nil || oid.IsZero() {
		return nil
	}
	id := ID(*oid)
	return &id
}

func base(oid primitive.ObjectID, created, updated time.Time) model.Base {
	return model.Base{ID: ID(oid), CreatedAt: created, UpdatedAt: updated}
}

func date(t time.Time) model.Date {
	if t.IsZero() {
		return model.Date{}
	}
	return model.NewDate(t)
}

type fuelProductDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	ProductName string             `bson:"productName"`
	ShortName   string             `bson:"shortName"`
	Category    string             `bson:"category"`
	Unit        string             `bson:"unit"`
	GSTPercent  float64            `bson:"gst"`
	TDSPercent  float64            `bson:"tds"`
	WGTPercent  float64            `bson:"wgtPercent"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *fuelProductDoc) convert() (*model.FuelProduct, error) {
	return &model.FuelProduct{
		Base:        base(d.ID, d.CreatedAt, d.UpdatedAt),
		ProductName: d.ProductName,
		ShortName:   d.ShortName,
		Category:    d.Category,
		Unit:        d.Unit,
		GSTPercent:  d.GSTPercent,
		TDSPercent:  d.TDSPercent,
		WGTPercent:  d.WGTPercent,
		IsActive:    d.IsActive,
	}, nil
}

type employeeDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	EmployeeName string             `bson:"employeeName"`
	Designation  string             `bson:"designation"`
	PhoneNumber  string             `bson:"phoneNumber"`
	Salary       float64            `bson:"salary"`
	JoinDate     time.Time          `bson:"joinDate"`
	IsActive     bool               `bson:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *employeeDoc) convert() (*model.Employee, error) {
	return &model.Employee{
		Base:         base(d.ID, d.CreatedAt, d.UpdatedAt),
		EmployeeName: d.EmployeeName,
		Designation:  d.Designation,
		PhoneNumber:  d.PhoneNumber,
		Salary:       d.Salary,
		JoinDate:     date(d.JoinDate),
		IsActive:     d.IsActive,
	}, nil
}

type vendorDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	VendorName     string             `bson:"vendorName"`
	VendorType     string             `bson:"vendorType"`
	PhoneNumber    string             `bson:"phoneNumber"`
	Email          string             `bson:"email"`
	Address        string             `bson:"address"`
	GSTNumber      string             `bson:"gstNumber"`
	OpeningBalance float64            `bson:"openingBalance"`
	IsActive       bool               `bson:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *vendorDoc) convert() (*model.Vendor, error) {
	return &model.Vendor{
		Base:           base(d.ID, d.CreatedAt, d.UpdatedAt),
		VendorName:     d.VendorName,
		VendorType:     d.VendorType,
		PhoneNumber:    d.PhoneNumber,
		Email:          d.Email,
		Address:        d.Address,
		GSTNumber:      d.GSTNumber,
		OpeningBalance: d.OpeningBalance,
		IsActive:       d.IsActive,
	}, nil
}

type creditCustomerDoc struct {
	ID               primitive.ObjectID `bson:"_id"`
	OrganizationName string             `bson:"organizationName"`
	ContactPerson    string             `bson:"contactPerson"`
	PhoneNumber      string             `bson:"phoneNumber"`
	Email            string             `bson:"email"`
	CreditLimit      float64            `bson:"creditLimit"`
	OpeningBalance   float64            `bson:"openingBalance"`
	IsActive         bool               `bson:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func (d *creditCustomerDoc) convert() (*model.CreditCustomer, error) {
	return &model.CreditCustomer{
		Base:             base(d.ID, d.CreatedAt, d.UpdatedAt),
		OrganizationName: d.OrganizationName,
		ContactPerson:    d.ContactPerson,
		PhoneNumber:      d.PhoneNumber,
		Email:            d.Email,
		CreditLimit:      d.CreditLimit,
		OpeningBalance:   d.OpeningBalance,
		IsActive:         d.IsActive,
	}, nil
}

type tankDoc struct {
	ID            primitive.ObjectID  `bson:"_id"`
	TankNumber    string              `bson:"tankNumber"`
	FuelProductID *primitive.ObjectID `bson:"fuelProductId,omitempty"`
	Capacity      float64             `bson:"capacity"`
	CurrentStock  float64             `bson:"currentStock"`
	IsActive      bool                `bson:"isActive"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

func (d *tankDoc) convert() (*model.Tank, error) {
	t := &model.Tank{
		Base:          base(d.ID, d.CreatedAt, d.UpdatedAt),
		TankNumber:    d.TankNumber,
		FuelProductID: ref(d.FuelProductID),
		Capacity:      d.Capacity,
		CurrentStock:  d.CurrentStock,
		IsActive:      d.IsActive,
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

type nozzleDoc struct {
	ID            primitive.ObjectID  `bson:"_id"`
	NozzleNumber  string              `bson:"nozzleNumber"`
	PumpStation   string              `bson:"pumpStation"`
	TankID        *primitive.ObjectID `bson:"tankId,omitempty"`
	FuelProductID *primitive.ObjectID `bson:"fuelProductId,omitempty"`
	IsActive      bool                `bson:"isActive"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

func (d *nozzleDoc) convert() (*model.Nozzle, error) {
	return &model.Nozzle{
		Base:          base(d.ID, d.CreatedAt, d.UpdatedAt),
		NozzleNumber:  d.NozzleNumber,
		PumpStation:   d.PumpStation,
		TankID:        ref(d.TankID),
		FuelProductID: ref(d.FuelProductID),
		IsActive:      d.IsActive,
	}, nil
}

type dailySaleRateDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	RateDate      time.Time          `bson:"rateDate"`
	FuelProductID primitive.ObjectID `bson:"fuelProductId"`
	OpenRate      float64            `bson:"openRate"`
	CloseRate     float64            `bson:"closeRate"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *dailySaleRateDoc) convert() (*model.DailySaleRate, error) {
	if d.FuelProductID.IsZero() {
		return nil, errMissingProduct
	}
	return &model.DailySaleRate{
		Base:          base(d.ID, d.CreatedAt, d.UpdatedAt),
		RateDate:      date(d.RateDate),
		FuelProductID: ID(d.FuelProductID),
		OpenRate:      d.OpenRate,
		CloseRate:     d.CloseRate,
	}, nil
}

type saleEntryDoc struct {
	ID             primitive.ObjectID  `bson:"_id"`
	SaleDate       time.Time           `bson:"saleDate"`
	Shift          string              `bson:"shift"`
	PumpStation    string              `bson:"pumpStation"`
	NozzleID       *primitive.ObjectID `bson:"nozzleId,omitempty"`
	FuelProductID  *primitive.ObjectID `bson:"fuelProductId,omitempty"`
	EmployeeID     *primitive.ObjectID `bson:"employeeId,omitempty"`
	OpeningReading float64             `bson:"openingReading"`
	ClosingReading float64             `bson:"closingReading"`
	PricePerUnit   float64             `bson:"pricePerUnit"`
	Quantity       float64             `bson:"quantity"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`
}

func (d *saleEntryDoc) convert() (*model.SaleEntry, error) {
	s := &model.SaleEntry{
		Base:           base(d.ID, d.CreatedAt, d.UpdatedAt),
		SaleDate:       date(d.SaleDate),
		Shift:          d.Shift,
		PumpStation:    d.PumpStation,
		NozzleID:       ref(d.NozzleID),
		FuelProductID:  ref(d.FuelProductID),
		EmployeeID:     ref(d.EmployeeID),
		OpeningReading: d.OpeningReading,
		ClosingReading: d.ClosingReading,
		PricePerUnit:   d.PricePerUnit,
		Quantity:       d.Quantity,
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	s.Prepare()
	return s, nil
}
