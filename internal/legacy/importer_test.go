package legacy

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource serves prepared document slices keyed by collection
type fakeSource struct {
	docs    map[string]any
	fail    map[string]error
	tenants []string
}

func (f *fakeSource) Find(_ context.Context, collection, tenantID string, out any) error {
	f.tenants = append(f.tenants, tenantID)
	if err := f.fail[collection]; err != nil {
		return err
	}
	if docs, ok := f.docs[collection]; ok {
		reflect.ValueOf(out).Elem().Set(reflect.ValueOf(docs))
	}
	return nil
}

func fixtureSource() (*fakeSource, primitive.ObjectID, primitive.ObjectID) {
	productID := primitive.NewObjectID()
	tankID := primitive.NewObjectID()
	created := time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

	return &fakeSource{docs: map[string]any{
		"fuelproducts": []fuelProductDoc{
			{ID: productID, ProductName: "High Speed Diesel", ShortName: "HSD", Category: "fuel", IsActive: true, CreatedAt: created},
		},
		"tanks": []tankDoc{
			{ID: tankID, TankNumber: "T1", FuelProductID: &productID, Capacity: 20000, CurrentStock: 5000, IsActive: true},
			{ID: primitive.NewObjectID(), TankNumber: "T2", Capacity: 1000, CurrentStock: 4000},
		},
		"nozzles": []nozzleDoc{
			{ID: primitive.NewObjectID(), NozzleNumber: "N1", TankID: &tankID, FuelProductID: &productID},
		},
		"saleentries": []saleEntryDoc{
			{ID: primitive.NewObjectID(), SaleDate: created, OpeningReading: 100, ClosingReading: 160, PricePerUnit: 90},
			{ID: primitive.NewObjectID(), SaleDate: created, OpeningReading: 500, ClosingReading: 0, PricePerUnit: 90, Quantity: 12},
			{ID: primitive.NewObjectID(), SaleDate: created, OpeningReading: 500, ClosingReading: 400, PricePerUnit: 90},
		},
		"dailysalerates": []dailySaleRateDoc{
			{ID: primitive.NewObjectID(), RateDate: created, FuelProductID: productID, OpenRate: 89.5, CloseRate: 90},
			{ID: primitive.NewObjectID(), RateDate: created},
		},
	}}, productID, tankID
}

func byCollection(r *Report) map[string]CollectionReport {
	out := map[string]CollectionReport{}
	for _, c := range r.Collections {
		out[c.Collection] = c
	}
	return out
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	_, db := testutil.NewTenantDSN(t)
	src, productID, tankID := fixtureSource()

	report, err := NewImporter(src, nil).Import(ctx, db, "legacy-tenant", nil)
	require.NoError(t, err)
	require.Len(t, report.Collections, len(Collections))

	got := byCollection(report)
	assert.Equal(t, CollectionReport{Collection: "fuelproducts", Fetched: 1, Inserted: 1}, got["fuelproducts"])
	assert.Equal(t, CollectionReport{Collection: "tanks", Fetched: 2, Inserted: 1, Skipped: 1}, got["tanks"])
	assert.Equal(t, CollectionReport{Collection: "saleentries", Fetched: 3, Inserted: 2, Skipped: 1}, got["saleentries"])
	assert.Equal(t, CollectionReport{Collection: "dailysalerates", Fetched: 2, Inserted: 1, Skipped: 1}, got["dailysalerates"])
	assert.Equal(t, CollectionReport{Collection: "vendors"}, got["vendors"])
	assert.Equal(t, 6, report.Inserted())

	for _, tenant := range src.tenants {
		assert.Equal(t, "legacy-tenant", tenant)
	}

	var product model.FuelProduct
	require.NoError(t, db.First(&product, "id = ?", ID(productID)).Error)
	assert.Equal(t, "HSD", product.ShortName)
	assert.True(t, product.CreatedAt.Equal(time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)))

	var nozzle model.Nozzle
	require.NoError(t, db.First(&nozzle).Error)
	require.NotNil(t, nozzle.TankID)
	assert.Equal(t, ID(tankID), *nozzle.TankID)

	var entries []model.SaleEntry
	require.NoError(t, db.Order("opening_reading").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.InDelta(t, 60, entries[0].Quantity, 0.0001)
	assert.InDelta(t, 5400, entries[0].NetSaleAmount, 0.0001)
	assert.InDelta(t, 12, entries[1].Quantity, 0.0001)
}

func TestImportRerunInsertsNothing(t *testing.T) {
	ctx := context.Background()
	_, db := testutil.NewTenantDSN(t)
	src, _, _ := fixtureSource()
	imp := NewImporter(src, nil)

	_, err := imp.Import(ctx, db, "", nil)
	require.NoError(t, err)

	report, err := imp.Import(ctx, db, "", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Inserted())
	assert.Equal(t, 1, byCollection(report)["fuelproducts"].Existing)
	assert.Equal(t, 2, byCollection(report)["saleentries"].Existing)

	var count int64
	require.NoError(t, db.Model(&model.SaleEntry{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestImportSelectedCollections(t *testing.T) {
	ctx := context.Background()
	_, db := testutil.NewTenantDSN(t)
	src, _, _ := fixtureSource()

	report, err := NewImporter(src, nil).Import(ctx, db, "", []string{"tanks", "fuelproducts"})
	require.NoError(t, err)
	require.Len(t, report.Collections, 2)
	assert.Equal(t, "fuelproducts", report.Collections[0].Collection)
	assert.Equal(t, "tanks", report.Collections[1].Collection)

	_, err = NewImporter(src, nil).Import(ctx, db, "", []string{"pumps"})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestImportCollectsFailures(t *testing.T) {
	ctx := context.Background()
	_, db := testutil.NewTenantDSN(t)
	src, _, _ := fixtureSource()
	boom := errors.New("cursor died")
	src.fail = map[string]error{"tanks": boom}

	report, err := NewImporter(src, nil).Import(ctx, db, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Equal(t, boom.Error(), byCollection(report)["tanks"].Error)
	assert.Equal(t, 1, byCollection(report)["nozzles"].Inserted)
}

func TestIDIsStable(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, ID(oid), ID(oid))
	assert.NotEqual(t, ID(oid), ID(primitive.NewObjectID()))
	assert.Nil(t, ref(nil))
	assert.Nil(t, ref(&primitive.NilObjectID))
}
