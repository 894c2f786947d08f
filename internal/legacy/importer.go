package legacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/supritimishra/FuelOne-1-sub007/internal/model"
	"github.com/supritimishra/FuelOne-1-sub007/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownCollection is returned for a collection the importer cannot map
var ErrUnknownCollection = errors.New("unknown legacy collection")

var errMissingProduct = errors.New("daily sale rate without fuel product")

// DefaultBatchSize is the number of rows per INSERT statement
const DefaultBatchSize = 200

type document[D, M any] interface {
	*D
	convert() (*M, error)
}

type importFunc func(ctx context.Context, src Source, db *gorm.DB, name, tenantID string, batch int, log *zap.Logger) (CollectionReport, error)

// Collections lists the importable collections in dependency order
var Collections = []string{
	"fuelproducts",
	"employees",
	"vendors",
	"creditcustomers",
	"tanks",
	"nozzles",
	"dailysalerates",
	"saleentries",
}

var importers = map[string]importFunc{
	"fuelproducts":    importAll[fuelProductDoc, model.FuelProduct, *fuelProductDoc],
	"employees":       importAll[employeeDoc, model.Employee, *employeeDoc],
	"vendors":         importAll[vendorDoc, model.Vendor, *vendorDoc],
	"creditcustomers": importAll[creditCustomerDoc, model.CreditCustomer, *creditCustomerDoc],
	"tanks":           importAll[tankDoc, model.Tank, *tankDoc],
	"nozzles":         importAll[nozzleDoc, model.Nozzle, *nozzleDoc],
	"dailysalerates":  importAll[dailySaleRateDoc, model.DailySaleRate, *dailySaleRateDoc],
	"saleentries":     importAll[saleEntryDoc, model.SaleEntry, *saleEntryDoc],
}

// CollectionReport counts the documents of one collection. Existing rows
// were imported by an earlier run; skipped documents broke a business rule.
type CollectionReport struct {
	Collection string `json:"collection"`
	Fetched    int    `json:"fetched"`
	Inserted   int    `json:"inserted"`
	Existing   int    `json:"existing"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// Report is the outcome of one import
type Report struct {
	Collections []CollectionReport `json:"collections"`
}

// Inserted sums the inserted rows over all collections
func (r *Report) Inserted() int {
	n := 0
	for _, c := range r.Collections {
		n += c.Inserted
	}
	return n
}

// Importer copies legacy documents into a tenant database
type Importer struct {
	source    Source
	batchSize int
	log       *zap.Logger
}

// NewImporter creates an importer reading from source
func NewImporter(source Source, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{source: source, batchSize: DefaultBatchSize, log: log}
}

// Import copies the given collections, or all of them when names is empty,
// of the legacy tenant into db. A failing collection does not stop the
// others; failures are returned as a multierror.
func (i *Importer) Import(ctx context.Context, db *gorm.DB, legacyTenantID string, names []string) (*Report, error) {
	if len(names) == 0 {
		names = Collections
	}
	for _, name := range names {
		if _, ok := importers[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
		}
	}

	db = db.WithContext(ctx)
	report := &Report{}
	var result *multierror.Error
	for _, name := range Collections {
		if !slices.Contains(names, name) {
			continue
		}
		log := i.log.With(zap.String("collection", name))

		rep, err := importers[name](ctx, i.source, db, name, legacyTenantID, i.batchSize, log)
		if err != nil {
			rep.Error = err.Error()
			result = multierror.Append(result, fmt.Errorf("collection %s: %w", name, err))
			log.Error("Legacy import failed", zap.Error(err))
		} else {
			log.Info("Legacy collection imported",
				zap.Int("fetched", rep.Fetched),
				zap.Int("inserted", rep.Inserted),
				zap.Int("existing", rep.Existing),
				zap.Int("skipped", rep.Skipped))
		}
		prometheus.RecordLegacyImport(name, "inserted", rep.Inserted)
		prometheus.RecordLegacyImport(name, "existing", rep.Existing)
		prometheus.RecordLegacyImport(name, "skipped", rep.Skipped)
		report.Collections = append(report.Collections, rep)
	}
	return report, result.ErrorOrNil()
}

func importAll[D, M any, PD document[D, M]](ctx context.Context, src Source, db *gorm.DB, name, tenantID string,
	batch int, log *zap.Logger) (CollectionReport, error) {
	rep := CollectionReport{Collection: name}

	var docs []D
	if err := src.Find(ctx, name, tenantID, &docs); err != nil {
		return rep, err
	}
	rep.Fetched = len(docs)

	rows := make([]*M, 0, len(docs))
	for k := range docs {
		row, err := PD(&docs[k]).convert()
		if err != nil {
			rep.Skipped++
			log.Warn("Skipping legacy document", zap.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return rep, nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, batch)
	if res.Error != nil {
		return rep, fmt.Errorf("insert %s: %w", name, res.Error)
	}
	rep.Inserted = int(res.RowsAffected)
	rep.Existing = len(rows) - rep.Inserted
	return rep, nil
}
