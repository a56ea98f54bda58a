// Package integration runs the customer risk report against real PostgreSQL
// databases started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/infrastructure/persistence"
	"github.com/erp/customer-risk/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// Shared container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a connection to a PostgreSQL test database holding the ERP read model tables
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

func runPostgres(ctx context.Context, t *testing.T, dbName string) (testcontainers.Container, string) {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return container, dsn
}

// NewTestDB starts a fresh PostgreSQL container and creates the read model tables.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, dsn := runPostgres(ctx, t, "erp_test")

	db, sqlDB := connectToDatabase(t, dsn)
	require.NoError(t, persistence.AutoMigrateReadModels(db), "Failed to create read model tables")

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB returns a connection to a container shared by the package.
// Tests using it must clean up after themselves with CleanTables.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dsn := runPostgres(context.Background(), t, "erp_shared_test")
		sharedContainer = container
		sharedContainerDSN = dsn

		db, sqlDB := connectToDatabase(t, dsn)
		require.NoError(t, persistence.AutoMigrateReadModels(db), "Failed to create read model tables")
		sqlDB.Close()
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: sharedContainer,
		DSN:       sharedContainerDSN,
		t:         t,
	}
	t.Cleanup(func() {
		if testDB.SqlDB != nil {
			testDB.SqlDB.Close()
		}
	})
	return testDB
}

// Close closes the connection and terminates the container unless it is shared
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables empties every read model table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	for _, m := range models.ReadModels() {
		stmt := &gorm.Statement{DB: tdb.DB}
		require.NoError(tdb.t, stmt.Parse(m))
		err := tdb.DB.Exec("TRUNCATE TABLE " + stmt.Schema.Table).Error
		require.NoError(tdb.t, err, "Failed to truncate %s", stmt.Schema.Table)
	}
}

// CleanupSharedContainer terminates the shared container.
// Call it from TestMain when shared containers are used.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// ERPData is a seeded set of customers around a reference date of 2026-01-31
type ERPData struct {
	Acme, Beta, Idle uuid.UUID
	Receivable       uuid.UUID
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedERP inserts the customers, orders, ledger entries and payments the report reads.
//
// Acme: pending 1000, balance 1500, cheques 400.
// Beta: balance -250 only.
// Idle: ranked but without any open amount.
func (tdb *TestDB) SeedERP() ERPData {
	tdb.t.Helper()

	d := ERPData{Acme: uuid.New(), Beta: uuid.New(), Idle: uuid.New(), Receivable: uuid.New()}
	db := tdb.DB

	require.NoError(tdb.t, db.Create(&[]models.CustomerModel{
		{ID: d.Acme, Code: "C-001", Name: "Acme", CustomerRank: 2, ReceivableAccountID: &d.Receivable},
		{ID: d.Beta, Code: "C-002", Name: "Beta Supplies", CustomerRank: 1, ReceivableAccountID: &d.Receivable},
		{ID: d.Idle, Code: "C-003", Name: "Idle Partner", CustomerRank: 1, ReceivableAccountID: &d.Receivable},
		{ID: uuid.New(), Code: "V-001", Name: "Vendor Only", CustomerRank: 0},
	}).Error)

	confirmed, later := uuid.New(), uuid.New()
	require.NoError(tdb.t, db.Create(&[]models.SalesOrderModel{
		{ID: confirmed, CustomerID: d.Acme, OrderNumber: "S0001", OrderDate: day(2026, 1, 15), State: risk.OrderStateSale},
		{ID: later, CustomerID: d.Acme, OrderNumber: "S0002", OrderDate: day(2026, 2, 3), State: risk.OrderStateSale},
	}).Error)
	line := func(order uuid.UUID, subtotal string) models.SalesOrderLineModel {
		return models.SalesOrderLineModel{
			ID: uuid.New(), OrderID: order, ProductID: uuid.New(), ProductName: "Widget",
			QuantityOrdered: dec("10"), QuantityDelivered: dec("4"), QuantityInvoiced: dec("0"),
			UnitPrice: dec("100"), LineSubtotal: dec(subtotal),
		}
	}
	require.NoError(tdb.t, db.Create(&[]models.SalesOrderLineModel{
		line(confirmed, "1000"),
		line(later, "999"),
	}).Error)

	entry := func(customer uuid.UUID, date time.Time, state risk.MoveState, balance string) models.LedgerEntryModel {
		b := dec(balance)
		e := models.LedgerEntryModel{
			ID: uuid.New(), CustomerID: customer, AccountID: d.Receivable, MoveName: "INV",
			Date: date, ParentState: state, Balance: b, Debit: decimal.Zero, Credit: decimal.Zero,
		}
		if b.IsPositive() {
			e.Debit = b
		} else {
			e.Credit = b.Neg()
		}
		return e
	}
	require.NoError(tdb.t, db.Create(&[]models.LedgerEntryModel{
		entry(d.Acme, day(2026, 1, 10), risk.MoveStatePosted, "1500"),
		entry(d.Acme, day(2026, 1, 20), risk.MoveStateDraft, "80"),
		entry(d.Acme, day(2026, 2, 2), risk.MoveStatePosted, "700"),
		entry(d.Beta, day(2026, 1, 31), risk.MoveStatePosted, "-250"),
	}).Error)

	due := day(2026, 2, 15)
	past := day(2026, 1, 5)
	require.NoError(tdb.t, db.Create(&[]models.PaymentModel{
		{ID: uuid.New(), CustomerID: d.Acme, PaymentNumber: "P001", State: risk.PaymentStatePosted,
			PaymentMethodCode: risk.MethodNewThirdPartyChecks, CheckNumber: "000123", Amount: dec("400"), DueDate: &due},
		{ID: uuid.New(), CustomerID: d.Acme, PaymentNumber: "P002", State: risk.PaymentStatePosted,
			PaymentMethodCode: risk.MethodInThirdPartyChecks, CheckNumber: "000124", Amount: dec("90"), DueDate: &past},
		{ID: uuid.New(), CustomerID: d.Acme, PaymentNumber: "P003", State: risk.PaymentStatePosted,
			PaymentMethodCode: "manual", Amount: dec("55"), DueDate: &due},
	}).Error)

	return d
}
