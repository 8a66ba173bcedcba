package database

import (
	"fmt"

	"fieldserve-backend/models"

	"gorm.io/gorm"
)

// MigrateTenantSchema applies (idempotent) schema migrations for one tenant:
//   - AutoMigrate (tables/columns/index tags)
//   - NUMERIC types for money and quantity columns
//   - CHECK constraints (non-negative balances, reserved <= on-hand,
//     exactly-one allocation target)
//   - the recognition counter seed row
func MigrateTenantSchema(schema string) error {
	if schema == "" {
		return fmt.Errorf("schema name is empty")
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
			return fmt.Errorf("set search_path failed: %w", err)
		}

		if err := tx.AutoMigrate(
			&models.Client{},
			&models.Site{},
			&models.Project{},
			&models.Contract{},
			&models.Supplier{},
			&models.Item{},
			&models.Warehouse{},
			&models.HandheldDevice{},
			&models.ItemStock{},
			&models.LedgerEntry{},
			&models.Reservation{},
			&models.StockTransfer{},
			&models.StockTransferLine{},
			&models.WorkOrder{},
			&models.SupplierInvoice{},
			&models.InvoiceAllocation{},
			&models.AllocationPeriod{},
			&models.RecognitionLog{},
			&models.RecognitionCounter{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		// --- Money as NUMERIC(12,2), quantities as NUMERIC(20,4) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE items                ALTER COLUMN unit_cost         TYPE numeric(12,2)`,
			`ALTER TABLE items                ALTER COLUMN unit_price        TYPE numeric(12,2)`,
			`ALTER TABLE item_stocks          ALTER COLUMN quantity_on_hand  TYPE numeric(20,4)`,
			`ALTER TABLE item_stocks          ALTER COLUMN quantity_reserved TYPE numeric(20,4)`,
			`ALTER TABLE item_stocks          ALTER COLUMN average_cost      TYPE numeric(12,2)`,
			`ALTER TABLE item_stocks          ALTER COLUMN last_cost         TYPE numeric(12,2)`,
			`ALTER TABLE ledger_entries       ALTER COLUMN quantity          TYPE numeric(20,4)`,
			`ALTER TABLE ledger_entries       ALTER COLUMN running_balance   TYPE numeric(20,4)`,
			`ALTER TABLE ledger_entries       ALTER COLUMN unit_cost         TYPE numeric(12,2)`,
			`ALTER TABLE reservations         ALTER COLUMN outstanding       TYPE numeric(20,4)`,
			`ALTER TABLE reservations         ALTER COLUMN committed         TYPE numeric(20,4)`,
			`ALTER TABLE reservations         ALTER COLUMN released          TYPE numeric(20,4)`,
			`ALTER TABLE stock_transfer_lines ALTER COLUMN quantity          TYPE numeric(20,4)`,
			`ALTER TABLE contracts            ALTER COLUMN contract_value    TYPE numeric(12,2)`,
			`ALTER TABLE supplier_invoices    ALTER COLUMN total_amount      TYPE numeric(12,2)`,
			`ALTER TABLE invoice_allocations  ALTER COLUMN total_amount      TYPE numeric(12,2)`,
			`ALTER TABLE allocation_periods   ALTER COLUMN amount            TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("numeric type migration failed on: %s - %w", stmt, err)
			}
		}

		// Balance and amount invariants the application also enforces in
		// code; the constraints are the backstop.
		checks := []struct{ table, name, expr string }{
			{"item_stocks", "chk_item_stocks_on_hand_nonneg", "quantity_on_hand >= 0"},
			{"item_stocks", "chk_item_stocks_reserved_nonneg", "quantity_reserved >= 0"},
			{"item_stocks", "chk_item_stocks_reserved_le_on_hand", "quantity_reserved <= quantity_on_hand"},
			{"allocation_periods", "chk_allocation_periods_date_order", "period_start <= period_end"},
			{"invoice_allocations", "chk_invoice_allocations_one_target",
				"(contract_id IS NOT NULL)::int + (site_id IS NOT NULL)::int + (project_id IS NOT NULL)::int = 1"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, c.table, c.name, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on %s: %w", c.name, err)
			}
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_ledger_entries_source ON ledger_entries (source_type, source_id)`,
			`CREATE INDEX IF NOT EXISTS idx_recognition_logs_period_created ON recognition_logs (period_id, created_at DESC)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// Seed the recognition number sequence (one row per tenant).
		if err := tx.Exec(
			`INSERT INTO recognition_counters (id, next_seq) VALUES (1, 1) ON CONFLICT (id) DO NOTHING`,
		).Error; err != nil {
			return fmt.Errorf("recognition counter seed failed: %w", err)
		}

		return nil
	})
}
