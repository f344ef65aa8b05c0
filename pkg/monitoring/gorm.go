package monitoring

import (
	"time"

	"gorm.io/gorm"
)

const startTimeKey = "monitoring:start_time"

// RegisterGormCallbacks hooks db latency recording into every gorm operation.
func RegisterGormCallbacks(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
		anchor    string
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "create"},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "query"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "update"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "delete"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, "row"},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, "raw"},
	}

	for _, h := range hooks {
		operation := h.operation
		if err := h.before("monitoring:before_"+h.anchor, startTimer); err != nil {
			return err
		}
		if err := h.after("monitoring:after_"+h.anchor, func(tx *gorm.DB) {
			recordElapsed(tx, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func startTimer(tx *gorm.DB) {
	tx.InstanceSet(startTimeKey, time.Now())
}

func recordElapsed(tx *gorm.DB, operation string) {
	value, ok := tx.InstanceGet(startTimeKey)
	if !ok {
		return
	}
	start, ok := value.(time.Time)
	if !ok {
		return
	}

	table := tx.Statement.Table
	if table == "" {
		table = "unknown"
	}
	RecordDBLatency(tx.Statement.Context, table, operation, time.Since(start))
}
