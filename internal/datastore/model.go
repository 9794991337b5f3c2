// model.go this code defines the persisted data model for the application
package datastore

// Test is one expert-submitted image with its ground-truth label. A Test
// and its Classifications are written together and never deleted; only
// Notes may change afterwards. The primary key is assigned by the store
// inside the insert transaction, never computed by callers.
type Test struct {
	ID          uint   `gorm:"primaryKey"`
	Filename    string `gorm:"not null"`
	ExpertID    int    `gorm:"not null;index:idx_tests_expert"`
	Date        string `gorm:"not null;index:idx_tests_date"` // submission date, ISO 8601
	ExpertLabel string `gorm:"not null;index:idx_tests_label"`
	Image       []byte `gorm:"not null"` // raw uploaded image bytes
	Notes       string

	Classifications []Classification `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE"`
}

// Classification is one model's ranked predictions for one Test. Exactly
// five slots are persisted; models returning fewer results pad with an
// empty label and a NULL confidence. One row exists per (Test, model) pair.
type Classification struct {
	ID     uint   `gorm:"primaryKey"`
	TestID uint   `gorm:"index;not null"`
	Model  string `gorm:"not null"`

	Label1      string `gorm:"column:label_1;not null"`
	Confidence1 *float64 `gorm:"column:confidence_1"`
	Label2      string `gorm:"column:label_2;not null"`
	Confidence2 *float64 `gorm:"column:confidence_2"`
	Label3      string `gorm:"column:label_3;not null"`
	Confidence3 *float64 `gorm:"column:confidence_3"`
	Label4      string `gorm:"column:label_4;not null"`
	Confidence4 *float64 `gorm:"column:confidence_4"`
	Label5      string `gorm:"column:label_5;not null"`
	Confidence5 *float64 `gorm:"column:confidence_5"`
}

// RankedSlot is one of the five persisted (label, confidence) slots.
type RankedSlot struct {
	Label      string
	Confidence *float64
}

// Slots returns the five ranked slots in order. Padding slots have an
// empty label and nil confidence.
func (c *Classification) Slots() [5]RankedSlot {
	return [5]RankedSlot{
		{c.Label1, c.Confidence1},
		{c.Label2, c.Confidence2},
		{c.Label3, c.Confidence3},
		{c.Label4, c.Confidence4},
		{c.Label5, c.Confidence5},
	}
}

// SetSlot assigns one ranked slot by index in [0,5).
func (c *Classification) SetSlot(i int, label string, confidence *float64) {
	switch i {
	case 0:
		c.Label1, c.Confidence1 = label, confidence
	case 1:
		c.Label2, c.Confidence2 = label, confidence
	case 2:
		c.Label3, c.Confidence3 = label, confidence
	case 3:
		c.Label4, c.Confidence4 = label, confidence
	case 4:
		c.Label5, c.Confidence5 = label, confidence
	}
}
