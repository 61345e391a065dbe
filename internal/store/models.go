package store

import (
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
)

// Measurement is one measurement the monitor collects results for.
type Measurement struct {
	ID        int        `gorm:"primaryKey;autoIncrement:false"`
	Goal      model.Goal `gorm:"index;not null"`
	QueryType string     `gorm:"index;not null"`
	Target    string
	Created   time.Time `gorm:"autoCreateTime"`
	Running   bool      `gorm:"index"`
}

type observationRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	MeasurementID int    `gorm:"index"`
	ProbeID       int    `gorm:"not null"`
	Address       string `gorm:"not null;default:''"`
	VantagePoint  string `gorm:"index;not null"`
	ObservedAt    int64  `gorm:"index;not null"`
	Family        int
	Goal          string `gorm:"index;not null"`
	QueryType     string `gorm:"index"`
	Target        string
	Outcome       string
	Answers       string
}

func (observationRow) TableName() string { return "observations" }

type deniedVantagePoint struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	VantagePoint string    `gorm:"size:128;uniqueIndex;not null"`
	Reason       string    `gorm:"size:512;not null;default:''"`
	Created      time.Time `gorm:"autoCreateTime"`
}

func (deniedVantagePoint) TableName() string { return "denylisted_vantage_points" }

// DenyEntry is a vantage point to exclude from every analysis.
type DenyEntry struct {
	VantagePoint string
	Reason       string
}
