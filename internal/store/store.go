package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jaxxstorm/rollovermon/internal/model"
	"github.com/miekg/dns"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const insertBatchSize = 500

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (and migrates) the sqlite database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	return open(sqlite.Open(path), logger)
}

func open(target gorm.Dialector, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(target, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("can't create database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("can't access database handle: %w", err)
	}
	// sqlite allows a single writer; in-memory databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Measurement{}, &observationRow{}, &deniedVantagePoint{}); err != nil {
		return nil, fmt.Errorf("can't perform auto migration: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) AddMeasurement(m Measurement) error {
	m.QueryType = strings.ToLower(m.QueryType)
	m.Running = true
	if err := s.db.Create(&m).Error; err != nil {
		return fmt.Errorf("add measurement %d: %w", m.ID, err)
	}
	s.logger.Info("measurement added", zap.Int("msm_id", m.ID), zap.String("goal", string(m.Goal)), zap.String("query_type", m.QueryType))
	return nil
}

func (s *Store) StopMeasurement(id int) error {
	res := s.db.Model(&Measurement{}).Where("id = ?", id).Update("running", false)
	if res.Error != nil {
		return fmt.Errorf("stop measurement %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("stop measurement %d: not found", id)
	}
	s.logger.Info("measurement stopped", zap.Int("msm_id", id))
	return nil
}

// Measurements lists measurements ordered by id. Empty goal or query type
// match everything.
func (s *Store) Measurements(goal model.Goal, queryType string, runningOnly bool) ([]Measurement, error) {
	tx := s.db.Model(&Measurement{})
	if goal != "" {
		tx = tx.Where("goal = ?", goal)
	}
	if queryType != "" {
		tx = tx.Where("query_type = ?", strings.ToLower(queryType))
	}
	if runningOnly {
		tx = tx.Where("running = ?", true)
	}

	var out []Measurement
	if err := tx.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return out, nil
}

func (s *Store) SaveObservations(observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	rows := make([]observationRow, 0, len(observations))
	for _, obs := range observations {
		rows = append(rows, toRow(obs))
	}
	if err := s.db.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("save observations: %w", err)
	}
	s.logger.Debug("observations saved", zap.Int("count", len(rows)))
	return nil
}

// Query selects observations of one goal in [From, To). Zero-valued fields
// other than Goal do not filter.
type Query struct {
	Goal      model.Goal
	QueryType string
	Target    string
	Family    model.Family
	From      time.Time
	To        time.Time
}

// Observations returns the matching observations ordered by time. Denylisted
// vantage points are never returned.
func (s *Store) Observations(q Query) ([]model.Observation, error) {
	tx := s.db.Model(&observationRow{}).
		Where("goal = ?", q.Goal).
		Where("vantage_point NOT IN (?)", s.db.Model(&deniedVantagePoint{}).Select("vantage_point"))
	if q.QueryType != "" {
		tx = tx.Where("query_type = ?", strings.ToLower(q.QueryType))
	}
	if q.Target != "" {
		tx = tx.Where("target = ?", q.Target)
	}
	if q.Family != 0 {
		tx = tx.Where("family = ?", int(q.Family))
	}
	if !q.From.IsZero() {
		tx = tx.Where("observed_at >= ?", q.From.UnixNano())
	}
	if !q.To.IsZero() {
		tx = tx.Where("observed_at < ?", q.To.UnixNano())
	}

	var rows []observationRow
	if err := tx.Order("observed_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	out := make([]model.Observation, 0, len(rows))
	for _, row := range rows {
		obs, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// Deny adds vantage points to the denylist. Entries already present are
// left untouched.
func (s *Store) Deny(entries []DenyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]deniedVantagePoint, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, deniedVantagePoint{VantagePoint: e.VantagePoint, Reason: e.Reason})
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("update denylist: %w", res.Error)
	}
	s.logger.Info("denylist updated", zap.Int64("added", res.RowsAffected))
	return nil
}

// Denylist returns the sorted denylisted vantage points.
func (s *Store) Denylist() ([]string, error) {
	var out []string
	if err := s.db.Model(&deniedVantagePoint{}).Pluck("vantage_point", &out).Error; err != nil {
		return nil, fmt.Errorf("read denylist: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

func toRow(obs model.Observation) observationRow {
	answers := make([]string, 0, len(obs.Answers))
	for _, rr := range obs.Answers {
		answers = append(answers, rr.String())
	}
	return observationRow{
		MeasurementID: obs.MeasurementID,
		ProbeID:       obs.ProbeID,
		Address:       obs.Address,
		VantagePoint:  obs.VantagePoint(),
		ObservedAt:    obs.Timestamp.UnixNano(),
		Family:        int(obs.Family),
		Goal:          string(obs.Goal),
		QueryType:     strings.ToLower(obs.QueryType),
		Target:        obs.Target,
		Outcome:       string(obs.Outcome),
		Answers:       strings.Join(answers, "\n"),
	}
}

func fromRow(row observationRow) (model.Observation, error) {
	obs := model.Observation{
		MeasurementID: row.MeasurementID,
		ProbeID:       row.ProbeID,
		Address:       row.Address,
		Timestamp:     time.Unix(0, row.ObservedAt).UTC(),
		Family:        model.Family(row.Family),
		Goal:          model.Goal(row.Goal),
		QueryType:     row.QueryType,
		Target:        row.Target,
		Outcome:       model.Outcome(row.Outcome),
	}
	if row.Answers == "" {
		return obs, nil
	}
	for _, line := range strings.Split(row.Answers, "\n") {
		rr, err := dns.NewRR(line)
		if err != nil {
			return model.Observation{}, fmt.Errorf("observation %d: parse answer %q: %w", row.ID, line, err)
		}
		if rr != nil {
			obs.Answers = append(obs.Answers, rr)
		}
	}
	return obs, nil
}
