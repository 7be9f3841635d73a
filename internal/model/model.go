package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Graffiti{},
	&User{},
	&GlobalStats{},
}

// GlobalStatsID is the primary key of the single GlobalStats row.
const GlobalStatsID = "global"

// Graffiti is one scannable document. DocID matches the AR reference image name.
type Graffiti struct {
	ID        uint      `json:"-" gorm:"primarykey"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	DocID     string    `json:"id" gorm:"size:127;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:255"`
	Scans     int64     `json:"scans" gorm:"not null;default:0"`
}

func (*Graffiti) TableName() string {
	return "graffiti"
}

// User is a registered device and the documents it has scanned.
type User struct {
	ID        uint                        `json:"-" gorm:"primarykey"`
	CreatedAt time.Time                   `json:"-"`
	UpdatedAt time.Time                   `json:"-"`
	UserID    string                      `json:"user_id" gorm:"size:127;uniqueIndex;not null"`
	Scanned   datatypes.JSONSlice[string] `json:"scanned"`
	Completed bool                        `json:"completed" gorm:"not null;default:false"`
}

func (*User) TableName() string {
	return "users"
}

// AddScan records docID in the user's scanned set. Returns false if it was already there.
func (u *User) AddScan(docID string) bool {
	if slices.Contains(u.Scanned, docID) {
		return false
	}
	u.Scanned = append(u.Scanned, docID)
	return true
}

// MarkCompletedIfDone flips Completed when every catalog document has been
// scanned. Returns true only on the transition.
func (u *User) MarkCompletedIfDone(catalog []string) bool {
	if u.Completed || len(catalog) == 0 {
		return false
	}
	for _, id := range catalog {
		if !slices.Contains(u.Scanned, id) {
			return false
		}
	}
	u.Completed = true
	return true
}

// GlobalStats holds the backend-wide counters.
type GlobalStats struct {
	ID                 string  `json:"-" gorm:"primaryKey;size:32"`
	UniqueUsers        int64   `json:"unique_users"`
	UsersCompleted     int64   `json:"users_completed"`
	SessionsCount      int64   `json:"sessions_count"`
	AverageSessionTime float64 `json:"average_session_time"`
}

func (*GlobalStats) TableName() string {
	return "stats"
}

// RecordSession folds one session of seconds into the running average.
func (s *GlobalStats) RecordSession(seconds float64) {
	n := float64(s.SessionsCount)
	s.SessionsCount++
	s.AverageSessionTime = (s.AverageSessionTime*n + seconds) / float64(s.SessionsCount)
}

// DefaultCatalog returns the graffiti seeded into an empty database.
func DefaultCatalog() []Graffiti {
	return []Graffiti{
		{DocID: "irlSoldier", Name: "Soldier in north wall"},
		{DocID: "irlDate", Name: "Gothic inscription in north wall"},
		{DocID: "irlMonk", Name: "Pointing monk in hastial"},
	}
}
