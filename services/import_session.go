package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/importer"
)

// ErrSessionNotFound is returned when a staged import expired or never existed.
var ErrSessionNotFound = errors.New("import session expired, upload the file again")

// SessionTTL bounds how long a parsed upload waits for its commit.
const SessionTTL = 30 * time.Minute

const sessionKeyPrefix = "import_session:"

// Session kinds.
const (
	SessionBOQ      = "boq"
	SessionSchedule = "schedule"
)

// ImportSession is a parsed upload waiting to be committed.
type ImportSession struct {
	ID        string
	Kind      string
	ProjectID string
	FileName  string
	Reference string
	CreatedAt time.Time
	BOQ       *importer.Classification
	Schedule  *importer.ScheduleParseResult
}

// SaveImportSession stages a parsed upload in the app store under a fresh id
// and drops sessions older than SessionTTL.
func SaveImportSession(app core.App, s *ImportSession, now time.Time) string {
	pruneImportSessions(app, now)

	s.ID = uuid.NewString()
	s.CreatedAt = now
	app.Store().Set(sessionKeyPrefix+s.ID, s)
	return s.ID
}

// GetImportSession returns a staged upload for the project.
func GetImportSession(app core.App, projectID, kind, id string, now time.Time) (*ImportSession, error) {
	v, ok := app.Store().GetOk(sessionKeyPrefix + id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s, ok := v.(*ImportSession)
	if !ok || s.ProjectID != projectID || s.Kind != kind || now.Sub(s.CreatedAt) > SessionTTL {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ClaimImportSession takes a staged upload out of the store so that only one
// commit can use it. Concurrent claims of the same id get ErrSessionNotFound.
// Hand the session back with ReleaseImportSession when the commit fails.
func ClaimImportSession(app core.App, projectID, kind, id string, now time.Time) (*ImportSession, error) {
	key := sessionKeyPrefix + id
	if !app.Store().Has(key) {
		return nil, ErrSessionNotFound
	}

	var claimed *ImportSession
	app.Store().SetFunc(key, func(old any) any {
		s, ok := old.(*ImportSession)
		if !ok || s.ProjectID != projectID || s.Kind != kind || now.Sub(s.CreatedAt) > SessionTTL {
			return old
		}
		claimed = s
		return nil
	})
	if claimed == nil {
		return nil, ErrSessionNotFound
	}
	return claimed, nil
}

// ReleaseImportSession puts a claimed upload back so it can be committed again.
func ReleaseImportSession(app core.App, s *ImportSession) {
	app.Store().Set(sessionKeyPrefix+s.ID, s)
}

// DropImportSession forgets a staged upload once it has been committed.
func DropImportSession(app core.App, id string) {
	app.Store().Remove(sessionKeyPrefix + id)
}

func pruneImportSessions(app core.App, now time.Time) {
	for key, v := range app.Store().GetAll() {
		if !strings.HasPrefix(key, sessionKeyPrefix) {
			continue
		}
		if s, ok := v.(*ImportSession); !ok || now.Sub(s.CreatedAt) > SessionTTL {
			app.Store().Remove(key)
		}
	}
}
